package imapproto

import "testing"

func TestParseCmdLogin(t *testing.T) {
	cmd := ParseCmd([]byte("tg1 LOGIN \"user1@example.com\" dummypass\r\n"))
	if cmd.Kind != CmdLogin {
		t.Fatalf("expected CmdLogin, got %v", cmd.Kind)
	}
	if string(cmd.Tag) != "tg1" {
		t.Fatalf("got tag %q", cmd.Tag)
	}
	if string(cmd.Param) != " \"user1@example.com\" dummypass" {
		t.Fatalf("got param %q", cmd.Param)
	}
}

func TestParseCmdLoginCaseInsensitive(t *testing.T) {
	cmd := ParseCmd([]byte("a1 login bob secret\r\n"))
	if cmd.Kind != CmdLogin {
		t.Fatalf("expected CmdLogin, got %v", cmd.Kind)
	}
}

func TestParseCmdOther(t *testing.T) {
	cmd := ParseCmd([]byte("tg2 SELECT \"INBOX\"\r\n"))
	if cmd.Kind != CmdOther {
		t.Fatalf("expected CmdOther, got %v", cmd.Kind)
	}
	if string(cmd.Tag) != "tg2" {
		t.Fatalf("got tag %q", cmd.Tag)
	}
}

func TestParseCmdBadTagStillForwarded(t *testing.T) {
	cmd := ParseCmd([]byte("!bad LOGIN x y\r\n"))
	if cmd.Kind != CmdOther {
		t.Fatalf("expected CmdOther when tag parse fails, got %v", cmd.Kind)
	}
}
