package xoauth2

import "testing"

func TestFormat(t *testing.T) {
	got := Format("user1@example.com", "tokuser1abc")
	want := "user=user1@example.com\x01auth=Bearer tokuser1abc\x01\x01"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEncodeInitialResponseMatchesWorkedExample(t *testing.T) {
	got := EncodeInitialResponse("user1@example.com", "tokuser1abc")
	want := "dXNlcj11c2VyMUBleGFtcGxlLmNvbQFhdXRoPUJlYXJlciB0b2t1c2VyMWFiYwEB"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestClientStartMatchesFormat(t *testing.T) {
	c := &Client{Username: "a@b.com", Token: "tok"}
	mech, ir, err := c.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if mech != "XOAUTH2" {
		t.Fatalf("got mech %q", mech)
	}
	if string(ir) != Format("a@b.com", "tok") {
		t.Fatalf("got %q", ir)
	}
}
