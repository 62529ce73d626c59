package proxy

import (
	"net"
	"testing"

	"github.com/ctolnik/oaproxy/internal/account"
	"github.com/ctolnik/oaproxy/internal/logging"
	"github.com/ctolnik/oaproxy/internal/stream"
	"github.com/ctolnik/oaproxy/internal/xoauth2"
)

func startIMAPMediator(t *testing.T, provider account.Provider) (clientConn, upstreamConn net.Conn) {
	t.Helper()
	clientSide, clientMediatorSide := net.Pipe()
	upstreamSide, upstreamMediatorSide := net.Pipe()

	m := NewIMAPMediator(
		stream.New(clientMediatorSide, 4096),
		stream.New(upstreamMediatorSide, 4096),
		provider,
		logging.Conn(2),
		nil,
	)
	go m.Run()

	t.Cleanup(func() {
		clientSide.Close()
		upstreamSide.Close()
	})
	return clientSide, upstreamSide
}

func TestIMAPUntaggedReplyPassthrough(t *testing.T) {
	client, upstream := startIMAPMediator(t, &stubProvider{accounts: map[string]stubEntry{}})
	clientR := newLineReader(client)

	writeLine(t, upstream, "* 1 EXISTS\r\n")
	got := clientR.readLine(t)
	if got != "* 1 EXISTS\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestIMAPOtherCommandPassthrough(t *testing.T) {
	client, upstream := startIMAPMediator(t, &stubProvider{accounts: map[string]stubEntry{}})
	upstreamR := newLineReader(upstream)

	writeLine(t, client, "tg2 SELECT \"INBOX\"\r\n")
	got := upstreamR.readLine(t)
	if got != "tg2 SELECT \"INBOX\"\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestIMAPCapabilityRewriteThroughMediator(t *testing.T) {
	client, upstream := startIMAPMediator(t, &stubProvider{accounts: map[string]stubEntry{}})
	clientR := newLineReader(client)

	writeLine(t, upstream, "* CAPABILITY IMAP4rev1 auth=plain UNSELECT AUTH=XOAUTH2 IDLE logindisabled NAMESPACE\r\n")
	got := clientR.readLine(t)
	want := "* CAPABILITY IMAP4rev1 UNSELECT IDLE NAMESPACE\r\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIMAPLoginQuotedUsernameSubstitution(t *testing.T) {
	provider := &stubProvider{accounts: map[string]stubEntry{
		"user1@example.com": {token: "tokuser1abc", status: account.StatusOK},
	}}
	client, upstream := startIMAPMediator(t, provider)
	upstreamR := newLineReader(upstream)

	writeLine(t, client, "tg1 LOGIN \"user1@example.com\" dummypass\r\n")

	got := upstreamR.readLine(t)
	want := "tg1 AUTHENTICATE XOAUTH2 " + xoauth2.EncodeInitialResponse("user1@example.com", "tokuser1abc") + "\r\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIMAPLoginAtomUsernameSubstitution(t *testing.T) {
	provider := &stubProvider{accounts: map[string]stubEntry{
		"bob": {token: "tokbob", status: account.StatusOK},
	}}
	client, upstream := startIMAPMediator(t, provider)
	upstreamR := newLineReader(upstream)

	writeLine(t, client, "a1 login bob secret\r\n")

	got := upstreamR.readLine(t)
	want := "a1 AUTHENTICATE XOAUTH2 " + xoauth2.EncodeInitialResponse("bob", "tokbob") + "\r\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIMAPLoginUnknownUserDenied(t *testing.T) {
	provider := &stubProvider{accounts: map[string]stubEntry{}}
	client, _ := startIMAPMediator(t, provider)
	clientR := newLineReader(client)

	writeLine(t, client, "tg1 LOGIN \"nobody@example.com\" dummypass\r\n")

	got := clientR.readLine(t)
	if got != "tg1 NO Invalid username\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestIMAPLoginCredentialRejected(t *testing.T) {
	provider := &stubProvider{accounts: map[string]stubEntry{
		"revoked@example.com": {status: account.StatusCredentialRejected},
	}}
	client, _ := startIMAPMediator(t, provider)
	clientR := newLineReader(client)

	writeLine(t, client, "tg1 LOGIN \"revoked@example.com\" dummypass\r\n")

	got := clientR.readLine(t)
	if got != "tg1 NO Account not authorized for IMAP\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestIMAPLoginTokenUnavailable(t *testing.T) {
	provider := &stubProvider{accounts: map[string]stubEntry{
		"notoken@example.com": {status: account.StatusTokenUnavailable},
	}}
	client, _ := startIMAPMediator(t, provider)
	clientR := newLineReader(client)

	writeLine(t, client, "tg1 LOGIN \"notoken@example.com\" dummypass\r\n")

	got := clientR.readLine(t)
	if got != "tg1 NO Error obtaining access token\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestIMAPLoginSyntaxErrorInUsername(t *testing.T) {
	provider := &stubProvider{accounts: map[string]stubEntry{}}
	client, _ := startIMAPMediator(t, provider)
	clientR := newLineReader(client)

	writeLine(t, client, "tg1 LOGIN \"unterminated dummypass\r\n")

	got := clientR.readLine(t)
	if got != "tg1 BAD Syntax error in username\r\n" {
		t.Fatalf("got %q", got)
	}
}
