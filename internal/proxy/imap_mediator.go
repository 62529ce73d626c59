package proxy

import (
	"context"
	"fmt"

	"github.com/ctolnik/oaproxy/internal/account"
	"github.com/ctolnik/oaproxy/internal/imapproto"
	"github.com/ctolnik/oaproxy/internal/logging"
	"github.com/ctolnik/oaproxy/internal/stream"
	"github.com/ctolnik/oaproxy/internal/xoauth2"
)

// IMAPMediator is the per-connection IMAP state machine. Unlike SMTP there
// is no DATA mode: the mediator inspects every client command for LOGIN for
// the life of the session, substituting AUTHENTICATE XOAUTH2 and rewriting
// the server's CAPABILITY announcement, while forwarding everything else
// verbatim.
type IMAPMediator struct {
	client   *stream.Framed
	upstream *stream.Framed
	provider account.Provider
	log      *logging.ConnLogger
	stats    *Stats
}

// NewIMAPMediator constructs a mediator for one accepted connection. stats
// may be nil.
func NewIMAPMediator(client, upstream *stream.Framed, provider account.Provider, log *logging.ConnLogger, stats *Stats) *IMAPMediator {
	return &IMAPMediator{client: client, upstream: upstream, provider: provider, log: log, stats: stats}
}

func (m *IMAPMediator) Run() error {
	errc := make(chan error, 2)
	go func() { errc <- m.serverToClient() }()
	go func() { errc <- m.clientToServer() }()

	first := <-errc
	m.client.Conn().Close()
	m.upstream.Conn().Close()
	<-errc
	return first
}

func (m *IMAPMediator) serverToClient() error {
	for {
		line, err := m.upstream.ReadLine()
		if err != nil {
			return err
		}

		reply := imapproto.ParseReply(line)
		out := line
		if reply.Kind == imapproto.ReplyCapability {
			out = imapproto.RewriteCapability(reply)
		}
		if _, err := m.client.Write(out); err != nil {
			return err
		}
	}
}

func (m *IMAPMediator) clientToServer() error {
	for {
		line, err := m.client.ReadLine()
		if err != nil {
			return err
		}

		cmd := imapproto.ParseCmd(line)
		if cmd.Kind == imapproto.CmdLogin {
			if err := m.handleLogin(cmd); err != nil {
				return err
			}
			continue
		}

		if _, err := m.upstream.Write(line); err != nil {
			return err
		}
	}
}

func (m *IMAPMediator) handleLogin(cmd imapproto.Cmd) error {
	username, _, ok := imapproto.ParseString(cmd.Param)
	if !ok {
		return m.replyLocal(cmd.Tag, "BAD Syntax error in username\r\n")
	}

	ctx := context.Background()
	acct, found := m.provider.Find(ctx, string(username))
	if !found {
		m.log.Warn("imap login denied: unknown account %q", username)
		m.stats.authDeniedInc()
		return m.replyLocal(cmd.Tag, "NO Invalid username\r\n")
	}

	token, status := m.provider.Token(ctx, acct)
	switch status {
	case account.StatusCredentialRejected:
		m.log.Warn("imap login denied: account %q not authorized", username)
		m.stats.authDeniedInc()
		return m.replyLocal(cmd.Tag, "NO Account not authorized for IMAP\r\n")
	case account.StatusTokenUnavailable:
		m.log.Warn("imap login failed: no token for account %q", username)
		m.stats.authDeniedInc()
		return m.replyLocal(cmd.Tag, "NO Error obtaining access token\r\n")
	}

	m.stats.authSucceeded()
	resp := xoauth2.EncodeInitialResponse(string(username), token)
	out := fmt.Sprintf("%s AUTHENTICATE XOAUTH2 %s\r\n", string(cmd.Tag), resp)
	_, err := m.upstream.Write([]byte(out))
	return err
}

func (m *IMAPMediator) replyLocal(tag []byte, msg string) error {
	_, err := m.client.Write([]byte(fmt.Sprintf("%s %s", string(tag), msg)))
	return err
}
