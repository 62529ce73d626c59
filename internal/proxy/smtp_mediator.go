package proxy

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync/atomic"

	"github.com/ctolnik/oaproxy/internal/account"
	"github.com/ctolnik/oaproxy/internal/logging"
	"github.com/ctolnik/oaproxy/internal/smtpproto"
	"github.com/ctolnik/oaproxy/internal/stream"
	"github.com/ctolnik/oaproxy/internal/xoauth2"
)

const smtpDataChunkSize = 32 * 1024

// SMTPMediator is the per-connection SMTP state machine: it wires the
// client and upstream streams together, substituting AUTH PLAIN
// credentials with XOAUTH2 and rewriting the server's AUTH capability
// announcement, while relaying everything else byte-for-byte including the
// opaque DATA payload.
type SMTPMediator struct {
	client   *stream.Framed
	upstream *stream.Framed
	provider account.Provider
	log      *logging.ConnLogger
	stats    *Stats

	inData  atomic.Bool
	scanner smtpproto.DataScanner
}

// NewSMTPMediator constructs a mediator for one accepted connection. stats
// may be nil.
func NewSMTPMediator(client, upstream *stream.Framed, provider account.Provider, log *logging.ConnLogger, stats *Stats) *SMTPMediator {
	return &SMTPMediator{client: client, upstream: upstream, provider: provider, log: log, stats: stats}
}

// Run drives the duplex relay until either side closes or errors. The two
// directions run as independent goroutines (the Go equivalent of servicing
// every readable endpoint without starving the other), joined so that
// either side ending tears down both sockets and the other direction
// returns promptly.
func (m *SMTPMediator) Run() error {
	errc := make(chan error, 2)
	go func() { errc <- m.serverToClient() }()
	go func() { errc <- m.clientToServer() }()

	first := <-errc
	m.client.Conn().Close()
	m.upstream.Conn().Close()
	<-errc
	return first
}

func (m *SMTPMediator) serverToClient() error {
	for {
		line, err := m.upstream.ReadLine()
		if err != nil {
			return err
		}

		reply := smtpproto.ParseReply(line)
		out := line
		if reply.Kind == smtpproto.ReplyAuthCap {
			out = rewriteAuthCap(line, reply)
		}
		if reply.Parsed && reply.Code == 354 {
			// Flip before forwarding the go-ahead: once the client has
			// seen 354, anything it sends is message body.
			m.inData.Store(true)
		}
		if _, err := m.client.Write(out); err != nil {
			return err
		}
	}
}

func (m *SMTPMediator) clientToServer() error {
	for {
		if m.inData.Load() {
			chunk, err := m.client.ReadRaw(smtpDataChunkSize)
			if err != nil {
				return err
			}
			if err := m.relayData(chunk); err != nil {
				return err
			}
			continue
		}

		line, err := m.client.ReadLine()
		if err != nil {
			return err
		}
		if m.inData.Load() {
			// The server's 354 landed while this goroutine was parked in
			// ReadLine; the bytes just read are message body, not a
			// command.
			if err := m.relayData(line); err != nil {
				return err
			}
			continue
		}
		if err := m.handleClientLine(line); err != nil {
			return err
		}
	}
}

func (m *SMTPMediator) handleClientLine(line []byte) error {
	cmd := smtpproto.ParseCmd(line)
	switch cmd.Kind {
	case smtpproto.CmdAuthPlain:
		return m.handleAuthPlain(cmd)
	default:
		_, err := m.upstream.Write(line)
		return err
	}
}

func (m *SMTPMediator) handleAuthPlain(cmd smtpproto.Cmd) error {
	payload := cmd.Data
	if len(payload) == 0 {
		if _, err := m.client.Write([]byte("334\r\n")); err != nil {
			return err
		}
		line, err := m.client.ReadLine()
		if err != nil {
			return err
		}
		payload = trimCRLF(line)
	}

	username, ok := decodeAuthPlainUser(payload)
	if !ok {
		_, err := m.client.Write([]byte("501 Syntax error in credentials\r\n"))
		return err
	}

	return m.authenticate(username)
}

func (m *SMTPMediator) authenticate(username string) error {
	ctx := context.Background()
	acct, found := m.provider.Find(ctx, username)
	if !found {
		m.log.Warn("smtp auth denied: unknown account %q", username)
		m.stats.authDeniedInc()
		_, err := m.client.Write([]byte("535 Invalid username or password\r\n"))
		return err
	}

	token, status := m.provider.Token(ctx, acct)
	switch status {
	case account.StatusCredentialRejected:
		m.log.Warn("smtp auth denied: account %q not authorized", username)
		m.stats.authDeniedInc()
		_, err := m.client.Write([]byte("535 Account not authorized for SMTP\r\n"))
		return err
	case account.StatusTokenUnavailable:
		m.log.Warn("smtp auth failed: no token for account %q", username)
		m.stats.authDeniedInc()
		_, err := m.client.Write([]byte("451 Error obtaining access token\r\n"))
		return err
	}

	m.stats.authSucceeded()
	resp := xoauth2.EncodeInitialResponse(username, token)
	_, err := m.upstream.Write([]byte(fmt.Sprintf("AUTH XOAUTH2 %s\r\n", resp)))
	return err
}

func (m *SMTPMediator) relayData(chunk []byte) error {
	bodyLen, terminated := m.scanner.Feed(chunk)
	if _, err := m.upstream.Write(chunk[:bodyLen]); err != nil {
		return err
	}

	if terminated {
		m.inData.Store(false)
		if bodyLen < len(chunk) {
			m.client.Unread(chunk[bodyLen:])
		}
	}
	return nil
}

// decodeAuthPlainUser base64-decodes an AUTH PLAIN payload and extracts the
// authcid (second NUL-delimited field); the authzid and password fields are
// discarded, since the proxy never checks a legacy password against
// anything — the account provider's own authorization is what matters.
func decodeAuthPlainUser(payload []byte) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return "", false
	}

	fields := splitNUL(raw, 3)
	if len(fields) != 3 || len(fields[1]) == 0 {
		return "", false
	}
	return string(fields[1]), true
}

func splitNUL(b []byte, n int) [][]byte {
	out := make([][]byte, 0, n)
	start := 0
	for i := 0; i < len(b) && len(out) < n-1; i++ {
		if b[i] == 0 {
			out = append(out, b[start:i])
			start = i + 1
		}
	}
	out = append(out, b[start:])
	return out
}

func rewriteAuthCap(line []byte, r smtpproto.Reply) []byte {
	sep := byte(' ')
	if !r.IsLast {
		sep = '-'
	}

	out := make([]byte, 0, len(line))
	out = append(out, line[:3]...)
	out = append(out, sep)
	out = append(out, []byte("AUTH PLAIN")...)
	out = append(out, '\r', '\n')
	return out
}

func trimCRLF(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] != '\r' && b[i] != '\n' {
		i++
	}
	return b[:i]
}
