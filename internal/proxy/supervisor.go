// Package proxy implements the per-connection mediators (SMTP and IMAP)
// and the connection supervisor that dials the upstream, builds the framed
// streams, and dispatches to the protocol-appropriate mediator.
package proxy

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ctolnik/oaproxy/internal/account"
	"github.com/ctolnik/oaproxy/internal/logging"
	"github.com/ctolnik/oaproxy/internal/stream"
)

// Protocol identifies which mediator a Route's listener dispatches to.
type Protocol string

const (
	ProtocolSMTP Protocol = "smtp"
	ProtocolIMAP Protocol = "imap"
)

const (
	maxLineSize    = 4096
	tlsDialTimeout = 10 * time.Second
	tlsDialRetries = 3
	tlsDialBackoff = 200 * time.Millisecond
)

// Route is one configured (protocol, local listen address, upstream
// address) tuple.
type Route struct {
	Protocol      Protocol
	Listen        string
	Upstream      string
	TLSServerName string
}

type mediator interface {
	Run() error
}

// Supervisor owns one listener for one Route: it accepts connections,
// dials the upstream over TLS for each, and runs the appropriate mediator
// to completion before closing both sockets.
type Supervisor struct {
	route    Route
	provider account.Provider

	listener net.Listener
	wg       sync.WaitGroup
	stopping atomic.Bool
	nextID   atomic.Uint64
	stats    Stats
}

// NewSupervisor constructs a supervisor for one route.
func NewSupervisor(route Route, provider account.Provider) *Supervisor {
	return &Supervisor{route: route, provider: provider}
}

// Start opens the listening socket and begins accepting in the background.
func (s *Supervisor) Start() error {
	ln, err := net.Listen("tcp", s.route.Listen)
	if err != nil {
		return err
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	logging.Info("%s: listening on %s, upstream %s", s.route.Protocol, s.route.Listen, s.route.Upstream)
	return nil
}

// Stop closes the listener and waits for the accept loop to exit. It does
// not forcibly terminate in-flight sessions; each session's mediator
// terminates on its own once a peer closes.
func (s *Supervisor) Stop() error {
	s.stopping.Store(true)
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	s.stats.Log(s.route.Protocol)
	return err
}

func (s *Supervisor) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping.Load() {
				return
			}
			logging.Error("%s: accept: %v", s.route.Protocol, err)
			continue
		}

		id := s.nextID.Add(1)
		go s.handle(conn, id)
	}
}

func (s *Supervisor) handle(conn net.Conn, id uint64) {
	log := logging.Conn(id)
	defer conn.Close()

	upstream, err := dialUpstreamTLS(s.route.Upstream, s.route.TLSServerName)
	if err != nil {
		// A dial failure closes the client immediately with no explicit
		// error; the client observes a plain TCP close, per the
		// supervisor's failure semantics.
		log.Warn("%s: dial upstream %s failed: %v", s.route.Protocol, s.route.Upstream, err)
		s.stats.dialFailed()
		return
	}
	defer upstream.Close()

	clientStream := stream.New(conn, maxLineSize)
	upstreamStream := stream.New(upstream, maxLineSize)

	s.stats.sessionStarted()
	log.Info("%s session: client %s, upstream %s", s.route.Protocol, conn.RemoteAddr(), s.route.Upstream)

	var med mediator
	switch s.route.Protocol {
	case ProtocolSMTP:
		med = NewSMTPMediator(clientStream, upstreamStream, s.provider, log, &s.stats)
	case ProtocolIMAP:
		med = NewIMAPMediator(clientStream, upstreamStream, s.provider, log, &s.stats)
	default:
		log.Error("unknown protocol %q", s.route.Protocol)
		return
	}

	if err := med.Run(); err != nil && !errors.Is(err, stream.ErrClosed) {
		log.Warn("%s: session ended: %v", s.route.Protocol, err)
		return
	}
	log.Debug("%s: session closed", s.route.Protocol)
}

// dialUpstreamTLS dials the upstream with implicit TLS, retrying a bounded
// number of times on a transient (timeout) failure. crypto/tls drives the
// whole handshake to completion inside Dial, so the retry sits at the dial
// level rather than inside individual read/write calls.
func dialUpstreamTLS(addr, serverName string) (*tls.Conn, error) {
	host := serverName
	if host == "" {
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		} else {
			host = addr
		}
	}

	cfg := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}

	var lastErr error
	for attempt := 0; attempt < tlsDialRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(tlsDialBackoff)
		}
		dialer := &net.Dialer{Timeout: tlsDialTimeout}
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, cfg)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return nil, lastErr
}

func isTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
