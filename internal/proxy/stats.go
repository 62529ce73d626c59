package proxy

import (
	"sync/atomic"

	"github.com/ctolnik/oaproxy/internal/logging"
)

// Stats tracks one route's session counters. All methods are safe for
// concurrent use and tolerate a nil receiver, so mediators constructed
// without a supervisor (as in tests) need no stub.
type Stats struct {
	sessions     atomic.Int64
	authOK       atomic.Int64
	authDenied   atomic.Int64
	dialFailures atomic.Int64
}

func (s *Stats) sessionStarted() {
	if s != nil {
		s.sessions.Add(1)
	}
}

func (s *Stats) authSucceeded() {
	if s != nil {
		s.authOK.Add(1)
	}
}

func (s *Stats) authDeniedInc() {
	if s != nil {
		s.authDenied.Add(1)
	}
}

func (s *Stats) dialFailed() {
	if s != nil {
		s.dialFailures.Add(1)
	}
}

// Log emits the route's lifetime counters.
func (s *Stats) Log(proto Protocol) {
	if s == nil {
		return
	}
	logging.Stats("%s: sessions=%d auth_ok=%d auth_denied=%d dial_failures=%d",
		proto, s.sessions.Load(), s.authOK.Load(), s.authDenied.Load(), s.dialFailures.Load())
}
