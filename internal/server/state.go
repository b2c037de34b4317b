package server

import (
	"github.com/sasha-s/go-deadlock"
)

type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhasePlaying    Phase = "playing"
	PhaseError      Phase = "error"
	PhaseShutdown   Phase = "shutdown"
)

// SessionState is the shared phase/card-set record. It is written by the
// event loop and the admin console, so every access goes through the lock.
type SessionState struct {
	mu      deadlock.Mutex
	phase   Phase
	cardSet string
}

func NewSessionState() *SessionState {
	return &SessionState{
		phase:   PhaseConnecting,
		cardSet: "0",
	}
}

func (s *SessionState) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *SessionState) SetPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

func (s *SessionState) CardSet() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardSet
}

// StartGame moves the session into the playing phase. It reports false if
// the session is not accepting players.
func (s *SessionState) StartGame(cardSet string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseConnecting {
		return false
	}
	s.cardSet = cardSet
	s.phase = PhasePlaying
	return true
}

// Reset prepares the state for the next session. A pending shutdown
// request survives the reset.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseShutdown {
		return
	}
	s.phase = PhaseConnecting
	s.cardSet = "0"
}
