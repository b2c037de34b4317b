package server

import (
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"imaginarium-server/internal/resources"
)

const (
	// MaxPlayers is the largest table the deck supports.
	MaxPlayers = 7

	pollInterval = 500 * time.Millisecond
)

// Server drives the whole game: it owns the event loop goroutine, the
// roster, the session state and the round orchestrator. The admin console
// and the websocket ingress run on other goroutines and reach in only
// through the exported methods.
type Server struct {
	listener net.Listener
	session  *SessionState
	roster   *Roster
	orch     *Orchestrator
	res      *resources.Info
	resSrv   *resources.Server

	pending   chan net.Conn
	wake      chan struct{}
	sessionID int
}

func New(listener net.Listener, res *resources.Info) *Server {
	session := NewSessionState()
	roster := NewRoster(session)
	return &Server{
		listener: listener,
		session:  session,
		roster:   roster,
		orch:     NewOrchestrator(roster, session, res),
		res:      res,
		pending:  make(chan net.Conn, MaxPlayers),
		wake:     make(chan struct{}, 1),
	}
}

// AttachResourceServer hands over the pack download server whose
// lifecycle follows the session phase.
func (s *Server) AttachResourceServer(rs *resources.Server) {
	s.resSrv = rs
}

func (s *Server) Roster() *Roster        { return s.roster }
func (s *Server) Session() *SessionState { return s.session }

// Run accepts connections and cycles sessions until shutdown is
// requested. It blocks; the caller closes the listener to stop accepting.
func (s *Server) Run() {
	go s.acceptLoop()

	for s.session.Phase() != PhaseShutdown {
		s.session.Reset()
		if s.session.Phase() == PhaseShutdown {
			break
		}
		s.resetSession()
		log.Info().Int("session", s.sessionID).Msg("starting session")
		s.runSession()

		s.roster.mu.Lock()
		s.roster.stopAll()
		s.roster.mu.Unlock()
		log.Info().Int("session", s.sessionID).Msg("closing session")
		s.sessionID++
	}

	if s.resSrv != nil && s.resSrv.Active() {
		s.resSrv.Stop()
	}
}

func (s *Server) resetSession() {
	s.roster.mu.Lock()
	defer s.roster.mu.Unlock()
	s.roster.reset()
	s.orch.reset()
}

// runSession is the inner loop: one iteration per wake-up or poll tick,
// until the phase turns terminal or the table empties after game start.
func (s *Server) runSession() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		s.checkResourceServer()

		phase := s.session.Phase()
		if phase != PhaseConnecting && phase != PhasePlaying {
			log.Info().Str("phase", string(phase)).Msg("terminal phase, session over")
			return
		}
		if phase != PhaseConnecting && s.roster.CountValid() == 0 {
			log.Info().Msg("no players left in game, session over")
			return
		}

		select {
		case <-s.wake:
		case <-ticker.C:
		}

		s.iterate()
	}
}

// iterate is one pass of the multiplexing loop. The order is fixed:
// flush, then input dispatch (admissions included), then state
// auto-advance, then the barrier check, then the dead sweep. A
// just-invalidated storyteller must be seen before the orchestrator could
// stall on a broken barrier.
func (s *Server) iterate() {
	s.roster.mu.Lock()
	defer s.roster.mu.Unlock()

	for _, p := range s.roster.valid() {
		if p.HasPending() {
			p.FlushOne()
		}
	}

	for draining := true; draining; {
		select {
		case sock := <-s.pending:
			s.admit(sock)
		default:
			draining = false
		}
	}
	for _, p := range s.roster.valid() {
		p.HandleMessage(s.session)
	}

	for _, p := range s.roster.valid() {
		p.AdvanceState(s.session, s.res)
	}

	s.orch.Step()

	s.roster.sweepDead()

	// Leftover buffered output or input gets the next iteration started
	// without waiting out the poll interval.
	for _, p := range s.roster.valid() {
		if p.HasPending() || p.conn.Pending() {
			s.poke()
			break
		}
	}
}

// admit seats a pending connection, or rejects it when the session is not
// accepting or the table is full.
func (s *Server) admit(sock net.Conn) {
	if s.session.Phase() == PhaseConnecting && len(s.roster.valid()) < MaxPlayers {
		p := s.roster.add(newConn(sock, s.wake))
		log.Info().Int("player", p.Number).Str("remote", sock.RemoteAddr().String()).Msg("player connected")
		return
	}
	log.Info().Str("remote", sock.RemoteAddr().String()).Msg("connection rejected")
	sock.Close()
}

func (s *Server) acceptLoop() {
	for {
		sock, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error().Err(err).Msg("accept failed")
			continue
		}
		s.Enqueue(sock)
	}
}

// Enqueue hands a fresh connection to the event loop for admission. The
// websocket ingress uses it as well as the TCP accept loop.
func (s *Server) Enqueue(sock net.Conn) {
	select {
	case s.pending <- sock:
		s.poke()
	default:
		// Admission queue full; the table cannot seat it anyway.
		log.Info().Str("remote", sock.RemoteAddr().String()).Msg("connection rejected")
		sock.Close()
	}
}

func (s *Server) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Server) checkResourceServer() {
	if s.resSrv == nil {
		return
	}
	phase := s.session.Phase()
	if phase == PhaseConnecting && !s.resSrv.Active() {
		log.Info().Msg("starting resource server")
		s.resSrv.Start()
	}
	if phase != PhaseConnecting && s.resSrv.Active() {
		log.Info().Msg("stopping resource server")
		s.resSrv.Stop()
	}
}

// StartSession launches the game from the admin console.
func (s *Server) StartSession(cardSet string) bool {
	ok := s.session.StartGame(cardSet)
	if ok {
		s.poke()
	}
	return ok
}

// EndRound clears all hands and the shared deck, forcing end-of-game at
// the next replenish barrier.
func (s *Server) EndRound() bool {
	if s.session.Phase() != PhasePlaying {
		return false
	}
	s.roster.mu.Lock()
	for _, p := range s.roster.valid() {
		p.Cards = nil
	}
	s.orch.clearDeck()
	s.roster.mu.Unlock()
	s.poke()
	return true
}

// RequestShutdown asks the event loop to exit after the current session.
func (s *Server) RequestShutdown() {
	s.session.SetPhase(PhaseShutdown)
	s.poke()
}
