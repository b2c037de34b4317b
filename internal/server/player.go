package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"imaginarium-server/internal/resources"
)

type Role string

const (
	RoleMaster Role = "MASTER"
	RolePlayer Role = "PLAYER"
)

// State is a position in the per-player protocol state machine.
type State int

const (
	VerCheck State = iota
	VerWait
	StartWait
	BeginSync
	ReadyWait
	TurnSync
	WaitAssoc
	WaitSelfCard
	SelfSync
	WaitVote
	VoteSync
	WaitNextTurn
	SyncNextTurn
)

var stateString = map[State]string{
	VerCheck:     "VER_CHECK",
	VerWait:      "VER_WAIT",
	StartWait:    "START_WAIT",
	BeginSync:    "BEGIN_SYNC",
	ReadyWait:    "READY_WAIT",
	TurnSync:     "TURN_SYNC",
	WaitAssoc:    "WAIT_ASSOC",
	WaitSelfCard: "WAIT_SELF_CARD",
	SelfSync:     "SELF_SYNC",
	WaitVote:     "WAIT_VOTE",
	VoteSync:     "VOTE_SYNC",
	WaitNextTurn: "WAIT_NEXT_TURN",
	SyncNextTurn: "SYNC_NEXT_TURN",
}

func (s State) String() string {
	return stateString[s]
}

// Player is the per-connection session state: identity, protocol state,
// hand, turn data, score and the outbound queue. The roster owns every
// player and serializes access through its lock.
type Player struct {
	conn   *Conn
	roster *Roster

	Number       int
	Name         string
	Role         Role
	State        State
	Score        int
	Cards        []int
	CurrentCard  int
	SelectedCard int
	HasTurn      bool
	Broadcast    bool // completed handshake, receives broadcast messages

	valid  bool
	buffer []string
}

func newPlayer(conn *Conn, role Role, number int, roster *Roster) *Player {
	return &Player{
		conn:         conn,
		roster:       roster,
		Number:       number,
		Name:         "Player",
		Role:         role,
		State:        VerCheck,
		CurrentCard:  -1,
		SelectedCard: -1,
		valid:        true,
	}
}

// Valid reports whether the player still participates in barriers and
// broadcasts.
func (p *Player) Valid() bool {
	return p.valid && p.conn.Healthy()
}

func (p *Player) Invalidate() {
	p.valid = false
}

// Stop disconnects the player. Invalidation is cooperative: the roster
// sweep flushes the queue first and then calls Stop.
func (p *Player) Stop() {
	p.valid = false
	p.conn.Close()
}

// Queue appends one outbound message. The event loop performs the send.
func (p *Player) Queue(message string) {
	p.buffer = append(p.buffer, message)
}

func (p *Player) HasPending() bool {
	return len(p.buffer) > 0
}

// FlushOne sends the oldest queued message.
func (p *Player) FlushOne() {
	if len(p.buffer) == 0 {
		return
	}
	p.conn.Send(p.buffer[0])
	p.buffer = p.buffer[1:]
}

// FlushAll drains the queue, used before teardown.
func (p *Player) FlushAll() {
	for len(p.buffer) > 0 {
		p.FlushOne()
	}
}

// HandleMessage consumes one complete message from the connection and runs
// the protocol state machine. Any out-of-state or malformed message
// invalidates the player; the one recoverable case is a malformed clue,
// which rewinds the whole roster to TURN_SYNC.
func (p *Player) HandleMessage(session *SessionState) {
	line, ok := p.conn.Receive()
	if !ok {
		return
	}
	tokens := strings.Fields(line)

	switch p.State {
	case VerWait:
		if len(tokens) != 2 || tokens[0] != "OK" {
			p.Invalidate()
			p.logf("version check failed")
			return
		}
		p.Name = tokens[1]
		p.Broadcast = true
		p.roster.broadcastPlayerList()
		p.State = StartWait

	case StartWait:
		if p.Role != RoleMaster {
			p.Invalidate()
			p.logf("received START_GAME from non-master")
			return
		}
		if len(tokens) != 2 || tokens[0] != "START_GAME" {
			p.Invalidate()
			p.logf("expected START_GAME message")
			return
		}
		session.StartGame(tokens[1])
		p.State = BeginSync

	case ReadyWait:
		if len(tokens) != 1 || tokens[0] != "READY" {
			p.Invalidate()
			p.logf("did not receive READY")
			return
		}
		p.State = TurnSync

	case WaitAssoc:
		if !p.HasTurn {
			p.Invalidate()
			p.logf("received clue from player without the turn")
			return
		}
		card, err := parseCard(tokens, "TURN", 3)
		if err != nil {
			p.Invalidate()
			for _, other := range p.roster.valid() {
				other.State = TurnSync
			}
			p.logf("expected clue message")
			return
		}
		p.CurrentCard = card
		p.SelectedCard = -1
		for _, other := range p.roster.valid() {
			other.State = WaitSelfCard
		}
		p.roster.broadcastMessage("ASSOC " + strings.Join(tokens[2:], " "))

	case WaitSelfCard:
		if p.HasTurn {
			p.Invalidate()
			p.logf("received unexpected message")
			return
		}
		card, err := parseCard(tokens, "CARD", 2)
		if err != nil {
			p.Invalidate()
			p.logf("expected CARD message")
			return
		}
		p.CurrentCard = card
		p.roster.broadcastSubmitted(p)
		p.State = SelfSync

	case WaitVote:
		if p.HasTurn {
			p.Invalidate()
			p.logf("received unexpected message")
			return
		}
		card, err := parseCard(tokens, "CARD", 2)
		if err != nil {
			p.Invalidate()
			p.logf("expected CARD message")
			return
		}
		p.SelectedCard = card
		p.State = VoteSync

	case WaitNextTurn:
		if len(tokens) != 1 || tokens[0] != "NEXT_TURN" {
			p.Invalidate()
			p.logf("expected NEXT_TURN message")
			return
		}
		p.State = SyncNextTurn

	default:
		p.Invalidate()
		p.logf("message in state %s", p.State)
	}
}

// parseCard validates a `<verb> <card-id> ...` message with at least
// minTokens fields and returns the card id.
func parseCard(tokens []string, verb string, minTokens int) (int, error) {
	if len(tokens) < minTokens || tokens[0] != verb {
		return 0, fmt.Errorf("expected %s message", verb)
	}
	card, err := strconv.Atoi(tokens[1])
	if err != nil || card < 0 {
		return 0, fmt.Errorf("bad card id %q", tokens[1])
	}
	return card, nil
}

// AdvanceState runs the entry actions that need no client input: the
// version greeting, the reaction to the game starting, and the
// storyteller's automatic pass through the submission and vote states.
func (p *Player) AdvanceState(session *SessionState, res *resources.Info) {
	if p.State == VerCheck {
		p.Queue(fmt.Sprintf("VERSION %d %s %s %s", p.Number, p.Role, res.Name, res.Link))
		p.State = VerWait
	}
	playing := session.Phase() == PhasePlaying
	if p.State == StartWait && playing {
		p.State = BeginSync
	}
	if p.State == VerWait && playing {
		// Joined too late to finish the handshake.
		p.Invalidate()
	}
	if p.State == WaitSelfCard && p.HasTurn {
		p.State = SelfSync
		p.roster.broadcastSubmitted(p)
	}
	if p.State == WaitVote && p.HasTurn {
		p.State = VoteSync
	}
}

func (p *Player) logf(format string, args ...any) {
	log.Info().Int("player", p.Number).Str("name", p.Name).Msgf(format, args...)
}
