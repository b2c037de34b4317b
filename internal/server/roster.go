package server

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// Roster owns all players of one session. The event loop holds mu for the
// whole of every iteration; the admin console goes through the locking
// accessors at the bottom of this file. Everything else in this file
// assumes the caller already holds mu.
type Roster struct {
	mu      deadlock.Mutex
	players []*Player
	conns   map[*Conn]*Player
	session *SessionState

	haveMaster bool
	seq        int
}

// PlayerInfo is a read-only roster row for the admin console.
type PlayerInfo struct {
	Number int
	Name   string
	Score  int
	Master bool
}

func NewRoster(session *SessionState) *Roster {
	return &Roster{
		conns:   make(map[*Conn]*Player),
		session: session,
	}
}

// add seats a new connection. The first player of a session becomes the
// master; sequence numbers are unique within the session.
func (r *Roster) add(conn *Conn) *Player {
	role := RolePlayer
	if !r.haveMaster {
		role = RoleMaster
		r.haveMaster = true
	}
	p := newPlayer(conn, role, r.seq, r)
	r.seq++
	r.players = append(r.players, p)
	r.conns[conn] = p
	return p
}

// valid returns the currently valid players in join order.
func (r *Roster) valid() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

// nextValid returns the circular successor of from among valid players,
// probing at most twice around the table.
func (r *Roster) nextValid(from *Player) *Player {
	idx := 0
	for i, p := range r.players {
		if p == from {
			idx = i
			break
		}
	}
	for probes := 0; probes < 2*len(r.players); probes++ {
		idx++
		if idx >= len(r.players) {
			idx = 0
		}
		if r.players[idx].Valid() {
			return r.players[idx]
		}
	}
	return nil
}

// sweepDead removes invalidated players: pending output is flushed first,
// then the socket is torn down. Losing the master while still connecting
// aborts the session.
func (r *Roster) sweepDead() {
	removed := false
	kept := r.players[:0]
	for _, p := range r.players {
		if p.Valid() {
			kept = append(kept, p)
			continue
		}
		p.FlushAll()
		p.Stop()
		delete(r.conns, p.conn)
		if p.Role == RoleMaster && r.session.Phase() == PhaseConnecting {
			r.session.SetPhase(PhaseError)
		}
		log.Info().Int("player", p.Number).Str("name", p.Name).Msg("player removed")
		removed = true
	}
	r.players = kept
	if removed && r.session.Phase() == PhaseConnecting {
		r.broadcastPlayerList()
	}
}

// stopAll flushes and disconnects every player and empties the roster.
func (r *Roster) stopAll() {
	for _, p := range r.players {
		p.FlushAll()
		p.Stop()
	}
	r.players = nil
	r.conns = make(map[*Conn]*Player)
}

// reset prepares the roster for the next session.
func (r *Roster) reset() {
	r.players = nil
	r.conns = make(map[*Conn]*Player)
	r.haveMaster = false
	r.seq = 0
}

// broadcastMessage queues a message for every handshaked valid player.
func (r *Roster) broadcastMessage(message string) {
	for _, p := range r.valid() {
		if p.Broadcast {
			p.Queue(message)
		}
	}
}

// playerListDigest renders the `number;name` csv of handshaked players.
func (r *Roster) playerListDigest() string {
	var entries []string
	for _, p := range r.valid() {
		if p.Broadcast {
			entries = append(entries, fmt.Sprintf("%d;%s", p.Number, p.Name))
		}
	}
	return strings.Join(entries, ",")
}

func (r *Roster) broadcastPlayerList() {
	r.broadcastMessage("PLAYER_LIST " + r.playerListDigest())
}

// broadcastSubmitted announces that a player placed their card.
func (r *Roster) broadcastSubmitted(p *Player) {
	r.broadcastMessage(fmt.Sprintf("PLAYER %d", p.Number))
}

// Snapshot returns roster rows for the console, taken under the lock.
func (r *Roster) Snapshot() []PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.valid() {
		rows = append(rows, PlayerInfo{
			Number: p.Number,
			Name:   p.Name,
			Score:  p.Score,
			Master: p.Role == RoleMaster,
		})
	}
	return rows
}

// CountValid is the locking counterpart of len(valid()) for callers
// outside the iteration body.
func (r *Roster) CountValid() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.valid())
}
