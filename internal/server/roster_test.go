package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test: the first joiner holds MASTER, everyone after is PLAYER
// Why: at most one master may ever exist in a session
func TestRosterMasterAssignment(t *testing.T) {
	r, _ := newTestRoster()

	first := addTestPlayer(t, r)
	second := addTestPlayer(t, r)
	third := addTestPlayer(t, r)

	assert.Equal(t, RoleMaster, first.Role)
	assert.Equal(t, RolePlayer, second.Role)
	assert.Equal(t, RolePlayer, third.Role)

	masters := 0
	for _, p := range r.players {
		if p.Role == RoleMaster {
			masters++
		}
	}
	assert.Equal(t, 1, masters)
}

// Test: sequence numbers are unique and increasing
func TestRosterSequenceNumbers(t *testing.T) {
	r, _ := newTestRoster()

	for i := 0; i < 5; i++ {
		p := addTestPlayer(t, r)
		assert.Equal(t, i, p.Number)
	}
}

// Test: nextValid walks the join order circularly and skips invalid
// players
func TestRosterNextValid(t *testing.T) {
	r, _ := newTestRoster()
	a := addTestPlayer(t, r)
	b := addTestPlayer(t, r)
	c := addTestPlayer(t, r)

	assert.Same(t, b, r.nextValid(a))
	assert.Same(t, c, r.nextValid(b))
	assert.Same(t, a, r.nextValid(c))

	b.Invalidate()
	assert.Same(t, c, r.nextValid(a))
	assert.Same(t, a, r.nextValid(c))
}

// Test: a full rotation never repeats a player or yields an invalid one
func TestRosterRotationNoRepeats(t *testing.T) {
	r, _ := newTestRoster()
	for i := 0; i < 5; i++ {
		addTestPlayer(t, r)
	}
	r.players[2].Invalidate()

	seen := make(map[*Player]bool)
	current := r.players[0]
	for i := 0; i < len(r.valid())-1; i++ {
		current = r.nextValid(current)
		assert.True(t, current.Valid())
		assert.False(t, seen[current], "player yielded twice within one rotation")
		seen[current] = true
	}
}

// Test: nextValid gives up once no valid player remains
func TestRosterNextValidExhausted(t *testing.T) {
	r, _ := newTestRoster()
	a := addTestPlayer(t, r)
	b := addTestPlayer(t, r)
	a.Invalidate()
	b.Invalidate()

	assert.Nil(t, r.nextValid(a))
}

// Test: the sweep removes invalidated players and refreshes the list
func TestRosterSweep(t *testing.T) {
	r, session := newTestRoster()
	master := addTestPlayer(t, r)
	gone := addTestPlayer(t, r)
	stays := addTestPlayer(t, r)
	for _, p := range []*Player{master, gone, stays} {
		p.Broadcast = true
	}

	gone.Invalidate()
	r.sweepDead()

	assert.Len(t, r.players, 2)
	assert.Equal(t, PhaseConnecting, session.Phase())
	assert.Contains(t, stays.buffer, "PLAYER_LIST 0;Player,2;Player")
}

// Test: sweeping twice with nothing newly invalid changes nothing
// Why: the sweep runs every iteration and must be idempotent
func TestRosterSweepIdempotent(t *testing.T) {
	r, _ := newTestRoster()
	master := addTestPlayer(t, r)
	gone := addTestPlayer(t, r)
	master.Broadcast = true

	gone.Invalidate()
	r.sweepDead()
	buffered := len(master.buffer)

	r.sweepDead()

	assert.Len(t, r.players, 1)
	assert.Len(t, master.buffer, buffered, "no duplicate broadcast")
}

// Test: losing the master while connecting aborts the session
func TestRosterMasterLossAborts(t *testing.T) {
	r, session := newTestRoster()
	master := addTestPlayer(t, r)
	addTestPlayer(t, r)

	master.Invalidate()
	r.sweepDead()

	assert.Equal(t, PhaseError, session.Phase())
}

// Test: losing the master mid-game does not abort
func TestRosterMasterLossInGame(t *testing.T) {
	r, session := newTestRoster()
	master := addTestPlayer(t, r)
	addTestPlayer(t, r)
	session.StartGame("0")

	master.Invalidate()
	r.sweepDead()

	assert.Equal(t, PhasePlaying, session.Phase())
}

// Test: broadcasts skip players that have not finished the handshake
func TestRosterBroadcastEligibility(t *testing.T) {
	r, _ := newTestRoster()
	done := addTestPlayer(t, r)
	fresh := addTestPlayer(t, r)
	done.Broadcast = true

	r.broadcastMessage("TURN 0")

	assert.Contains(t, done.buffer, "TURN 0")
	assert.Empty(t, fresh.buffer)
}

// Test: Snapshot reflects only valid players
func TestRosterSnapshot(t *testing.T) {
	r, _ := newTestRoster()
	a := addTestPlayer(t, r)
	b := addTestPlayer(t, r)
	a.Name = "Alice"
	a.Score = 7
	b.Invalidate()

	rows := r.Snapshot()

	assert.Len(t, rows, 1)
	assert.Equal(t, PlayerInfo{Number: 0, Name: "Alice", Score: 7, Master: true}, rows[0])
}
