package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"imaginarium-server/internal/resources"
	"imaginarium-server/internal/server"
)

func runConsole(t *testing.T, srv *server.Server, script string) string {
	t.Helper()
	res := resources.NewInfo("pack", "link", map[string]int{"0": 50})
	var out bytes.Buffer
	New(srv, res, strings.NewReader(script), &out).Run()
	return out.String()
}

func newServer() *server.Server {
	return server.New(nil, resources.NewInfo("pack", "link", map[string]int{"0": 50}))
}

// Test: start moves the session into the playing phase
func TestConsoleStart(t *testing.T) {
	srv := newServer()

	out := runConsole(t, srv, "start 0\n")

	assert.Contains(t, out, "starting game")
	assert.Equal(t, server.PhasePlaying, srv.Session().Phase())
	assert.Equal(t, "0", srv.Session().CardSet())
}

// Test: start refuses outside the connecting phase
func TestConsoleStartTwice(t *testing.T) {
	srv := newServer()

	out := runConsole(t, srv, "start 0\nstart 0\n")

	assert.Contains(t, out, "error: session is not accepting players")
}

// Test: start without a card set prints usage and the known sets
func TestConsoleStartUsage(t *testing.T) {
	srv := newServer()

	out := runConsole(t, srv, "start\n")

	assert.Contains(t, out, "error: expected start <card set>")
	assert.Contains(t, out, "card sets: 0")
}

// Test: end is rejected before the game starts
func TestConsoleEndBeforeStart(t *testing.T) {
	srv := newServer()

	out := runConsole(t, srv, "end\n")

	assert.Contains(t, out, "error: game is not started")
}

// Test: stop requests shutdown and leaves the loop
func TestConsoleStop(t *testing.T) {
	srv := newServer()

	out := runConsole(t, srv, "stop\nplayers\n")

	assert.Contains(t, out, "exit")
	assert.NotContains(t, out, "player(s)", "console must exit after stop")
	assert.Equal(t, server.PhaseShutdown, srv.Session().Phase())
}

// Test: players renders the roster snapshot
func TestConsolePlayersEmpty(t *testing.T) {
	srv := newServer()

	out := runConsole(t, srv, "players\n")

	assert.Contains(t, out, "0 player(s)")
}

// Test: unknown commands do not end the console
func TestConsoleUnknownCommand(t *testing.T) {
	srv := newServer()

	out := runConsole(t, srv, "frobnicate\nhelp\n")

	assert.Contains(t, out, "error: unknown command")
	assert.Contains(t, out, "start <card set>")
}
