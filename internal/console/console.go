// Package console is the interactive administrative interface: it starts
// and stops sessions and inspects the roster while the event loop runs.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"imaginarium-server/internal/resources"
	"imaginarium-server/internal/server"
)

var promptColor = color.New(color.FgGreen, color.Bold)

type Console struct {
	srv *server.Server
	res *resources.Info
	in  io.Reader
	out io.Writer
}

func New(srv *server.Server, res *resources.Info, in io.Reader, out io.Writer) *Console {
	return &Console{
		srv: srv,
		res: res,
		in:  in,
		out: out,
	}
}

// Run reads commands until stop or end of input. It never touches the
// roster or session state except through their locking accessors.
func (c *Console) Run() {
	fmt.Fprintln(c.out, "console started")
	scanner := bufio.NewScanner(c.in)
	for {
		promptColor.Fprintf(c.out, "[%s]", c.srv.Session().Phase())
		fmt.Fprint(c.out, "$ ")
		if !scanner.Scan() {
			return
		}
		if c.dispatch(strings.Fields(scanner.Text())) {
			return
		}
	}
}

// dispatch runs one command line and reports whether the console is done.
func (c *Console) dispatch(cmdline []string) bool {
	if len(cmdline) == 0 {
		return false
	}
	switch cmdline[0] {
	case "help":
		c.commandHelp()
	case "players":
		c.commandPlayers()
	case "start":
		c.commandStart(cmdline)
	case "end":
		c.commandEnd()
	case "stop":
		c.commandStop()
		return true
	default:
		fmt.Fprintln(c.out, "error: unknown command")
	}
	return false
}

func (c *Console) commandHelp() {
	fmt.Fprintln(c.out, "commands:\n\nhelp\nplayers\nstart <card set>\nend\nstop")
}

func (c *Console) commandPlayers() {
	rows := c.srv.Roster().Snapshot()
	fmt.Fprintf(c.out, "%d player(s)\n", len(rows))
	if len(rows) == 0 {
		return
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 1, ' ', 0)
	fmt.Fprintln(w, "number\tname\tscore\t")
	for _, row := range rows {
		marker := ""
		if row.Master {
			marker = "master"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", row.Number, row.Name, row.Score, marker)
	}
	w.Flush()
}

func (c *Console) commandStart(cmdline []string) {
	if len(cmdline) != 2 {
		fmt.Fprintln(c.out, "error: expected start <card set>")
		if sets := c.res.Sets(); len(sets) > 0 {
			fmt.Fprintln(c.out, "card sets: "+strings.Join(sets, " "))
		}
		return
	}
	if !c.srv.StartSession(cmdline[1]) {
		fmt.Fprintln(c.out, "error: session is not accepting players")
		return
	}
	fmt.Fprintln(c.out, "starting game")
}

func (c *Console) commandEnd() {
	if !c.srv.EndRound() {
		fmt.Fprintln(c.out, "error: game is not started")
	}
}

func (c *Console) commandStop() {
	c.srv.RequestShutdown()
	fmt.Fprintln(c.out, "exit")
}
