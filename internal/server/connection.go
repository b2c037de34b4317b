package server

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	writeTimeout = 2 * time.Second
	inboxSize    = 16
)

// Conn wraps one player socket and frames the newline-delimited protocol.
// A reader goroutine accumulates complete lines into a bounded inbox; the
// event loop drains it with Receive. I/O failures never surface as errors,
// they flip the health flag so the loop can schedule the disconnect.
type Conn struct {
	sock      net.Conn
	inbox     chan string
	healthy   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	wake      chan<- struct{}
}

func newConn(sock net.Conn, wake chan<- struct{}) *Conn {
	c := &Conn{
		sock:  sock,
		inbox: make(chan string, inboxSize),
		done:  make(chan struct{}),
		wake:  wake,
	}
	c.healthy.Store(true)
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	scanner := bufio.NewScanner(c.sock)
	for scanner.Scan() {
		select {
		case c.inbox <- scanner.Text():
			c.poke()
		case <-c.done:
			return
		}
	}
	// EOF or transport error, either way the player is gone.
	c.healthy.Store(false)
	c.poke()
}

func (c *Conn) poke() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Receive returns one complete message if any is buffered.
func (c *Conn) Receive() (string, bool) {
	select {
	case line := <-c.inbox:
		return line, true
	default:
		return "", false
	}
}

// Pending reports whether a complete message is waiting in the inbox.
func (c *Conn) Pending() bool {
	return len(c.inbox) > 0
}

// Send writes one delimited message. Failures mark the connection
// unhealthy instead of propagating.
func (c *Conn) Send(message string) {
	if !c.healthy.Load() {
		return
	}
	c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := c.sock.Write([]byte(message + "\n")); err != nil {
		c.healthy.Store(false)
	}
}

func (c *Conn) Healthy() bool {
	return c.healthy.Load()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.sock.RemoteAddr()
}

// Close releases the socket. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.healthy.Store(false)
		c.sock.Close()
	})
}
