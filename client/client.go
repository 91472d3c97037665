package client

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mo-shahab/quadpong/logger"
	"github.com/mo-shahab/quadpong/position"
	"github.com/mo-shahab/quadpong/protocol"
)

// State is a session's lifecycle stage.
type State int32

const (
	Connecting State = iota
	Active
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	case Disconnected:
		return "disconnected"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// writeWait bounds a single write to a slow player.
const writeWait = 5 * time.Second

// Client is one connected player: the server side of a TCP connection from
// handshake to disconnect.
type Client struct {
	ID        string
	Name      string
	Position  position.Position
	Conn      net.Conn
	SendQueue chan []byte

	reader *protocol.LineReader
	state  atomic.Int32
	done   chan struct{}
	once   sync.Once
	err    error
	log    *slog.Logger
}

// New wraps conn in a Connecting session. queueSize bounds the outbound
// queue and maxLine bounds every inbound line.
func New(conn net.Conn, queueSize, maxLine int) *Client {
	id := uuid.New().String()
	return &Client{
		ID:        id,
		Conn:      conn,
		SendQueue: make(chan []byte, queueSize),
		reader:    protocol.NewLineReader(conn, maxLine),
		done:      make(chan struct{}),
		log:       logger.With("session", id[:8], "remote", conn.RemoteAddr().String()),
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

// Done is closed when the session is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err is the reason the session closed, nil while it is open or when it
// closed cleanly.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Client) Logger() *slog.Logger {
	return c.log
}

// ReadName reads the handshake line. A zero timeout waits forever.
func (c *Client) ReadName(timeout time.Duration) (string, error) {
	if timeout > 0 {
		c.Conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.Conn.SetReadDeadline(time.Time{})
	}

	line, err := c.reader.ReadLine()
	if err != nil {
		return "", err
	}
	name, err := protocol.DecodeName(line)
	if err != nil {
		return "", err
	}
	c.Name = name
	return name, nil
}

// Activate acknowledges the join by writing the position name, marks the
// session Active and starts its writer. The acknowledgment is written
// before anything queued, so it is always the first line a player sees.
func (c *Client) Activate(pos position.Position) error {
	c.Position = pos
	c.log = c.log.With("name", c.Name, "position", pos.String())

	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	_, err := c.Conn.Write(protocol.Frame(pos.String()))
	c.Conn.SetWriteDeadline(time.Time{})
	if err != nil {
		return &protocol.DisconnectError{Op: "write", Err: err}
	}

	if !c.state.CompareAndSwap(int32(Connecting), int32(Active)) {
		return &protocol.DisconnectError{Op: "activate", Err: net.ErrClosed}
	}

	go c.writePump()
	return nil
}

// Send queues frame for delivery without blocking. It reports false when
// the session is not active or its queue is full; a full queue drops the
// frame for this player only.
func (c *Client) Send(frame []byte) bool {
	if c.State() != Active {
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.SendQueue <- frame:
		return true
	default:
		c.log.Debug("dropping message, send queue full")
		return false
	}
}

func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.SendQueue:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := c.Conn.Write(msg); err != nil {
				c.Close(&protocol.DisconnectError{Op: "write", Err: err})
				return
			}
		}
	}
}

// Listen reads movement commands until the connection ends and hands each
// decoded direction to apply. A zero idle timeout waits forever between
// commands. It always returns a non-nil error: a DisconnectError for EOF,
// I/O failure or idle timeout, a DecodeError for a bad command, or whatever
// apply returned.
func (c *Client) Listen(idle time.Duration, apply func(direction int) error) error {
	for {
		if idle > 0 {
			c.Conn.SetReadDeadline(time.Now().Add(idle))
		}

		line, err := c.reader.ReadLine()
		if err != nil {
			return err
		}

		direction, err := protocol.DecodeCommand(line)
		if err != nil {
			return err
		}

		if err := apply(direction); err != nil {
			return err
		}
	}
}

// Close ends the session. Only the first call has any effect; reason is
// kept as Err.
func (c *Client) Close(reason error) {
	c.once.Do(func() {
		c.err = reason
		c.state.Store(int32(Disconnected))
		close(c.done)
		c.Conn.Close()
	})
}
