// Package bot is a headless player: it speaks the player protocol without
// drawing anything. Tests and the pongbot command use it.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mo-shahab/quadpong/game"
	"github.com/mo-shahab/quadpong/position"
	"github.com/mo-shahab/quadpong/protocol"
)

// ErrRejected means the server closed the connection instead of assigning a
// position.
var ErrRejected = errors.New("server rejected the player")

// maxStateLine is generous: a full state line is well under 1 KiB.
const maxStateLine = 64 * 1024

type Client struct {
	name   string
	pos    position.Position
	conn   net.Conn
	reader *protocol.LineReader
	wmu    sync.Mutex
}

// Dial connects to addr, sends name and waits for the assigned position.
func Dial(ctx context.Context, addr, name string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &protocol.ConnectError{Op: "dial", Addr: addr, Err: err}
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c := &Client{
		name:   name,
		conn:   conn,
		reader: protocol.NewLineReader(conn, maxStateLine),
	}

	if _, err := conn.Write(protocol.Frame(name)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send name: %w", err)
	}

	line, err := c.reader.ReadLine()
	if err != nil {
		conn.Close()
		if protocol.IsDisconnect(err) {
			return nil, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return nil, err
	}

	pos, err := position.Parse(string(line))
	if err != nil {
		conn.Close()
		return nil, &protocol.DecodeError{What: "position", Payload: string(line), Err: err}
	}
	c.pos = pos

	conn.SetDeadline(time.Time{})
	return c, nil
}

func (c *Client) Name() string                { return c.name }
func (c *Client) Position() position.Position { return c.pos }

// Move sends one movement command.
func (c *Client) Move(direction int) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.conn.Write(protocol.EncodeCommand(direction)); err != nil {
		return &protocol.DisconnectError{Op: "write", Err: err}
	}
	return nil
}

// SendRaw writes b unmodified. It exists to exercise the server with
// malformed input.
func (c *Client) SendRaw(b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write(b)
	return err
}

// Next reads and decodes the next state line.
func (c *Client) Next() (game.Snapshot, error) {
	line, err := c.reader.ReadLine()
	if err != nil {
		return game.Snapshot{}, err
	}
	snap, err := game.DecodeState(line)
	if err != nil {
		return game.Snapshot{}, &protocol.DecodeError{What: "state", Payload: string(line), Err: err}
	}
	return snap, nil
}

// SetReadDeadline bounds the next Next call.
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
