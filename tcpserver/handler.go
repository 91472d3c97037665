package tcpserver

import (
	"context"
	"errors"
	"net"

	"github.com/mo-shahab/quadpong/client"
	"github.com/mo-shahab/quadpong/logger"
	"github.com/mo-shahab/quadpong/position"
	"github.com/mo-shahab/quadpong/protocol"
)

// handleConn runs one session from handshake to disconnect.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	c := client.New(conn, s.cfg.SendQueueSize, s.cfg.MaxLineBytes)
	if !s.track(c) {
		c.Close(context.Canceled)
		return
	}
	defer s.untrack(c)

	log := c.Logger()

	name, err := c.ReadName(s.cfg.HandshakeTimeout)
	if err != nil {
		log.Warn("handshake failed", "error", err)
		c.Close(err)
		return
	}

	pos, ok := s.pool.Acquire()
	if !ok {
		log.Warn("rejecting player, all positions taken", "name", name)
		c.Close(protocol.ErrPoolExhausted)
		return
	}
	if !s.cfg.RecycleSlots && s.pool.Exhausted() {
		logger.Info("all positions taken")
		s.stopAccepting()
	}

	if err := c.Activate(pos); err != nil {
		log.Warn("join acknowledgment failed", "error", err)
		s.releaseUnjoined(pos)
		c.Close(err)
		return
	}
	log = c.Logger()

	// Occupy first so the player's own paddle is in the first state it
	// receives.
	s.sim.Occupy(pos)
	if err := s.room.Add(c); err != nil {
		log.Error("slot table rejected player", "error", err)
		s.sim.Vacate(pos)
		c.Close(err)
		return
	}
	log.Info("player joined", "players", s.room.Len())

	s.loop.Start(ctx)

	err = c.Listen(s.cfg.IdleTimeout, func(direction int) error {
		return s.sim.MovePaddle(pos, direction)
	})
	s.disconnect(c, err)
}

// releaseUnjoined returns a position whose player never finished joining.
// One-shot positions are spent once acquired, since the acceptor may
// already be closed.
func (s *Server) releaseUnjoined(pos position.Position) {
	if s.cfg.RecycleSlots {
		s.pool.Release(pos)
	}
}

// disconnect closes c and frees its place in the game. Its position goes
// back to the pool only when slot recycling is on.
func (s *Server) disconnect(c *client.Client, reason error) {
	c.Close(reason)
	if cause := c.Err(); cause != nil {
		reason = cause
	}

	if !s.room.Remove(c) {
		return
	}
	s.sim.Vacate(c.Position)
	if s.cfg.RecycleSlots {
		s.pool.Release(c.Position)
	}

	log := c.Logger()
	switch {
	case errors.Is(reason, context.Canceled):
		log.Info("session closed by server shutdown")
	case protocol.IsDecode(reason):
		log.Warn("invalid command, closing session", "error", reason)
	case protocol.IsDisconnect(reason):
		log.Info("player disconnected", "reason", reason, "players", s.room.Len())
	default:
		log.Error("session ended", "error", reason)
	}
}
