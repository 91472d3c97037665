package tcpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/mo-shahab/quadpong/client"
	"github.com/mo-shahab/quadpong/config"
	"github.com/mo-shahab/quadpong/game"
	"github.com/mo-shahab/quadpong/logger"
	"github.com/mo-shahab/quadpong/position"
	"github.com/mo-shahab/quadpong/protocol"
	"github.com/mo-shahab/quadpong/room"
	"github.com/mo-shahab/quadpong/wsserver"
)

// acceptBackoff is the pause after a temporary accept error.
const acceptBackoff = 50 * time.Millisecond

// Server is the authoritative game server: the position pool, the
// simulation, the slot table, the accept loop and the broadcast loop.
type Server struct {
	cfg  *config.Config
	pool *position.Pool
	sim  *game.Simulation
	room *room.Room
	loop *game.Loop
	hub  *wsserver.Hub

	mu       sync.Mutex
	ln       net.Listener
	ready    chan struct{}
	sessions map[*client.Client]struct{}
	closing  bool
	wg       sync.WaitGroup
}

// New builds a server from cfg. Nothing is bound until Serve or
// ListenAndServe.
func New(cfg *config.Config) *Server {
	s := &Server{
		cfg:      cfg,
		pool:     position.NewPool(),
		sim:      game.NewSimulation(game.ScreenWidth, game.ScreenHeight),
		room:     room.New(),
		ready:    make(chan struct{}),
		sessions: make(map[*client.Client]struct{}),
	}
	s.hub = wsserver.NewHub(s.Stats, cfg.SendQueueSize)
	s.loop = game.NewLoop(s.sim, s, cfg.TickInterval())
	return s
}

func (s *Server) Simulation() *game.Simulation { return s.sim }
func (s *Server) Room() *room.Room             { return s.room }
func (s *Server) Pool() *position.Pool         { return s.pool }
func (s *Server) Spectators() *wsserver.Hub    { return s.hub }
func (s *Server) Loop() *game.Loop             { return s.loop }

// Stats summarizes the server for the health endpoint.
func (s *Server) Stats() wsserver.Stats {
	return wsserver.Stats{
		Players:   s.room.Len(),
		FreeSlots: s.pool.Available(),
		Tick:      s.sim.Snapshot().Tick,
	}
}

// Addr blocks until Serve has a listener and returns its address.
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.ln.Addr()
}

// ListenAndServe binds the player address, and the spectator address when
// one is configured, then serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return &protocol.ConnectError{Op: "listen", Addr: s.cfg.ListenAddr, Err: err}
	}

	if s.cfg.SpectatorAddr != "" {
		sln, err := net.Listen("tcp", s.cfg.SpectatorAddr)
		if err != nil {
			ln.Close()
			return &protocol.ConnectError{Op: "listen", Addr: s.cfg.SpectatorAddr, Err: err}
		}
		go func() {
			if err := s.hub.Serve(ctx, sln); err != nil {
				logger.Error("spectator feed stopped", "error", err)
			}
		}()
	}

	return s.Serve(ctx, ln)
}

// Serve accepts players on ln until ctx is cancelled. In one-shot mode the
// listener is closed as soon as the last position is taken, but Serve keeps
// running the game for the players already in. On return every session is
// closed and the broadcast loop has stopped.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	close(s.ready)

	logger.Info("server started", "addr", ln.Addr().String(), "recycle_slots", s.cfg.RecycleSlots, "tick_rate", s.cfg.TickRate)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	err := s.acceptLoop(ctx, ln)
	if err == nil {
		<-ctx.Done()
	}

	cancel()
	s.shutdown()
	return err
}

// acceptLoop returns nil when the listener is closed on purpose, either
// because the pool ran out or because ctx was cancelled.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for s.cfg.RecycleSlots || !s.pool.Exhausted() {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.Warn("accept error, retrying", "error", err)
				time.Sleep(acceptBackoff)
				continue
			}
			logger.Error("accept failed", "error", err)
			return err
		}

		logger.Info("greeting new player", "remote", conn.RemoteAddr().String())
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}

	logger.Info("no longer accepting players")
	return nil
}

// stopAccepting closes the player listener. Connected players are not
// affected.
func (s *Server) stopAccepting() {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
}

// track records a session so shutdown can close it. It reports false when
// the server is already shutting down.
func (s *Server) track(c *client.Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.sessions[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *client.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, c)
}

func (s *Server) shutdown() {
	s.mu.Lock()
	s.closing = true
	open := make([]*client.Client, 0, len(s.sessions))
	for c := range s.sessions {
		open = append(open, c)
	}
	s.mu.Unlock()

	for _, c := range open {
		c.Close(context.Canceled)
	}
	s.wg.Wait()

	if s.loop.Started() {
		<-s.loop.Done()
	}
	s.hub.CloseAll()
	logger.Info("server stopped")
}
