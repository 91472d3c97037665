package wsserver

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Frame formats a spectator can ask for with ?format=.
const (
	FormatProto = "proto"
	FormatJSON  = "json"
)

// Stats is what /healthz reports.
type Stats struct {
	Players   int    `json:"players"`
	FreeSlots int    `json:"free_slots"`
	Tick      uint64 `json:"tick"`
}

// StatsFunc reports the current server stats.
type StatsFunc func() Stats

// Spectator is one read-only WebSocket viewer.
type Spectator struct {
	ID        string
	Conn      *websocket.Conn
	Format    string
	SendQueue chan []byte

	done chan struct{}
	once sync.Once
}

func (s *Spectator) close() {
	s.once.Do(func() {
		close(s.done)
		s.Conn.Close()
	})
}

// Hub fans tick snapshots out to spectators.
type Hub struct {
	Upgrader   websocket.Upgrader
	Spectators map[string]*Spectator
	Mu         sync.Mutex

	stats     StatsFunc
	queueSize int
	closed    bool // set by CloseAll; later upgrades are dropped
}
