package wsserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mo-shahab/quadpong/game"
	"github.com/mo-shahab/quadpong/logger"
)

const writeWait = 5 * time.Second

// NewHub creates a spectator hub. stats may be nil.
func NewHub(stats StatsFunc, queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Hub{
		Upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		Spectators: make(map[string]*Spectator),
		stats:      stats,
		queueSize:  queueSize,
	}
}

// Handler routes /spectate and /healthz.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/spectate", h)
	mux.HandleFunc("/healthz", h.serveHealth)
	return mux
}

func (h *Hub) serveHealth(w http.ResponseWriter, r *http.Request) {
	var st Stats
	if h.stats != nil {
		st = h.stats()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

// ServeHTTP upgrades a spectator connection and serves it until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "":
		format = FormatProto
	case FormatProto, FormatJSON:
	default:
		http.Error(w, "format must be proto or json", http.StatusBadRequest)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("spectator upgrade failed", "error", err)
		return
	}

	s := &Spectator{
		ID:        uuid.New().String(),
		Conn:      conn,
		Format:    format,
		SendQueue: make(chan []byte, h.queueSize),
		done:      make(chan struct{}),
	}

	h.Mu.Lock()
	if h.closed {
		h.Mu.Unlock()
		conn.Close()
		return
	}
	h.Spectators[s.ID] = s
	n := len(h.Spectators)
	h.Mu.Unlock()
	logger.Info("spectator joined", "spectator", s.ID[:8], "format", format, "spectators", n)

	go h.writePump(s)

	// Spectators never send anything meaningful; reading only detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.Debug("spectator read ended", "spectator", s.ID[:8], "error", err)
			h.remove(s)
			return
		}
	}
}

func (h *Hub) writePump(s *Spectator) {
	mt := websocket.BinaryMessage
	if s.Format == FormatJSON {
		mt = websocket.TextMessage
	}

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.SendQueue:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(mt, msg); err != nil {
				logger.Debug("spectator write error", "spectator", s.ID[:8], "error", err)
				h.remove(s)
				return
			}
		}
	}
}

func (h *Hub) remove(s *Spectator) {
	h.Mu.Lock()
	_, ok := h.Spectators[s.ID]
	delete(h.Spectators, s.ID)
	h.Mu.Unlock()

	s.close()
	if ok {
		logger.Info("spectator left", "spectator", s.ID[:8])
	}
}

// Count is the number of connected spectators.
func (h *Hub) Count() int {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return len(h.Spectators)
}

// Broadcast implements game.Broadcaster. JSON spectators get frame as is;
// binary spectators get one protobuf encoding shared across all of them.
func (h *Hub) Broadcast(snap game.Snapshot, frame []byte) {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	if len(h.Spectators) == 0 {
		return
	}

	var binary []byte
	for _, s := range h.Spectators {
		msg := frame
		if s.Format == FormatProto {
			if binary == nil {
				var err error
				if binary, err = EncodeProto(snap); err != nil {
					logger.Error("failed to encode spectator frame", "tick", snap.Tick, "error", err)
					return
				}
			}
			msg = binary
		}

		select {
		case s.SendQueue <- msg:
		default:
			logger.Debug("dropping message, spectator queue full", "spectator", s.ID[:8])
		}
	}
}

// CloseAll disconnects every spectator and turns away any later upgrade.
func (h *Hub) CloseAll() {
	h.Mu.Lock()
	h.closed = true
	specs := make([]*Spectator, 0, len(h.Spectators))
	for _, s := range h.Spectators {
		specs = append(specs, s)
	}
	h.Mu.Unlock()

	for _, s := range specs {
		h.remove(s)
	}
}
