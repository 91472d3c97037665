package tcpserver

import (
	"github.com/mo-shahab/quadpong/game"
)

// Broadcast implements game.Broadcaster: every active player and every
// spectator gets the same frame for a tick. A slow or broken recipient only
// loses its own copy.
func (s *Server) Broadcast(snap game.Snapshot, frame []byte) {
	for _, c := range s.room.Clients() {
		c.Send(frame)
	}
	s.hub.Broadcast(snap, frame)
}
