package room

import (
	"fmt"
	"sync"

	"github.com/mo-shahab/quadpong/client"
	"github.com/mo-shahab/quadpong/position"
)

// Room is the slot table: the live sessions keyed by the position they hold.
type Room struct {
	mu      sync.Mutex
	clients map[position.Position]*client.Client
}

func New() *Room {
	return &Room{
		clients: make(map[position.Position]*client.Client, position.MaxPlayers),
	}
}

// Add registers c under its position. A position holds one session at a
// time.
func (r *Room) Add(c *client.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if held, ok := r.clients[c.Position]; ok {
		return fmt.Errorf("position %v already held by %s", c.Position, held.ID)
	}
	r.clients[c.Position] = c
	return nil
}

// Remove unregisters c. It reports false if c was not the session holding
// its position.
func (r *Room) Remove(c *client.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[c.Position] != c {
		return false
	}
	delete(r.clients, c.Position)
	return true
}

func (r *Room) Get(pos position.Position) (*client.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[pos]
	return c, ok
}

// Clients returns the live sessions in position order. The slice is a copy,
// safe to range over without the lock.
func (r *Room) Clients() []*client.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*client.Client, 0, len(r.clients))
	for _, pos := range position.All {
		if c, ok := r.clients[pos]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
