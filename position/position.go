package position

import (
	"fmt"
	"strings"
	"sync"
)

// Position is one of the four fixed screen slots a player can hold.
type Position int

const (
	Top Position = iota
	Bottom
	Left
	Right
)

// MaxPlayers is the number of positions, and so the player cap.
const MaxPlayers = 4

// All lists the positions in assignment order.
var All = [MaxPlayers]Position{Top, Bottom, Left, Right}

var names = [MaxPlayers]string{"TOP", "BOTTOM", "LEFT", "RIGHT"}

// String is the wire name sent in the join acknowledgment.
func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return names[p]
}

// Key is the lower-case name used as a snapshot key.
func (p Position) Key() string {
	return strings.ToLower(p.String())
}

func (p Position) Valid() bool {
	return p >= Top && p <= Right
}

// Horizontal reports whether the paddle at p moves along x.
func (p Position) Horizontal() bool {
	return p == Top || p == Bottom
}

// Parse accepts a wire name or snapshot key.
func Parse(s string) (Position, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == up {
			return Position(i), nil
		}
	}
	return 0, fmt.Errorf("unknown position %q", s)
}

// Pool hands out free positions in FIFO order.
type Pool struct {
	mu   sync.Mutex
	free []Position
}

func NewPool() *Pool {
	free := make([]Position, 0, MaxPlayers)
	free = append(free, All[:]...)
	return &Pool{free: free}
}

// Acquire removes and returns the next free position. ok is false when the
// pool is exhausted.
func (p *Pool) Acquire() (pos Position, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return 0, false
	}
	pos = p.free[0]
	p.free = p.free[1:]
	return pos, true
}

// Release puts pos at the back of the queue. Releasing a free position is a
// no-op.
func (p *Pool) Release(pos Position) {
	if !pos.Valid() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.free {
		if f == pos {
			return
		}
	}
	p.free = append(p.free, pos)
}

func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

func (p *Pool) Exhausted() bool {
	return p.Available() == 0
}
