package game

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mo-shahab/quadpong/ball"
	"github.com/mo-shahab/quadpong/paddle"
	"github.com/mo-shahab/quadpong/position"
)

var ErrInvalidDirection = errors.New("direction must be -1, 0 or 1")

// Simulation owns the ball and the four paddles. Every method is safe for
// concurrent use; one lock guards the whole aggregate.
type Simulation struct {
	mu       sync.RWMutex
	width    int
	height   int
	tick     uint64
	ball     ball.Ball
	paddles  map[position.Position]*paddle.Paddle
	occupied map[position.Position]bool
}

// NewSimulation builds a simulation for a width x height screen with the
// ball centered and every paddle at its starting spot.
func NewSimulation(width, height int) *Simulation {
	s := &Simulation{
		width:    width,
		height:   height,
		ball:     ball.New(width, height),
		paddles:  make(map[position.Position]*paddle.Paddle, position.MaxPlayers),
		occupied: make(map[position.Position]bool, position.MaxPlayers),
	}
	for _, pos := range position.All {
		p := paddle.New(pos, width, height)
		s.paddles[pos] = &p
	}
	return s
}

// Advance runs one physics step.
func (s *Simulation) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
}

func (s *Simulation) advance() {
	s.ball.Update(s.width, s.height)
	s.tick++
}

// Tick advances once and returns the resulting snapshot under a single
// lock, so no paddle move can land between the step and the copy.
func (s *Simulation) Tick() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	return s.snapshot()
}

// MovePaddle shifts the paddle at pos by direction*speed.
func (s *Simulation) MovePaddle(pos position.Position, direction int) error {
	if direction < -1 || direction > 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidDirection, direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.paddles[pos]
	if !ok {
		return fmt.Errorf("no paddle at %v", pos)
	}
	p.Move(direction)
	return nil
}

// Occupy makes the paddle at pos visible in snapshots.
func (s *Simulation) Occupy(pos position.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.occupied[pos] = true
}

// Vacate hides the paddle at pos and puts it back at its starting spot.
func (s *Simulation) Vacate(pos position.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paddles[pos]; !ok {
		return
	}
	delete(s.occupied, pos)
	p := paddle.New(pos, s.width, s.height)
	s.paddles[pos] = &p
}

// Snapshot returns a copy of the current state.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Simulation) snapshot() Snapshot {
	snap := Snapshot{
		Tick: s.tick,
		Ball: BallState{
			Color:  s.ball.Color,
			Center: [2]int{s.ball.X, s.ball.Y},
			Radius: s.ball.Radius,
		},
		Paddles: make(map[position.Position]PaddleState, len(s.occupied)),
	}
	for pos := range s.occupied {
		p := s.paddles[pos]
		snap.Paddles[pos] = PaddleState{Color: p.Color, Rect: p.Rect()}
	}
	return snap
}

// Ball returns a copy of the ball.
func (s *Simulation) Ball() ball.Ball {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ball
}

// Paddle returns a copy of the paddle at pos.
func (s *Simulation) Paddle(pos position.Position) paddle.Paddle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.paddles[pos]; ok {
		return *p
	}
	return paddle.Paddle{}
}

func (s *Simulation) Size() (width, height int) {
	return s.width, s.height
}
