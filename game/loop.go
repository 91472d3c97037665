package game

import (
	"context"
	"sync"
	"time"

	"github.com/mo-shahab/quadpong/logger"
)

// Broadcaster receives every tick's snapshot together with its encoded
// state message. The same frame slice is handed to every call for a tick
// and must not be modified.
type Broadcaster interface {
	Broadcast(snap Snapshot, frame []byte)
}

// Loop ticks a Simulation at a fixed rate and hands each snapshot to a
// Broadcaster.
type Loop struct {
	sim         *Simulation
	broadcaster Broadcaster
	interval    time.Duration

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

func NewLoop(sim *Simulation, broadcaster Broadcaster, interval time.Duration) *Loop {
	return &Loop{
		sim:         sim,
		broadcaster: broadcaster,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

// Start launches the loop in its own goroutine. Only the first call does
// anything; it reports whether this call started the loop. The loop stops
// when ctx is cancelled.
func (l *Loop) Start(ctx context.Context) bool {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return false
	}
	l.started = true
	l.mu.Unlock()

	logger.Info("starting broadcast loop", "interval", l.interval)
	go l.run(ctx)
	return true
}

func (l *Loop) Started() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

// Done is closed once a started loop has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("broadcast loop stopped")
			return
		case <-ticker.C:
			l.update()
		}
	}
}

// update handles one tick: one advance, one encode, one fan-out.
func (l *Loop) update() {
	snap := l.sim.Tick()

	frame, err := snap.Encode()
	if err != nil {
		logger.Error("failed to encode snapshot", "tick", snap.Tick, "error", err)
		return
	}

	l.broadcaster.Broadcast(snap, frame)
}
