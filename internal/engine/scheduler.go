package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives periodic simulation steps. It is an explicit start/stop
// handle around the tick timer so tests can skip it entirely and call
// Step directly. Pausing suppresses ticks without losing resting orders;
// missed ticks are not replayed on resume.
type Scheduler struct {
	sim      *Simulator
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	paused  bool
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler creates a Scheduler stepping the simulator every interval.
func NewScheduler(sim *Simulator, interval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		sim:      sim,
		interval: interval,
		log:      log.With("component", "scheduler"),
	}
}

// Start launches the tick loop. It is a no-op if the loop is already
// running.
func (sc *Scheduler) Start(ctx context.Context) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	sc.cancel = cancel
	sc.done = make(chan struct{})
	sc.running = true

	go sc.run(runCtx)
	sc.log.Info("tick loop started", "interval", sc.interval)
}

// Stop cancels the tick loop and waits for it to exit.
func (sc *Scheduler) Stop() {
	sc.mu.Lock()
	if !sc.running {
		sc.mu.Unlock()
		return
	}
	cancel, done := sc.cancel, sc.done
	sc.running = false
	sc.mu.Unlock()

	cancel()
	<-done
	sc.log.Info("tick loop stopped")
}

// Pause suppresses ticks until Resume. Resting orders are untouched.
func (sc *Scheduler) Pause() {
	sc.mu.Lock()
	sc.paused = true
	sc.mu.Unlock()
	sc.log.Info("ticking paused")
}

// Resume re-enables ticks from "now"; ticks missed while paused are lost,
// not replayed.
func (sc *Scheduler) Resume() {
	sc.mu.Lock()
	sc.paused = false
	sc.mu.Unlock()
	sc.log.Info("ticking resumed")
}

func (sc *Scheduler) run(ctx context.Context) {
	defer close(sc.done)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sc.mu.Lock()
			paused := sc.paused
			sc.mu.Unlock()
			if paused {
				continue
			}
			sc.sim.Step(ctx)
		}
	}
}
