package game

import (
	"log"
	"sync"
	"time"
)

// TickFunc observes every completed tick with the time it took.
type TickFunc func(snap Snapshot, took time.Duration)

// Runner drives a match in fixed logical steps. Wall time between wake-ups
// goes into an accumulator which is spent one step at a time, so physics
// constants stay tied to the tick and not to the host's frame rate.
type Runner struct {
	match    *Match
	step     time.Duration
	maxSteps int

	mu          sync.Mutex
	accumulator time.Duration
	subscribers []TickFunc
	running     bool
	stopChan    chan struct{}
	done        chan struct{}
}

// NewRunner creates a runner stepping m tickRate times per second, at most
// maxSteps times per wake-up.
func NewRunner(m *Match, tickRate, maxSteps int) *Runner {
	if tickRate <= 0 {
		tickRate = 60
	}
	if maxSteps <= 0 {
		maxSteps = 1
	}
	return &Runner{
		match:    m,
		step:     time.Second / time.Duration(tickRate),
		maxSteps: maxSteps,
	}
}

// Step returns the fixed logical step length.
func (r *Runner) Step() time.Duration {
	return r.step
}

// OnTick registers a subscriber. Subscribers run on the runner goroutine.
func (r *Runner) OnTick(fn TickFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Advance feeds elapsed wall time into the accumulator and runs as many
// whole steps as it covers, up to the per-wake-up cap. Backlog beyond the
// cap is discarded. Returns the number of ticks run.
func (r *Runner) Advance(elapsed time.Duration) int {
	r.mu.Lock()
	r.accumulator += elapsed
	subs := r.subscribers
	r.mu.Unlock()

	steps := 0
	for {
		r.mu.Lock()
		if r.accumulator < r.step || steps >= r.maxSteps {
			if steps >= r.maxSteps && r.accumulator >= r.step {
				r.accumulator = 0
			}
			r.mu.Unlock()
			return steps
		}
		r.accumulator -= r.step
		r.mu.Unlock()

		start := time.Now()
		snap := r.match.Tick()
		took := time.Since(start)
		for _, fn := range subs {
			fn(snap, took)
		}
		steps++
	}
}

// Start begins the loop. A stopped runner can be started again.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	stop := make(chan struct{})
	done := make(chan struct{})
	r.stopChan, r.done = stop, done
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.step)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				r.Advance(now.Sub(last))
				last = now
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Match runner started at %d TPS", time.Second/r.step)
}

// Stop stops the loop and waits for the in-flight tick
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	stop, done := r.stopChan, r.done
	r.mu.Unlock()

	close(stop)
	<-done
	log.Println("🛑 Match runner stopped")
}
