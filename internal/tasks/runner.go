package tasks

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Runner invokes a tick function on a fixed interval. A tick that is still
// running when the next interval fires causes that interval to be skipped,
// so two ticks of the same task never overlap. Panics and errors are logged
// and the loop continues.
type Runner struct {
	name     string
	interval time.Duration
	tick     func(context.Context) error
	running  atomic.Bool
}

func New(name string, interval time.Duration, tick func(context.Context) error) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		tick:     tick,
	}
}

// Start launches the runner's loop. It stops when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("[Task] %s stopped: %v", r.name, ctx.Err())
				return
			case <-ticker.C:
				go r.runTick(ctx)
			}
		}
	}()
}

func (r *Runner) runTick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		log.Printf("[Task] %s skipped: previous tick still running", r.name)
		return
	}
	defer r.running.Store(false)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Task] %s panicked: %v", r.name, rec)
		}
	}()

	if err := r.tick(ctx); err != nil {
		log.Printf("[Task] %s failed: %v", r.name, err)
	}
}
