// Package reclaimer periodically advances the reclamation epoch so retired
// nodes are recycled even when no goroutine is popping.
package reclaimer

import (
	"context"
	"log"
	"time"
)

// Reclaimer returns retired memory whose grace period has elapsed and
// reports how many objects it returned.
type Reclaimer interface {
	Reclaim() int
}

type Job struct {
	target   Reclaimer
	interval time.Duration
}

// New creates a job ticking every interval (2s when zero).
func New(target Reclaimer, interval time.Duration) *Job {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Job{target: target, interval: interval}
}

// Run blocks until ctx is cancelled.
func (j *Job) Run(ctx context.Context) {
	log.Printf("[reclaimer] started interval=%s", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[reclaimer] stopped")
			return
		case <-ticker.C:
			if n := j.target.Reclaim(); n > 0 {
				log.Printf("[reclaimer] recycled %d nodes", n)
			}
		}
	}
}
