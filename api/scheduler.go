/*
scheduler.go - Automated subscription expiry sweeper

PURPOSE:
  Periodically flips Active subscriptions whose validity window has ended
  to Expired, so listings and reports reflect reality without waiting for
  the next manual touch.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Expiry is a bulk conditional update; sweeping twice is harmless
  - Billing never depends on the sweep: fee waiver checks the validity
    window directly, so a missed sweep can not waive an ended plan

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewExpirySweeper(store)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - parking/subscription.go: Plan and waiver semantics
  - handlers.go: ListSubscriptions endpoint
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// ExpirySweeper retires subscriptions that have run out.
type ExpirySweeper struct {
	Store         Store
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewExpirySweeper creates a new sweeper.
func NewExpirySweeper(store Store) *ExpirySweeper {
	return &ExpirySweeper{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (es *ExpirySweeper) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.wg.Add(1)

	go es.run()

	log.Printf("[Sweeper] Started with check interval: %v", es.CheckInterval)
}

// Stop stops the sweeper.
func (es *ExpirySweeper) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (es *ExpirySweeper) run() {
	defer es.wg.Done()

	// Run immediately on start
	es.sweep()

	for {
		select {
		case <-es.ticker.C:
			es.sweep()
		case <-es.stop:
			return
		}
	}
}

func (es *ExpirySweeper) sweep() {
	ctx := context.Background()
	now := time.Now().UTC()

	n, err := es.Store.ExpireSubscriptions(ctx, now)
	if err != nil {
		log.Printf("[Sweeper] Error expiring subscriptions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Sweeper] Expired %d subscription(s)", n)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (es *ExpirySweeper) RunNow() {
	es.sweep()
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (es *ExpirySweeper) GetNextRunTime() time.Time {
	return time.Now().Add(es.CheckInterval)
}
