/*
scheduler.go - Month rollover scheduler

PURPOSE:
  Periodically makes sure every budget has BudgetMonth rows for the
  current and next calendar month. Budgets are created with three months
  (previous, current, next); as wall-clock time advances, this scheduler
  extends the window so a fresh month is ready before the first
  transaction or budgeting action lands in it.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - EnsureMonth is idempotent, so repeated checks are harmless
  - Skips nothing: every budget is checked every tick (the per-budget
    lock inside EnsureMonth keeps this safe against concurrent mutations)

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewMonthScheduler(engine)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - ledger/months.go: EnsureMonth
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/budget-engine/ledger"
)

// MonthScheduler keeps every budget's month window rolled forward.
type MonthScheduler struct {
	Engine        *ledger.Engine
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewMonthScheduler creates a new scheduler.
func NewMonthScheduler(engine *ledger.Engine) *MonthScheduler {
	return &MonthScheduler{
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ms *MonthScheduler) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ms.ticker = time.NewTicker(ms.CheckInterval)
	ms.wg.Add(1)

	go ms.run()

	log.Printf("[Scheduler] Started with check interval: %v", ms.CheckInterval)
}

// Stop stops the scheduler.
func (ms *MonthScheduler) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.ticker != nil {
		ms.ticker.Stop()
		close(ms.stop)
		ms.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ms *MonthScheduler) run() {
	defer ms.wg.Done()

	// Run immediately on start
	ms.rollForward()

	for {
		select {
		case <-ms.ticker.C:
			ms.rollForward()
		case <-ms.stop:
			return
		}
	}
}

// rollForward ensures current and next month exist for every budget.
func (ms *MonthScheduler) rollForward() {
	ctx := context.Background()
	current := ledger.CurrentMonth()
	next := current.Next()

	budgets, err := ms.Engine.Store().ListAllBudgets(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing budgets: %v", err)
		return
	}

	created := 0
	for _, b := range budgets {
		for _, month := range []ledger.Month{current, next} {
			existing, err := ms.Engine.Store().FindBudgetMonth(ctx, b.ID, month)
			if err != nil {
				log.Printf("[Scheduler] Error checking month %s for %s: %v", month, b.ID, err)
				continue
			}
			if existing != nil {
				continue
			}
			if _, err := ms.Engine.EnsureMonth(ctx, b.ID, month); err != nil {
				log.Printf("[Scheduler] Error creating month %s for %s: %v", month, b.ID, err)
				continue
			}
			created++
		}
	}

	if created > 0 {
		log.Printf("[Scheduler] Rolled forward %d budget month(s)", created)
	}
}
