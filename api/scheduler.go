/*
scheduler.go - Shift reminder sweep scheduler

PURPOSE:
  Periodically sweeps the leave ledger for approved, claimed requests
  whose shift starts within the reminder lead window and sends the
  claimant a direct message.

DESIGN:
  - Runs a background goroutine with configurable sweep interval
  - The ledger marks fired requests durably before any message is sent,
    so a request reminds at most once across restarts
  - Requests with unparseable date/shift text are skipped every sweep;
    the skip is logged but never fails the sweep

CONFIGURATION:
  - SweepInterval: How often to sweep (default: 1 minute)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewReminderScheduler(leaves, handler, zone, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - leave/reminder.go: Window semantics and the sweep itself
  - handlers.go: TriggerReminderSweep endpoint (manual sweep)
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/crewdesk/leave"
)

// ReminderScheduler drives periodic reminder sweeps.
type ReminderScheduler struct {
	Leaves        *leave.Ledger
	Handler       *Handler
	Zone          *time.Location
	SweepInterval time.Duration
	Enabled       bool

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReminderScheduler creates a new scheduler.
func NewReminderScheduler(leaves *leave.Ledger, handler *Handler, zone *time.Location, log *zap.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		Leaves:        leaves,
		Handler:       handler,
		Zone:          zone,
		SweepInterval: 1 * time.Minute,
		Enabled:       true,
		log:           log,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.log.Info("reminder scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.SweepInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.log.Info("reminder scheduler started", zap.Duration("interval", rs.SweepInterval))
}

// Stop stops the scheduler.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.log.Info("reminder scheduler stopped")
	}
}

func (rs *ReminderScheduler) run() {
	defer rs.wg.Done()

	// Sweep immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReminderScheduler) sweep() {
	ctx := context.Background()

	fired, err := rs.Leaves.SweepReminders(ctx, time.Now(), rs.Zone)
	if err != nil {
		rs.log.Error("reminder sweep failed", zap.Error(err))
		return
	}
	if len(fired) == 0 {
		return
	}

	for _, req := range fired {
		rs.notify(ctx, req)
	}

	rs.log.Info("reminder sweep completed", zap.Int("fired", len(fired)))
}

// notify messages the claimant. Delivery failures are logged only; the
// fired marker already persisted.
func (rs *ReminderScheduler) notify(ctx context.Context, req leave.Request) {
	text := fmt.Sprintf(
		"Reminder: you are covering %s's shift on %s (%s). It starts within the next %v.",
		req.DisplayName, req.Date, req.Shift, leave.ReminderLead)

	if err := rs.Handler.Sink.DirectMessage(ctx, req.ClaimedBy, text); err != nil {
		rs.log.Warn("reminder delivery failed",
			zap.String("request", string(req.ID)),
			zap.String("recipient", req.ClaimedBy),
			zap.Error(err))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (rs *ReminderScheduler) RunNow() {
	rs.sweep()
}
