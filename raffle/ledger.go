/*
ledger.go - Authoritative ticket-entry collection

PURPOSE:
  The Ledger owns the in-memory entry collection and is its sole writer.
  Entries are created, never updated: the ticket count and period key
  are computed at insertion from the current instant in the target zone
  and frozen. Persistence follows the same discipline as the leave
  ledger - synchronous local snapshot, asynchronous best-effort mirror,
  one mutex around every read-modify-persist cycle.
*/
package raffle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/crewdesk/store"
)

// Ledger is the authoritative ticket-entry collection.
type Ledger struct {
	// Clock supplies the current instant; tests override it.
	Clock func() time.Time

	mu     sync.Mutex
	items  []Entry
	snap   store.Snapshot
	mirror *store.MirrorQueue
	zone   *time.Location
	log    *zap.Logger
}

// NewLedger loads the stored collection and returns a ready ledger.
// mirror may be nil when remote sync is not configured.
func NewLedger(ctx context.Context, snap store.Snapshot, mirror *store.MirrorQueue, zone *time.Location, log *zap.Logger) (*Ledger, error) {
	l := &Ledger{
		Clock:  time.Now,
		snap:   snap,
		mirror: mirror,
		zone:   zone,
		log:    log,
	}
	if err := snap.Load(ctx, &l.items); err != nil {
		return nil, fmt.Errorf("load raffle ledger: %w", err)
	}
	return l, nil
}

// Create validates a submission, computes the ticket count and period
// key from the current instant, and appends the frozen entry.
func (l *Ledger) Create(ctx context.Context, sub Submission) (Entry, error) {
	for _, f := range []struct{ name, value string }{
		{"subjectName", sub.SubjectName},
		{"resourceName", sub.ResourceName},
		{"counterpartyName", sub.CounterpartyName},
	} {
		if strings.TrimSpace(f.value) == "" {
			return Entry{}, &FieldError{Field: f.name}
		}
	}

	amount, err := ParseAmount(sub.Amount)
	if err != nil {
		return Entry{}, err
	}
	tickets, err := TicketsFor(amount)
	if err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Clock()
	entry := Entry{
		SubjectName:      strings.TrimSpace(sub.SubjectName),
		ResourceName:     strings.TrimSpace(sub.ResourceName),
		CounterpartyName: strings.TrimSpace(sub.CounterpartyName),
		AmountMinorUnits: amount,
		TicketCount:      tickets,
		PeriodKey:        PeriodKey(now, l.zone),
		CreatedAt:        now,
	}

	l.items = append(l.items, entry)
	if err := l.persistLocked(ctx); err != nil {
		l.items = l.items[:len(l.items)-1]
		return Entry{}, err
	}

	l.log.Info("ticket entry created",
		zap.String("subject", entry.SubjectName),
		zap.Int64("amount", amount),
		zap.Int64("tickets", tickets),
		zap.String("period", entry.PeriodKey))
	return entry, nil
}

// Entries returns a copy of every stored entry, in insertion order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.items))
	copy(out, l.items)
	return out
}

// EntriesForPeriod returns entries belonging to the given period key.
// Entries persisted before period keys existed are matched by deriving
// the key from CreatedAt in the target zone - a backward-compatibility
// fallback, not a recomputation of stored keys.
func (l *Ledger) EntriesForPeriod(key string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, e := range l.items {
		if e.PeriodKey != "" {
			if e.PeriodKey == key {
				out = append(out, e)
			}
			continue
		}
		if !e.CreatedAt.IsZero() && PeriodKey(e.CreatedAt, l.zone) == key {
			out = append(out, e)
		}
	}
	return out
}

// Report aggregates the period's entries (see report.go).
func (l *Ledger) Report(key string) Report {
	return BuildReport(key, l.EntriesForPeriod(key))
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	if err := l.snap.Save(ctx, l.items); err != nil {
		return fmt.Errorf("save raffle ledger: %w", err)
	}
	if l.mirror != nil {
		if data, err := json.MarshalIndent(l.items, "", "  "); err == nil {
			l.mirror.Enqueue(data)
		}
	}
	return nil
}

// Flush rewrites the current snapshot. Called once on shutdown.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(ctx)
}
