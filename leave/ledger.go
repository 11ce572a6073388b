/*
ledger.go - Authoritative leave-request collection and state machine

PURPOSE:
  The Ledger owns the in-memory collection of requests and is its sole
  mutator. Every operation follows the same shape:

    lock -> mutate -> save local snapshot -> enqueue mirror -> unlock

  The local save is synchronous: a transition is only acknowledged once
  the full collection is durable. The mirror push is fire-and-forget
  through the MirrorQueue, so caller latency is bounded by local I/O.

CONCURRENCY:
  The persistence gateway is a full-snapshot overwrite with no
  concurrency token, so two interleaved read-modify-write cycles would
  silently lose one update. A single mutex therefore serializes all
  mutators - front-end transitions and the reminder sweep alike share
  this serialization domain.

SEE ALSO:
  - store/store.go: Snapshot and MirrorQueue contracts
  - reminder.go:    The one sweep-owned mutation (ReminderSentAt)
*/
package leave

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/crewdesk/store"
)

// Ledger is the authoritative leave-request collection.
type Ledger struct {
	// Clock supplies the current instant; tests override it.
	Clock func() time.Time

	mu     sync.Mutex
	items  []Request
	snap   store.Snapshot
	mirror *store.MirrorQueue
	auth   Authorizer
	log    *zap.Logger
}

// NewLedger loads the stored collection and returns a ready ledger.
// mirror may be nil when remote sync is not configured.
func NewLedger(ctx context.Context, snap store.Snapshot, mirror *store.MirrorQueue, auth Authorizer, log *zap.Logger) (*Ledger, error) {
	l := &Ledger{
		Clock:  time.Now,
		snap:   snap,
		mirror: mirror,
		auth:   auth,
		log:    log,
	}
	if err := snap.Load(ctx, &l.items); err != nil {
		return nil, fmt.Errorf("load leave ledger: %w", err)
	}
	return l, nil
}

// =============================================================================
// STATE MACHINE OPERATIONS
// =============================================================================

// Submit validates a submission and creates one Pending request per
// date in the comma-separated date list. All-or-nothing: a duplicate
// (subject, date) pair rejects the whole submission before any write.
func (l *Ledger) Submit(ctx context.Context, sub Submission) ([]Request, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	dates := splitDates(sub.Dates)
	if len(dates) == 0 {
		return nil, &FieldError{Field: "dates", Reason: "no dates given"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]bool, len(dates))
	for _, date := range dates {
		if seen[date] || l.findByKeyLocked(sub.SubjectID, date) >= 0 {
			return nil, &DuplicateDateError{SubjectID: sub.SubjectID, Date: date}
		}
		seen[date] = true
	}

	now := l.Clock()
	created := make([]Request, 0, len(dates))
	for _, date := range dates {
		created = append(created, Request{
			ID:                RequestID(uuid.NewString()),
			SubjectID:         sub.SubjectID,
			DisplayName:       sub.DisplayName,
			Date:              date,
			Shift:             sub.Shift,
			AffectedResources: sub.AffectedResources,
			Reason:            sub.Reason,
			Status:            StatusPending,
			CreatedAt:         now,
		})
	}

	l.items = append(l.items, created...)
	if err := l.persistLocked(ctx); err != nil {
		l.items = l.items[:len(l.items)-len(created)]
		return nil, err
	}

	l.log.Info("leave submitted",
		zap.String("subject", sub.SubjectID), zap.Int("dates", len(created)))
	return created, nil
}

// Approve marks a request approved. Re-approving (or flipping a
// declined request) overwrites status and approver: the front end
// delivers at-least-once, so the transition is an idempotent overwrite
// rather than a rejection.
func (l *Ledger) Approve(ctx context.Context, id RequestID, actorID string) (Request, error) {
	return l.decide(ctx, id, actorID, StatusApproved)
}

// Decline marks a request declined. Same overwrite semantics as Approve.
func (l *Ledger) Decline(ctx context.Context, id RequestID, actorID string) (Request, error) {
	return l.decide(ctx, id, actorID, StatusDeclined)
}

func (l *Ledger) decide(ctx context.Context, id RequestID, actorID string, status Status) (Request, error) {
	if !l.auth.CanApprove(actorID) {
		return Request{}, fmt.Errorf("%s by %s: %w", strings.ToLower(string(status)), actorID, ErrUnauthorized)
	}

	return l.updateInPlace(ctx, id, func(r *Request) error {
		r.Status = status
		r.ApproverID = actorID
		return nil
	})
}

// Claim records a coverage volunteer. Any actor may claim; the write is
// an unconditional last-writer-wins overwrite, which is intentional for
// a low-contention, small-team setting. Claims only exist on approved
// requests.
func (l *Ledger) Claim(ctx context.Context, id RequestID, actorID string) (Request, error) {
	return l.updateInPlace(ctx, id, func(r *Request) error {
		if r.Status != StatusApproved {
			return fmt.Errorf("claim %s: %w", id, ErrNotApproved)
		}
		r.ClaimedBy = actorID
		return nil
	})
}

// updateInPlace applies mutator to the identified request and persists
// the collection. The mutation is rolled back if persistence fails.
func (l *Ledger) updateInPlace(ctx context.Context, id RequestID, mutator func(*Request) error) (Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findByIDLocked(id)
	if idx < 0 {
		return Request{}, fmt.Errorf("request %s: %w", id, ErrRequestNotFound)
	}

	prev := l.items[idx]
	if err := mutator(&l.items[idx]); err != nil {
		l.items[idx] = prev
		return Request{}, err
	}

	if err := l.persistLocked(ctx); err != nil {
		l.items[idx] = prev
		return Request{}, err
	}
	return l.items[idx], nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns the request with the given transport handle.
func (l *Ledger) Get(id RequestID) (Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findByIDLocked(id)
	if idx < 0 {
		return Request{}, fmt.Errorf("request %s: %w", id, ErrRequestNotFound)
	}
	return l.items[idx], nil
}

// Find returns copies of all requests matching pred, in insertion order.
func (l *Ledger) Find(pred func(Request) bool) []Request {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Request
	for _, r := range l.items {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// CreatedSince returns requests created at or after cutoff, ordered by
// creation time. Used by the weekly digest (trailing window over
// creation instants, not civil dates).
func (l *Ledger) CreatedSince(cutoff time.Time) []Request {
	out := l.Find(func(r Request) bool { return !r.CreatedAt.Before(cutoff) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (l *Ledger) findByIDLocked(id RequestID) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) findByKeyLocked(subjectID, date string) int {
	for i := range l.items {
		if l.items[i].SubjectID == subjectID && l.items[i].Date == date {
			return i
		}
	}
	return -1
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (l *Ledger) persistLocked(ctx context.Context) error {
	if err := l.snap.Save(ctx, l.items); err != nil {
		return fmt.Errorf("save leave ledger: %w", err)
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

// =============================================================================
// SUBMISSION HELPERS
// =============================================================================

func validateSubmission(sub Submission) error {
	fields := []struct {
		name, value string
	}{
		{"subjectId", sub.SubjectID},
		{"displayName", sub.DisplayName},
		{"dates", sub.Dates},
		{"shift", sub.Shift},
		{"affectedResources", sub.AffectedResources},
		{"reason", sub.Reason},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{Field: f.name, Reason: "must not be empty"}
		}
	}
	return nil
}

func splitDates(raw string) []string {
	var dates []string
	for _, d := range strings.Split(raw, ",") {
		if d = strings.TrimSpace(d); d != "" {
			dates = append(dates, d)
		}
	}
	return dates
}
