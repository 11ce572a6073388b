/*
store.go - Persistence gateway interfaces and the remote mirror queue

PURPOSE:
  Defines the interface between the ledgers and durable storage. The
  gateway is a full-snapshot store: every mutation rewrites the whole
  collection. There is no append log and no partial update.

KEY INTERFACES:
  Snapshot: Durable local read/write of one collection (atomic overwrite)
  Mirror:   Best-effort remote copy of the same collection

SNAPSHOT CONTRACT:
  - Load fills the destination from the stored collection. If no prior
    state exists an empty collection is created and returned.
  - Save is atomic from the caller's perspective: either the new full
    snapshot is durable or the old one remains. Never a partial write.

MIRROR CONTRACT:
  - Push/Fetch are best-effort. A mirror failure never affects Save's
    success and is never surfaced to the mutating caller.
  - The mirror is eventually consistent and must not be treated as the
    source of truth while the process is live. It may seed local state
    once at startup, before any local mutation.

IMPLEMENTATIONS:
  - store/jsonfile: local JSON-array file with temp-file+rename writes
  - store/ghmirror: GitHub repository contents mirror

SEE ALSO:
  - leave/ledger.go, raffle/ledger.go: Gateway consumers
*/
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Snapshot handles durable local persistence of one record collection.
type Snapshot interface {
	// Load fills v with the stored collection, creating an empty one if
	// no prior state exists.
	Load(ctx context.Context, v any) error

	// Save durably replaces the entire collection. Atomic: the old
	// snapshot survives any failure.
	Save(ctx context.Context, v any) error
}

// Mirror is a best-effort remote copy of a collection.
type Mirror interface {
	// Push uploads the full serialized collection.
	Push(ctx context.Context, data []byte) error

	// Fetch downloads the remote copy, ErrMirrorEmpty if none exists.
	Fetch(ctx context.Context) ([]byte, error)
}

var (
	// ErrMirrorEmpty is returned by Fetch when the remote has no copy yet.
	ErrMirrorEmpty = errors.New("mirror has no remote copy")

	// ErrCorruptSnapshot is returned by Load when stored state cannot be
	// decoded. Callers decide whether to reset or abort.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// =============================================================================
// MIRROR QUEUE - Asynchronous, latest-wins remote replication
// =============================================================================

// MirrorQueue decouples remote replication from the local write path.
// Enqueue never blocks the mutator: a newer snapshot displaces any queued
// older one (the remote only ever needs the latest full state), and push
// failures are retried with backoff, then logged and dropped.
type MirrorQueue struct {
	Attempts int
	Backoff  time.Duration

	mirror  Mirror
	log     *zap.Logger
	pending chan []byte
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewMirrorQueue creates a queue for the given mirror. A nil queue is
// valid for all methods and does nothing, so callers without remote-sync
// credentials simply pass nil.
func NewMirrorQueue(m Mirror, log *zap.Logger) *MirrorQueue {
	return &MirrorQueue{
		Attempts: 3,
		Backoff:  2 * time.Second,
		mirror:   m,
		log:      log,
		pending:  make(chan []byte, 1),
		stop:     make(chan struct{}),
	}
}

// Start launches the replication worker.
func (q *MirrorQueue) Start() {
	if q == nil {
		return
	}
	q.wg.Add(1)
	go q.run()
}

// Stop drains any in-flight push and stops the worker.
func (q *MirrorQueue) Stop() {
	if q == nil {
		return
	}
	q.once.Do(func() { close(q.stop) })
	q.wg.Wait()
}

// Enqueue submits a full snapshot for replication. Latest wins: if a
// previous snapshot is still queued it is replaced.
func (q *MirrorQueue) Enqueue(snapshot []byte) {
	if q == nil {
		return
	}
	for {
		select {
		case q.pending <- snapshot:
			return
		default:
			// Displace the stale snapshot, then retry the send.
			select {
			case <-q.pending:
			default:
			}
		}
	}
}

func (q *MirrorQueue) run() {
	defer q.wg.Done()
	for {
		select {
		case data := <-q.pending:
			q.push(data)
		case <-q.stop:
			// Final drain so a snapshot enqueued just before shutdown
			// still reaches the remote.
			select {
			case data := <-q.pending:
				q.push(data)
			default:
			}
			return
		}
	}
}

func (q *MirrorQueue) push(data []byte) {
	backoff := q.Backoff
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := q.mirror.Push(ctx, data)
		cancel()
		if err == nil {
			return
		}
		if attempt >= q.Attempts {
			q.log.Error("mirror push failed, dropping snapshot",
				zap.Int("attempts", attempt), zap.Error(err))
			return
		}
		q.log.Warn("mirror push failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-q.stop:
			return
		}
		backoff *= 2
	}
}

// =============================================================================
// SEEDING - One-time remote -> local bootstrap
// =============================================================================

// Seed replaces the local snapshot with the remote copy. Must run before
// any local mutation; an absent or unreachable remote is not an error.
// The remote must decode as a JSON array - anything else keeps local
// state, so a corrupt mirror can never destroy a good snapshot.
func Seed(ctx context.Context, m Mirror, snap Snapshot, log *zap.Logger) error {
	data, err := m.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrMirrorEmpty) {
			return nil
		}
		log.Warn("mirror fetch failed, keeping local state", zap.Error(err))
		return nil
	}

	var collection []json.RawMessage
	if err := json.Unmarshal(data, &collection); err != nil {
		log.Warn("mirror copy is not a JSON array, keeping local state", zap.Error(err))
		return nil
	}
	if collection == nil {
		// A remote "null" decodes without error; store it as empty.
		collection = []json.RawMessage{}
	}

	if err := snap.Save(ctx, collection); err != nil {
		return fmt.Errorf("seed local snapshot: %w", err)
	}
	return nil
}
