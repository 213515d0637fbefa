package attendance

import (
	"context"
	"fmt"
	"sync"
)

// RecordStore persists authoritative attendance records. Put with
// expectedRevision 0 inserts; otherwise it must replace the row only when
// the stored revision still equals expectedRevision and return
// ErrConcurrentConflict when it does not.
type RecordStore interface {
	Get(ctx context.Context, key Key) (*Record, error) // nil, nil when absent
	Put(ctx context.Context, rec *Record, expectedRevision int) error
	// ListByCourseDate returns all authoritative records for a course on a date.
	ListByCourseDate(ctx context.Context, courseID, date string) ([]Record, error)
}

// CommitOutcome classifies what the ledger did with a record candidate.
type CommitOutcome string

const (
	// CommitCommitted means the candidate became the authoritative record.
	CommitCommitted CommitOutcome = "committed"
	// CommitDuplicate means a final record already exists; it is returned
	// unchanged and the attempt is benign.
	CommitDuplicate CommitOutcome = "duplicate"
)

// CommitResult carries the ledger decision and the authoritative record
// after the attempt.
type CommitResult struct {
	Outcome CommitOutcome
	Record  *Record
}

// Ledger guarantees at most one authoritative record per key. All mutation
// for a key runs inside a critical section keyed by that composite key, so
// unrelated keys proceed fully in parallel. Resolution and matching happen
// before the critical section is entered; the lock is held only for the
// commit decision.
type Ledger struct {
	store RecordStore

	mu    sync.Mutex
	locks map[Key]*keyLock
}

// keyLock is a reference-counted per-key mutex. The count tracks holders
// and waiters; the ledger drops the entry once both reach zero, so the lock
// map stays bounded by the number of in-flight keys rather than growing
// with every key ever touched.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLedger creates a ledger over the given record store.
func NewLedger(store RecordStore) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[Key]*keyLock),
	}
}

// lockKey acquires the per-key mutex and returns its unlock func.
func (l *Ledger) lockKey(key Key) func() {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// Get returns the authoritative record for a key, or nil when none exists.
func (l *Ledger) Get(ctx context.Context, key Key) (*Record, error) {
	return l.store.Get(ctx, key)
}

// Commit applies a record candidate under the key's critical section.
//
// The first successful decision for a key commits as revision 1. A candidate
// against a pending_review record supersedes it when the candidate carries a
// terminal status (a higher-confidence re-resolution or an authorized manual
// decision); another pending candidate is a benign duplicate. A candidate
// against a terminal record is rejected as a duplicate unless override is
// set, in which case the revision increments and the prior state survives in
// the audit trail. Once Commit enters the critical section it runs to a
// terminal outcome; there is no cancellation mid-commit.
func (l *Ledger) Commit(ctx context.Context, cand Record, override bool) (CommitResult, error) {
	unlock := l.lockKey(cand.Key)
	defer unlock()

	current, err := l.store.Get(ctx, cand.Key)
	if err != nil {
		return CommitResult{}, fmt.Errorf("loading current record: %w", err)
	}

	if current == nil {
		cand.Revision = 1
		if err := l.store.Put(ctx, &cand, 0); err != nil {
			return CommitResult{}, fmt.Errorf("committing revision 1: %w", err)
		}
		return CommitResult{Outcome: CommitCommitted, Record: &cand}, nil
	}

	supersede := override
	if current.Status == StatusPendingReview && cand.Status.Terminal() {
		// A pending entry is consumed by the first terminal decision.
		supersede = true
	}
	if !supersede {
		return CommitResult{Outcome: CommitDuplicate, Record: current}, nil
	}

	cand.Revision = current.Revision + 1
	if err := l.store.Put(ctx, &cand, current.Revision); err != nil {
		return CommitResult{}, fmt.Errorf("committing revision %d: %w", cand.Revision, err)
	}
	return CommitResult{Outcome: CommitCommitted, Record: &cand}, nil
}
