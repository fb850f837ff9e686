// subscription/ledger.go
package subscription

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"item_custody_service/models"

	"github.com/google/uuid"
)

// Precondition failures. No transition is applied when one of these comes
// back; callers map each to its own HTTP status.
var (
	ErrDuplicateActive = errors.New("active subscription already exists for this user and item")
	ErrAlreadyApproved = errors.New("subscription already approved")
	ErrAlreadyReturned = errors.New("subscription already returned")
	ErrNotApproved     = errors.New("subscription not approved yet")
	ErrNotFound        = errors.New("subscription not found")
)

// Store is the persistence the ledger runs on. Implementations translate
// their own not-found into ErrNotFound.
type Store interface {
	Load(ctx context.Context, code string) (*models.Subscription, error)
	Save(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, code string) error
	ActiveExists(ctx context.Context, userID, itemID string) (bool, error)
}

// Ledger holds the authoritative subscription state and accepts only legal
// transitions. Transitions on the same code are serialized through striped
// locks (a collision between unrelated codes only costs serialization,
// never correctness); different codes run in parallel.
type Ledger struct {
	store Store
	locks [64]sync.Mutex
}

func NewLedger(store Store) *Ledger { return &Ledger{store: store} }

func (l *Ledger) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &l.locks[h.Sum32()%uint32(len(l.locks))]
}

// Create opens a custody request. Fails with ErrDuplicateActive while an
// earlier request for the same (user, item) is still live.
func (l *Ledger) Create(ctx context.Context, userID, itemID, itemName string) (*models.Subscription, error) {
	mu := l.lockFor(userID + "/" + itemID)
	mu.Lock()
	defer mu.Unlock()

	exists, err := l.store.ActiveExists(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateActive
	}

	sub := &models.Subscription{
		ID:          uuid.NewString(),
		Code:        uuid.NewString(),
		UserID:      userID,
		ItemID:      itemID,
		ItemName:    itemName,
		State:       models.StateRequested,
		RequestedAt: time.Now().UTC(),
	}
	if err := l.store.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Approve moves requested → approved, recording who and when together.
func (l *Ledger) Approve(ctx context.Context, code, approver string) (*models.Subscription, error) {
	mu := l.lockFor(code)
	mu.Lock()
	defer mu.Unlock()

	sub, err := l.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	if sub.State != models.StateRequested {
		return nil, ErrAlreadyApproved
	}

	now := time.Now().UTC()
	sub.State = models.StateApproved
	sub.ApprovedAt = &now
	sub.ApprovedBy = &approver
	if err := l.store.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Reject removes an unapproved request entirely and returns the snapshot
// the row had just before deletion, so listeners can still reach the
// requester. An approved subscription cannot be rejected.
func (l *Ledger) Reject(ctx context.Context, code string) (*models.Subscription, error) {
	mu := l.lockFor(code)
	mu.Lock()
	defer mu.Unlock()

	sub, err := l.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	if sub.State != models.StateRequested {
		return nil, ErrAlreadyApproved
	}

	snapshot := sub.Clone()
	if err := l.store.Delete(ctx, code); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// MarkReturned moves approved → returned. Terminal.
func (l *Ledger) MarkReturned(ctx context.Context, code string) (*models.Subscription, error) {
	mu := l.lockFor(code)
	mu.Lock()
	defer mu.Unlock()

	sub, err := l.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	switch sub.State {
	case models.StateRequested:
		return nil, ErrNotApproved
	case models.StateReturned:
		return nil, ErrAlreadyReturned
	}

	now := time.Now().UTC()
	sub.State = models.StateReturned
	sub.ReturnedAt = &now
	if err := l.store.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}
