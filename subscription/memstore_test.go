package subscription_test

import (
	"context"
	"sync"

	"item_custody_service/models"
	"item_custody_service/subscription"
)

// memStore is the in-memory Store the ledger and service tests run on,
// mirroring the semantics of the Postgres-backed store.
type memStore struct {
	mu   sync.Mutex
	rows map[string]*models.Subscription // keyed by code
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*models.Subscription)}
}

func (m *memStore) Load(ctx context.Context, code string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[code]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return sub.Clone(), nil
}

func (m *memStore) Save(ctx context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[sub.Code] = sub.Clone()
	return nil
}

func (m *memStore) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[code]; !ok {
		return subscription.ErrNotFound
	}
	delete(m.rows, code)
	return nil
}

func (m *memStore) ActiveExists(ctx context.Context, userID, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.rows {
		if sub.UserID == userID && sub.ItemID == itemID && sub.State != models.StateReturned {
			return true, nil
		}
	}
	return false, nil
}
