// subscription/service.go
package subscription

import (
	"context"
	"time"

	"item_custody_service/events"
	"item_custody_service/models"
)

// Service is the only entry point callers use. Every successful ledger
// transition is paired with exactly one event publication — no event
// without the state change, no state change without the event. Failed
// transitions publish nothing.
type Service struct {
	ledger *Ledger
	bus    *events.Bus
}

func NewService(ledger *Ledger, bus *events.Bus) *Service {
	return &Service{ledger: ledger, bus: bus}
}

// Request opens a custody request and notifies the approving authority.
func (s *Service) Request(ctx context.Context, userID, itemID, itemName string) (*models.Subscription, error) {
	sub, err := s.ledger.Create(ctx, userID, itemID, itemName)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.SubscriptionInitiated{
		Subscription: *sub.Clone(),
		OccurredAt:   time.Now().UTC(),
	})
	return sub, nil
}

// Approve records the head's decision and informs the requester.
func (s *Service) Approve(ctx context.Context, code, approver string) (*models.Subscription, error) {
	sub, err := s.ledger.Approve(ctx, code, approver)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.SubscriptionProcessed{
		Subscription: *sub.Clone(),
		Outcome:      events.OutcomeApproved,
		OccurredAt:   time.Now().UTC(),
	})
	return sub, nil
}

// Reject deletes the request; the published event carries the pre-deletion
// snapshot so the requester can still be informed.
func (s *Service) Reject(ctx context.Context, code string) (*models.Subscription, error) {
	snapshot, err := s.ledger.Reject(ctx, code)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.SubscriptionProcessed{
		Subscription: *snapshot,
		Outcome:      events.OutcomeRejected,
		OccurredAt:   time.Now().UTC(),
	})
	return snapshot, nil
}

// Return records the item coming back and re-publishes
// SubscriptionInitiated, reusing the authority-facing notification path a
// fresh request takes. A dedicated return event would be cleaner; the
// reuse is kept deliberately (see DESIGN.md).
func (s *Service) Return(ctx context.Context, code string) (*models.Subscription, error) {
	sub, err := s.ledger.MarkReturned(ctx, code)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.SubscriptionInitiated{
		Subscription: *sub.Clone(),
		OccurredAt:   time.Now().UTC(),
	})
	return sub, nil
}
