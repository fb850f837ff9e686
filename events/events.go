// events/events.go
package events

import (
	"time"

	"item_custody_service/models"
)

// Outcome of a processed subscription.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Event is anything the bus can fan out. Handlers are registered per
// EventType string.
type Event interface {
	EventType() string
}

const (
	TypeSubscriptionInitiated = "subscription.initiated"
	TypeSubscriptionProcessed = "subscription.processed"
)

// SubscriptionInitiated fires when a custody request is created, and again
// when the item comes back — both open an authority-facing notification.
// Carries a snapshot, so listeners never touch live ledger state.
type SubscriptionInitiated struct {
	Subscription models.Subscription
	OccurredAt   time.Time
}

// SubscriptionProcessed fires when the department head approves or rejects.
// For rejections the snapshot holds the field values the row had just
// before deletion.
type SubscriptionProcessed struct {
	Subscription models.Subscription
	Outcome      Outcome
	OccurredAt   time.Time
}

func (SubscriptionInitiated) EventType() string { return TypeSubscriptionInitiated }
func (SubscriptionProcessed) EventType() string { return TypeSubscriptionProcessed }
