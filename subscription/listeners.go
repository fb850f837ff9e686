// subscription/listeners.go
package subscription

import (
	"context"
	"fmt"

	"item_custody_service/events"
)

// Notification intents. Rendering and delivery happen downstream; the
// listeners only decide that a notification is due and to whom.
const (
	IntentPrepared  = "subscription-prepared"
	IntentCompleted = "subscription-completed"
)

// Directory resolves a user to the contact addresses notifications go to.
type Directory interface {
	HeadOf(ctx context.Context, userID string) (string, error)
	ContactOf(ctx context.Context, userID string) (string, error)
}

// Notifier hands a notification intent to the delivery side. Fire and
// forget: a send failure is logged by the bus and dropped, never retried
// here and never unwinds the transition that triggered it.
type Notifier interface {
	Send(ctx context.Context, recipient, intent string, payload any) error
}

// Notification payload as the delivery side sees it.
type NotificationPayload struct {
	Code     string `json:"code"`
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName"`
	State    string `json:"state"`
	Outcome  string `json:"outcome,omitempty"`
}

// RegisterListeners wires the two notification listeners into the bus.
// Called once at startup; no ambient registry.
func RegisterListeners(bus *events.Bus, dir Directory, notifier Notifier) {
	bus.Subscribe(events.TypeSubscriptionInitiated, processSubscription(dir, notifier))
	bus.Subscribe(events.TypeSubscriptionProcessed, informConcerned(dir, notifier))
}

// processSubscription tells the requester's department head a request needs
// attention. Fires for new requests and for returns, so it must not assume
// the subscription is still in the requested state.
func processSubscription(dir Directory, notifier Notifier) events.Handler {
	return func(e events.Event) error {
		ev, ok := e.(events.SubscriptionInitiated)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		ctx := context.Background()
		head, err := dir.HeadOf(ctx, ev.Subscription.UserID)
		if err != nil {
			return fmt.Errorf("resolve head of %s: %w", ev.Subscription.UserID, err)
		}
		return notifier.Send(ctx, head, IntentPrepared, NotificationPayload{
			Code:     ev.Subscription.Code,
			UserID:   ev.Subscription.UserID,
			ItemID:   ev.Subscription.ItemID,
			ItemName: ev.Subscription.ItemName,
			State:    string(ev.Subscription.State),
		})
	}
}

// informConcerned tells the original requester how their request ended,
// whichever way it went.
func informConcerned(dir Directory, notifier Notifier) events.Handler {
	return func(e events.Event) error {
		ev, ok := e.(events.SubscriptionProcessed)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		ctx := context.Background()
		contact, err := dir.ContactOf(ctx, ev.Subscription.UserID)
		if err != nil {
			return fmt.Errorf("resolve contact of %s: %w", ev.Subscription.UserID, err)
		}
		return notifier.Send(ctx, contact, IntentCompleted, NotificationPayload{
			Code:     ev.Subscription.Code,
			UserID:   ev.Subscription.UserID,
			ItemID:   ev.Subscription.ItemID,
			ItemName: ev.Subscription.ItemName,
			State:    string(ev.Subscription.State),
			Outcome:  string(ev.Outcome),
		})
	}
}
