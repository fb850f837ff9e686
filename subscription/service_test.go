package subscription_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"item_custody_service/events"
	"item_custody_service/models"
	"item_custody_service/subscription"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type staticDirectory struct {
	heads map[string]string // userID -> head contact
}

func (d *staticDirectory) HeadOf(ctx context.Context, userID string) (string, error) {
	head, ok := d.heads[userID]
	if !ok {
		return "", fmt.Errorf("no department for %s", userID)
	}
	return head, nil
}

func (d *staticDirectory) ContactOf(ctx context.Context, userID string) (string, error) {
	return userID + "@corp.test", nil
}

type sentNotification struct {
	Recipient string
	Intent    string
	Payload   subscription.NotificationPayload
}

type recordingNotifier struct {
	mu    sync.Mutex
	sends []sentNotification
	fail  bool
}

func (n *recordingNotifier) Send(ctx context.Context, recipient, intent string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp relay down")
	}
	n.sends = append(n.sends, sentNotification{
		Recipient: recipient,
		Intent:    intent,
		Payload:   payload.(subscription.NotificationPayload),
	})
	return nil
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentNotification, len(n.sends))
	copy(out, n.sends)
	return out
}

// eventRecorder taps the bus like an external auditor would.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

type fixture struct {
	svc      *subscription.Service
	store    *memStore
	bus      *events.Bus
	notifier *recordingNotifier
	recorder *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	bus := events.NewBus()
	notifier := &recordingNotifier{}
	recorder := &eventRecorder{}

	dir := &staticDirectory{heads: map[string]string{
		"u1": "head-eng@corp.test",
		"u2": "head-ops@corp.test",
	}}
	subscription.RegisterListeners(bus, dir, notifier)
	bus.Subscribe(events.TypeSubscriptionInitiated, recorder.record)
	bus.Subscribe(events.TypeSubscriptionProcessed, recorder.record)

	return &fixture{
		svc:      subscription.NewService(subscription.NewLedger(store), bus),
		store:    store,
		bus:      bus,
		notifier: notifier,
		recorder: recorder,
	}
}

// --- scenarios ---

func TestRequestPublishesInitiatedAndNotifiesHead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	f.bus.Wait()

	evs := f.recorder.all()
	require.Len(t, evs, 1)
	initiated, ok := evs[0].(events.SubscriptionInitiated)
	require.True(t, ok)
	assert.Equal(t, "item-123", initiated.Subscription.ItemID)
	assert.Equal(t, sub.Code, initiated.Subscription.Code)

	sends := f.notifier.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "head-eng@corp.test", sends[0].Recipient)
	assert.Equal(t, subscription.IntentPrepared, sends[0].Intent)
	assert.Equal(t, "u1", sends[0].Payload.UserID)
	assert.Equal(t, "Widget", sends[0].Payload.ItemName)
}

func TestDuplicateRequestPublishesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	f.bus.Wait()

	_, err = f.svc.Request(ctx, "u1", "item-123", "Widget")
	assert.ErrorIs(t, err, subscription.ErrDuplicateActive)
	f.bus.Wait()

	assert.Len(t, f.recorder.all(), 1)
	assert.Len(t, f.notifier.all(), 1)
}

func TestApprovePublishesProcessedAndInformsRequesterOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	f.bus.Wait()

	approved, err := f.svc.Approve(ctx, sub.Code, "head-x")
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "head-x", *approved.ApprovedBy)
	f.bus.Wait()

	evs := f.recorder.all()
	require.Len(t, evs, 2)
	processed, ok := evs[1].(events.SubscriptionProcessed)
	require.True(t, ok)
	assert.Equal(t, events.OutcomeApproved, processed.Outcome)

	// Exactly one completed notification, addressed to the requester.
	var completed []sentNotification
	for _, s := range f.notifier.all() {
		if s.Intent == subscription.IntentCompleted {
			completed = append(completed, s)
		}
	}
	require.Len(t, completed, 1)
	assert.Equal(t, "u1@corp.test", completed[0].Recipient)
	assert.Equal(t, string(events.OutcomeApproved), completed[0].Payload.Outcome)
}

func TestSecondApproveFailsWithoutRepublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, sub.Code, "head-x")
	require.NoError(t, err)
	f.bus.Wait()

	before := len(f.recorder.all())
	_, err = f.svc.Approve(ctx, sub.Code, "head-y")
	assert.ErrorIs(t, err, subscription.ErrAlreadyApproved)
	f.bus.Wait()

	assert.Len(t, f.recorder.all(), before)
}

func TestRejectPublishesPreDeletionSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	f.bus.Wait()

	_, err = f.svc.Reject(ctx, sub.Code)
	require.NoError(t, err)
	f.bus.Wait()

	// Record no longer retrievable.
	_, err = f.store.Load(ctx, sub.Code)
	assert.ErrorIs(t, err, subscription.ErrNotFound)

	// But the event still carries the old field values...
	evs := f.recorder.all()
	require.Len(t, evs, 2)
	processed, ok := evs[1].(events.SubscriptionProcessed)
	require.True(t, ok)
	assert.Equal(t, events.OutcomeRejected, processed.Outcome)
	assert.Equal(t, sub.Code, processed.Subscription.Code)
	assert.Equal(t, "u1", processed.Subscription.UserID)
	assert.Equal(t, "Widget", processed.Subscription.ItemName)

	// ...so the requester still gets informed.
	var completed []sentNotification
	for _, s := range f.notifier.all() {
		if s.Intent == subscription.IntentCompleted {
			completed = append(completed, s)
		}
	}
	require.Len(t, completed, 1)
	assert.Equal(t, "u1@corp.test", completed[0].Recipient)
	assert.Equal(t, string(events.OutcomeRejected), completed[0].Payload.Outcome)
}

func TestRejectAfterApproveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, sub.Code, "head-x")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, sub.Code)
	assert.ErrorIs(t, err, subscription.ErrAlreadyApproved)

	// Record survives.
	stored, err := f.store.Load(ctx, sub.Code)
	require.NoError(t, err)
	assert.Equal(t, models.StateApproved, stored.State)
}

func TestReturnRepublishesInitiatedToHead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, sub.Code, "head-x")
	require.NoError(t, err)
	f.bus.Wait()

	returned, err := f.svc.Return(ctx, sub.Code)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, models.StateReturned, returned.State)
	f.bus.Wait()

	// request + processed + return-as-initiated
	evs := f.recorder.all()
	require.Len(t, evs, 3)
	initiated, ok := evs[2].(events.SubscriptionInitiated)
	require.True(t, ok)
	assert.Equal(t, models.StateReturned, initiated.Subscription.State)

	// The head gets a fresh prepared notification for the return.
	var prepared []sentNotification
	for _, s := range f.notifier.all() {
		if s.Intent == subscription.IntentPrepared {
			prepared = append(prepared, s)
		}
	}
	require.Len(t, prepared, 2)
	assert.Equal(t, "head-eng@corp.test", prepared[1].Recipient)
	assert.Equal(t, string(models.StateReturned), prepared[1].Payload.State)
}

func TestReturnBeforeApprovalFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	f.bus.Wait()

	_, err = f.svc.Return(ctx, sub.Code)
	assert.ErrorIs(t, err, subscription.ErrNotApproved)
	f.bus.Wait()

	assert.Len(t, f.recorder.all(), 1)
}

func TestNotifierFailureDoesNotUnwindTransition(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = true
	ctx := context.Background()

	sub, err := f.svc.Request(ctx, "u1", "item-123", "Widget")
	require.NoError(t, err)
	f.bus.Wait()

	// The transition committed even though the send failed.
	stored, err := f.store.Load(ctx, sub.Code)
	require.NoError(t, err)
	assert.Equal(t, models.StateRequested, stored.State)
	assert.Empty(t, f.notifier.all())
}

func TestUnknownDepartmentDropsNotificationButKeepsRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// u9 has no department head configured.
	sub, err := f.svc.Request(ctx, "u9", "item-9", "Crate")
	require.NoError(t, err)
	f.bus.Wait()

	_, err = f.store.Load(ctx, sub.Code)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.all())
}
