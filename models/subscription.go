// models/subscription.go
package models

import "time"

const SubscriptionTable = "custody_subscriptions"
const ItemTable = "custody_items"

// Subscription lifecycle states. The state column is authoritative; the
// nullable timestamp pairs below only carry the audit detail.
type SubscriptionState string

const (
	StateRequested SubscriptionState = "requested"
	StateApproved  SubscriptionState = "approved"
	StateReturned  SubscriptionState = "returned"
)

type Item struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Serial    string    `gorm:"size:120;uniqueIndex;not null" json:"serial"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Status    string    `gorm:"size:20;not null;default:'active'" json:"status"` // active/maintenance/retired
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subscription is one request-for-custody of an item by a user.
// A rejected subscription is deleted, not flagged, so every row here is
// either awaiting approval, approved, or returned.
type Subscription struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	Code     string `gorm:"type:uuid;uniqueIndex;not null" json:"code"` // external reference for approve/reject/return
	UserID   string `gorm:"type:uuid;index;not null" json:"userId"`
	ItemID   string `gorm:"type:uuid;index;not null" json:"itemId"`
	ItemName string `gorm:"size:200;not null" json:"itemName"`

	State SubscriptionState `gorm:"size:20;index;not null;default:'requested'" json:"state"`

	RequestedAt time.Time  `gorm:"index;not null" json:"requestedAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy  *string    `gorm:"size:255" json:"approvedBy,omitempty"`
	ReturnedAt  *time.Time `gorm:"index" json:"returnedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Item) TableName() string         { return ItemTable }
func (Subscription) TableName() string { return SubscriptionTable }

// Active means neither returned nor rejected. Rejected rows are gone, so
// presence + not-returned is the whole check.
func (s *Subscription) Active() bool { return s.State != StateReturned }

// Clone returns a copy so event payloads keep the field values of the
// moment the transition happened (needed for reject, where the row is
// deleted right after).
func (s *Subscription) Clone() *Subscription {
	cp := *s
	if s.ApprovedAt != nil {
		t := *s.ApprovedAt
		cp.ApprovedAt = &t
	}
	if s.ApprovedBy != nil {
		b := *s.ApprovedBy
		cp.ApprovedBy = &b
	}
	if s.ReturnedAt != nil {
		t := *s.ReturnedAt
		cp.ReturnedAt = &t
	}
	return &cp
}
