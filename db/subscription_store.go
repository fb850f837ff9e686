// db/subscription_store.go
package db

import (
	"context"
	"errors"

	"item_custody_service/models"
	"item_custody_service/subscription"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionStore 是 ledger 的 Postgres 持久化。
// 单条读写已是原子；Save 用行锁事务，配合 ledger 的 per-code 互斥。
type SubscriptionStore struct{ DB *gorm.DB }

func NewSubscriptionStore(db *gorm.DB) *SubscriptionStore { return &SubscriptionStore{DB: db} }

func (s *SubscriptionStore) Load(ctx context.Context, code string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.DB.WithContext(ctx).First(&sub, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// Save upserts by code. 更新路径先锁行，避免跨进程的并发覆盖。
func (s *SubscriptionStore) Save(ctx context.Context, sub *models.Subscription) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Subscription
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing, "code = ?", sub.Code).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(sub).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&models.Subscription{}).
			Where("code = ?", sub.Code).
			Updates(map[string]interface{}{
				"state":       sub.State,
				"approved_at": sub.ApprovedAt,
				"approved_by": sub.ApprovedBy,
				"returned_at": sub.ReturnedAt,
			}).Error
	})
}

func (s *SubscriptionStore) Delete(ctx context.Context, code string) error {
	res := s.DB.WithContext(ctx).Where("code = ?", code).Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return subscription.ErrNotFound
	}
	return nil
}

func (s *SubscriptionStore) ActiveExists(ctx context.Context, userID, itemID string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND item_id = ? AND state <> ?", userID, itemID, models.StateReturned).
		Count(&n).Error
	return n > 0, err
}

// List 翻申请记录，过滤条件全部可选。
func (s *SubscriptionStore) List(ctx context.Context, userID, itemID, state string) ([]models.Subscription, error) {
	q := s.DB.WithContext(ctx).Model(&models.Subscription{}).Order("requested_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}
	if state != "" {
		q = q.Where("state = ?", state)
	}
	var subs []models.Subscription
	if err := q.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
