package repository

import (
	"context"
	"fmt"

	"foodgram/internal/http-api/models"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Add(ctx context.Context, subscriberID, authorID string) error
	Remove(ctx context.Context, subscriberID, authorID string) (bool, error)
	Exists(ctx context.Context, subscriberID, authorID string) (bool, error)
	// SubscribedTo returns the subset of authorIDs the subscriber follows.
	SubscribedTo(ctx context.Context, subscriberID string, authorIDs []string) (map[string]bool, error)
	ListAuthors(ctx context.Context, subscriberID string, page, pageSize int) ([]models.User, int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Add(ctx context.Context, subscriberID, authorID string) error {
	sub := &models.Subscription{
		SubscriberID: subscriberID,
		AuthorID:     authorID,
	}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("add subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) Remove(ctx context.Context, subscriberID, authorID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return false, fmt.Errorf("remove subscription: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *subscriptionRepository) Exists(ctx context.Context, subscriberID, authorID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return count > 0, nil
}

func (r *subscriptionRepository) SubscribedTo(ctx context.Context, subscriberID string, authorIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(authorIDs))
	if subscriberID == "" || len(authorIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("subscriber_id = ? AND author_id IN ?", subscriberID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *subscriptionRepository) ListAuthors(ctx context.Context, subscriberID string, page, pageSize int) ([]models.User, int64, error) {
	var total int64
	var authors []models.User

	subscribed := func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
			Where("subscriptions.subscriber_id = ?", subscriberID)
	}

	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Scopes(subscribed).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Select("users.*").
		Scopes(subscribed).
		Order("users.username").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("list subscribed authors: %w", err)
	}
	return authors, total, nil
}
