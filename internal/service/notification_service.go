package service

import (
	"context"
	"time"

	"github.com/rfpdesk/rfp-backend/internal/repository"
)

// ============================================
// Notification Service
// ============================================

// NotificationCounts summarizes a user's inbox.
type NotificationCounts struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error)
	Counts(ctx context.Context, userID string) (*NotificationCounts, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
	DeleteAll(ctx context.Context, userID string) error
	// Cleanup purges read notifications older than the cutoff.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error) {
	return s.notificationRepo.FindByUserID(ctx, userID, unreadOnly)
}

func (s *notificationService) Counts(ctx context.Context, userID string) (*NotificationCounts, error) {
	total, unread, err := s.notificationRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationCounts{Total: total, Unread: unread}, nil
}

// owned loads a notification and checks it belongs to the user.
func (s *notificationService) owned(ctx context.Context, userID, notificationID string) (*repository.Notification, error) {
	n, err := s.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound
	}
	if n.UserID != userID {
		return nil, ErrForbidden
	}
	return n, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	if _, err := s.owned(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.notificationRepo.MarkAsRead(ctx, notificationID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.notificationRepo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, notificationID string) error {
	if _, err := s.owned(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.notificationRepo.Delete(ctx, notificationID)
}

func (s *notificationService) DeleteAll(ctx context.Context, userID string) error {
	return s.notificationRepo.DeleteAll(ctx, userID)
}

func (s *notificationService) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	return s.notificationRepo.DeleteOlderThan(ctx, olderThan, true)
}
