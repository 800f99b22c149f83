package notification

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/rbac"
)

var ErrNotFound = apperr.NotFound("Notification not found")

// NotificationService serves a user's own notifications.
type NotificationService struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewNotificationService(repo Repository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger.Named("notification"), now: time.Now}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, caller rbac.Principal, unreadOnly bool) ([]*Notification, error) {
	return s.repo.FindByRecipient(ctx, caller.ID, unreadOnly)
}

// MarkRead marks one notification read. Only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, caller rbac.Principal, id primitive.ObjectID) (*Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound
	}
	if n.Recipient != caller.ID {
		return nil, apperr.Forbidden("Not authorized to modify this notification")
	}
	if n.Read {
		return n, nil
	}

	updated, err := s.repo.MarkRead(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller rbac.Principal) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, caller.ID, s.now().UTC())
	if err != nil {
		return 0, err
	}
	s.logger.Debug("notifications marked read", zap.Stringer("recipient", caller.ID), zap.Int64("count", n))
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, caller rbac.Principal) (*UnreadCount, error) {
	n, err := s.repo.CountUnread(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return &UnreadCount{Count: n}, nil
}
