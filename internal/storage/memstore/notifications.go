package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/notification"
)

type NotificationRepository struct{ s *Store }

var _ notification.Repository = (*NotificationRepository)(nil)

// InsertMany skips documents whose id or (event, recipient) pair is already
// stored, like an unordered insert against the unique indexes.
func (r *NotificationRepository) InsertMany(_ context.Context, ns []*notification.Notification) ([]*notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var inserted []*notification.Notification
	for _, n := range ns {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		if _, ok := r.s.notifications[n.ID]; ok || r.delivered(n) {
			continue
		}
		r.s.notifications[n.ID] = clone(n)
		inserted = append(inserted, n)
	}
	return inserted, nil
}

func (r *NotificationRepository) delivered(n *notification.Notification) bool {
	if n.EventID == nil {
		return false
	}
	for _, existing := range r.s.notifications {
		if existing.EventID != nil && *existing.EventID == *n.EventID && existing.Recipient == n.Recipient {
			return true
		}
	}
	return false
}

func (r *NotificationRepository) FindByRecipient(_ context.Context, recipient primitive.ObjectID, unreadOnly bool) ([]*notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	notifications := []*notification.Notification{}
	for _, n := range r.s.notifications {
		if n.Recipient != recipient || (unreadOnly && n.Read) {
			continue
		}
		notifications = append(notifications, clone(n))
	}
	sort.Slice(notifications, func(i, j int) bool {
		a, b := notifications[i], notifications[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.Hex() > b.ID.Hex()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return notifications, nil
}

func (r *NotificationRepository) FindByID(_ context.Context, id primitive.ObjectID) (*notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if n, ok := r.s.notifications[id]; ok {
		return clone(n), nil
	}
	return nil, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id primitive.ObjectID, at time.Time) (*notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return nil, nil
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = &at
	}
	return clone(n), nil
}

func (r *NotificationRepository) MarkAllRead(_ context.Context, recipient primitive.ObjectID, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var updated int64
	for _, n := range r.s.notifications {
		if n.Recipient == recipient && !n.Read {
			readAt := at
			n.Read = true
			n.ReadAt = &readAt
			updated++
		}
	}
	return updated, nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, n := range r.s.notifications {
		if n.Recipient == recipient && !n.Read {
			count++
		}
	}
	return count, nil
}
