package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/event"
)

type EventRepository struct{ s *Store }

var _ event.Repository = (*EventRepository)(nil)

func (r *EventRepository) Insert(_ context.Context, ev *event.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	ev.CreatedAt, ev.UpdatedAt = now, now
	if ev.Status == "" {
		ev.Status = event.StatusPending
	}
	r.s.events[ev.ID] = clone(ev)
	return nil
}

func (r *EventRepository) MarkDelivered(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if ev, ok := r.s.events[id]; ok {
		ev.Status = event.StatusDelivered
		ev.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *EventRepository) MarkAttempt(_ context.Context, id primitive.ObjectID, lastErr string, failed bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if ev, ok := r.s.events[id]; ok {
		ev.Attempts++
		ev.LastError = lastErr
		if failed {
			ev.Status = event.StatusFailed
		}
		ev.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *EventRepository) FindPending(_ context.Context, olderThan time.Time, limit int) ([]*event.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var pending []*event.Event
	for _, ev := range r.s.events {
		if ev.Status == event.StatusPending && !ev.CreatedAt.After(olderThan) {
			pending = append(pending, clone(ev))
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// FindByID is a test helper; the Mongo repository has no equivalent.
func (r *EventRepository) FindByID(id primitive.ObjectID) *event.Event {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if ev, ok := r.s.events[id]; ok {
		return clone(ev)
	}
	return nil
}

// All returns every stored event, oldest first.
func (r *EventRepository) All() []*event.Event {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := []*event.Event{}
	for _, ev := range r.s.events {
		events = append(events, clone(ev))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events
}
