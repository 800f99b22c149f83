package event

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CampusPortal/internal/config"
)

// Repository persists outbox events.
type Repository interface {
	Insert(ctx context.Context, ev *Event) error
	MarkDelivered(ctx context.Context, id primitive.ObjectID) error
	// MarkAttempt records a failed delivery. When failed is set the event is
	// given up on.
	MarkAttempt(ctx context.Context, id primitive.ObjectID, lastErr string, failed bool) error
	// FindPending returns pending events created before olderThan, oldest
	// first.
	FindPending(ctx context.Context, olderThan time.Time, limit int) ([]*Event, error)
}

type EventRepository struct {
	collection *mongo.Collection
}

var _ Repository = (*EventRepository)(nil)

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{collection: db.Collection(config.EventsCollection)}
}

func (r *EventRepository) Insert(ctx context.Context, ev *Event) error {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	ev.CreatedAt, ev.UpdatedAt = now, now
	if ev.Status == "" {
		ev.Status = StatusPending
	}
	_, err := r.collection.InsertOne(ctx, ev)
	return errors.Wrap(err, "inserting event")
}

func (r *EventRepository) MarkDelivered(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"status": StatusDelivered, "updated_at": time.Now().UTC()}}
	_, err := r.collection.UpdateByID(ctx, id, update)
	return errors.Wrap(err, "marking event delivered")
}

func (r *EventRepository) MarkAttempt(ctx context.Context, id primitive.ObjectID, lastErr string, failed bool) error {
	set := bson.M{"last_error": lastErr, "updated_at": time.Now().UTC()}
	if failed {
		set["status"] = StatusFailed
	}
	update := bson.M{"$set": set, "$inc": bson.M{"attempts": 1}}
	_, err := r.collection.UpdateByID(ctx, id, update)
	return errors.Wrap(err, "recording event attempt")
}

func (r *EventRepository) FindPending(ctx context.Context, olderThan time.Time, limit int) ([]*Event, error) {
	filter := bson.M{"status": StatusPending, "created_at": bson.M{"$lte": olderThan}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding pending events")
	}
	var events []*Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, errors.Wrap(err, "decoding events")
	}
	return events, nil
}
