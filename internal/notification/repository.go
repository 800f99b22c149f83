package notification

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

// Repository stores notifications. FindByID returns nil, nil when nothing
// matches.
type Repository interface {
	// InsertMany writes ns in one unordered batch. Notifications already
	// stored for the same (event, recipient) pair are skipped; the ones
	// actually written are returned.
	InsertMany(ctx context.Context, ns []*Notification) ([]*Notification, error)
	FindByRecipient(ctx context.Context, recipient primitive.ObjectID, unreadOnly bool) ([]*Notification, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) (*Notification, error)
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error)
}

type NotificationRepository struct {
	collection *mongo.Collection
}

var _ Repository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{collection: db.Collection(config.NotificationsCollection)}
}

func (r *NotificationRepository) InsertMany(ctx context.Context, ns []*Notification) ([]*Notification, error) {
	if len(ns) == 0 {
		return nil, nil
	}
	docs := make([]interface{}, len(ns))
	for i, n := range ns {
		docs[i] = n
	}
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return ns, nil
	}

	// InsertedIDs lists every document, failed ones included, so the
	// written subset comes from the write error indexes.
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return nil, errors.Wrap(err, "inserting notifications")
	}
	failed := make(map[int]bool, len(bwe.WriteErrors))
	onlyDuplicates := true
	for _, we := range bwe.WriteErrors {
		failed[we.Index] = true
		if we.Code != duplicateKeyCode {
			onlyDuplicates = false
		}
	}
	inserted := make([]*Notification, 0, len(ns)-len(failed))
	for i, n := range ns {
		if !failed[i] {
			inserted = append(inserted, n)
		}
	}
	if !onlyDuplicates {
		return inserted, errors.Wrap(err, "inserting notifications")
	}
	return inserted, nil
}

const duplicateKeyCode = 11000

func (r *NotificationRepository) FindByRecipient(ctx context.Context, recipient primitive.ObjectID, unreadOnly bool) ([]*Notification, error) {
	filter := bson.M{"recipient": recipient}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding notifications")
	}
	notifications := []*Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, errors.Wrap(err, "decoding notifications")
	}
	return notifications, nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Notification, error) {
	var n Notification
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding notification")
	}
	return &n, nil
}

// MarkRead sets read on id. A notification that is already read keeps its
// original readAt.
func (r *NotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) (*Notification, error) {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at}},
	)
	if err != nil {
		return nil, errors.Wrap(err, "marking notification read")
	}
	return r.FindByID(ctx, id)
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient primitive.ObjectID, at time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return res.ModifiedCount, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"recipient": recipient, "read": false})
	return n, errors.Wrap(err, "counting unread notifications")
}
