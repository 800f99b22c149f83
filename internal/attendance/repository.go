package attendance

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

// Repository stores one attendance document per (course, date).
type Repository interface {
	// Upsert replaces the records of the (course, date) register, creating it
	// when missing, and returns the stored document.
	Upsert(ctx context.Context, a *Attendance) (*Attendance, error)
	FindByCourse(ctx context.Context, course primitive.ObjectID) ([]*Attendance, error)
	FindByStudent(ctx context.Context, student primitive.ObjectID) ([]*Attendance, error)
}

type AttendanceRepository struct {
	collection *mongo.Collection
}

var _ Repository = (*AttendanceRepository)(nil)

func NewAttendanceRepository(db *mongo.Database) *AttendanceRepository {
	return &AttendanceRepository{collection: db.Collection(config.AttendanceCollection)}
}

func (r *AttendanceRepository) Upsert(ctx context.Context, a *Attendance) (*Attendance, error) {
	now := time.Now().UTC()
	filter := bson.M{"course": a.Course, "date": a.Date}
	update := bson.M{
		"$set": bson.M{
			"records":    a.Records,
			"marked_by":  a.MarkedBy,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored Attendance
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, errors.Wrap(err, "upserting attendance")
	}
	return &stored, nil
}

func (r *AttendanceRepository) find(ctx context.Context, filter bson.M) ([]*Attendance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding attendance")
	}
	registers := []*Attendance{}
	if err := cursor.All(ctx, &registers); err != nil {
		return nil, errors.Wrap(err, "decoding attendance")
	}
	return registers, nil
}

func (r *AttendanceRepository) FindByCourse(ctx context.Context, course primitive.ObjectID) ([]*Attendance, error) {
	return r.find(ctx, bson.M{"course": course})
}

func (r *AttendanceRepository) FindByStudent(ctx context.Context, student primitive.ObjectID) ([]*Attendance, error) {
	return r.find(ctx, bson.M{"records.student": student})
}
