package course

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/config"
)

// ErrCodeTaken is returned by Create when the course code already exists.
var ErrCodeTaken = apperr.Conflict("Course code already exists")

// Repository is the course store. FindByID returns nil, nil when the course
// does not exist.
type Repository interface {
	Create(ctx context.Context, c *Course) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Course, error)
	FindAll(ctx context.Context) ([]*Course, error)
	FindByInstructor(ctx context.Context, instructor primitive.ObjectID) ([]*Course, error)
	FindByStudent(ctx context.Context, student primitive.ObjectID) ([]*Course, error)
	// AddStudent enrolls student; added is false when already enrolled.
	AddStudent(ctx context.Context, id, student primitive.ObjectID) (added bool, err error)
	AddMaterial(ctx context.Context, id primitive.ObjectID, m Material) error
}

type CourseRepository struct {
	collection *mongo.Collection
}

var _ Repository = (*CourseRepository)(nil)

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{collection: db.Collection(config.CoursesCollection)}
}

func (r *CourseRepository) Create(ctx context.Context, c *Course) error {
	_, err := r.collection.InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCodeTaken
		}
		return errors.Wrap(err, "inserting course")
	}
	return nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Course, error) {
	var c Course
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding course")
	}
	return &c, nil
}

func (r *CourseRepository) find(ctx context.Context, filter bson.M) ([]*Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding courses")
	}
	courses := []*Course{}
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}
	return courses, nil
}

func (r *CourseRepository) FindAll(ctx context.Context) ([]*Course, error) {
	return r.find(ctx, bson.M{})
}

func (r *CourseRepository) FindByInstructor(ctx context.Context, instructor primitive.ObjectID) ([]*Course, error) {
	return r.find(ctx, bson.M{"instructor": instructor})
}

func (r *CourseRepository) FindByStudent(ctx context.Context, student primitive.ObjectID) ([]*Course, error) {
	return r.find(ctx, bson.M{"students": student})
}

func (r *CourseRepository) AddStudent(ctx context.Context, id, student primitive.ObjectID) (bool, error) {
	update := bson.M{
		"$addToSet": bson.M{"students": student},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	// the filter excludes already enrolled students so ModifiedCount tells
	// whether this call enrolled them
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "students": bson.M{"$ne": student}}, update)
	if err != nil {
		return false, errors.Wrap(err, "enrolling student")
	}
	return res.ModifiedCount == 1, nil
}

func (r *CourseRepository) AddMaterial(ctx context.Context, id primitive.ObjectID, m Material) error {
	update := bson.M{
		"$push": bson.M{"materials": m},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		return errors.Wrap(err, "adding material")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Course not found")
	}
	return nil
}
