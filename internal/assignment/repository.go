package assignment

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

var (
	ErrNotFound           = apperr.NotFound("Assignment not found")
	ErrSubmissionNotFound = apperr.NotFound("Submission not found")
	ErrAlreadyGraded      = apperr.Conflict("Submission has already been graded")
)

// Repository is the assignment store. Submission writes are atomic per
// embedded element so concurrent submit and grade calls cannot overwrite each
// other.
type Repository interface {
	Create(ctx context.Context, a *Assignment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Assignment, error)
	FindAll(ctx context.Context) ([]*Assignment, error)
	FindByCourses(ctx context.Context, courses []primitive.ObjectID) ([]*Assignment, error)
	Update(ctx context.Context, id primitive.ObjectID, p Patch) (*Assignment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// UpsertSubmission overwrites the student's ungraded submission in place,
	// or appends sub when the student has none. It returns the stored
	// submission and whether it was appended. ErrAlreadyGraded is returned
	// for graded submissions.
	UpsertSubmission(ctx context.Context, id primitive.ObjectID, sub Submission) (*Submission, bool, error)
	// GradeSubmission sets marks, feedback and gradedAt on one submission.
	GradeSubmission(ctx context.Context, id, submissionID primitive.ObjectID, marks float64, feedback string, gradedAt time.Time) (*Submission, error)
}

type AssignmentRepository struct {
	collection *mongo.Collection
}

var _ Repository = (*AssignmentRepository)(nil)

func NewAssignmentRepository(db *mongo.Database) *AssignmentRepository {
	return &AssignmentRepository{collection: db.Collection(config.AssignmentsCollection)}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *Assignment) error {
	_, err := r.collection.InsertOne(ctx, a)
	return errors.Wrap(err, "inserting assignment")
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Assignment, error) {
	var a Assignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding assignment")
	}
	return &a, nil
}

func (r *AssignmentRepository) find(ctx context.Context, filter bson.M) ([]*Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding assignments")
	}
	assignments := []*Assignment{}
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, errors.Wrap(err, "decoding assignments")
	}
	return assignments, nil
}

func (r *AssignmentRepository) FindAll(ctx context.Context) ([]*Assignment, error) {
	return r.find(ctx, bson.M{})
}

func (r *AssignmentRepository) FindByCourses(ctx context.Context, courses []primitive.ObjectID) ([]*Assignment, error) {
	if len(courses) == 0 {
		return []*Assignment{}, nil
	}
	return r.find(ctx, bson.M{"course": bson.M{"$in": courses}})
}

func (r *AssignmentRepository) Update(ctx context.Context, id primitive.ObjectID, p Patch) (*Assignment, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.DueDate != nil {
		set["due_date"] = *p.DueDate
	}
	if p.TotalMarks != nil {
		set["total_marks"] = *p.TotalMarks
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a Assignment
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "updating assignment")
	}
	return &a, nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AssignmentRepository) UpsertSubmission(ctx context.Context, id primitive.ObjectID, sub Submission) (*Submission, bool, error) {
	// A concurrent first submission by the same student can slip in between
	// the two updates; the second pass then finds it and overwrites it.
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		res, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": id, "submissions": bson.M{"$elemMatch": bson.M{
				"student": sub.Student,
				"status":  bson.M{"$ne": StatusGraded},
			}}},
			bson.M{"$set": bson.M{
				"submissions.$.content":      sub.Content,
				"submissions.$.file_url":     sub.FileURL,
				"submissions.$.submitted_at": sub.SubmittedAt,
				"submissions.$.status":       sub.Status,
				"updated_at":                 now,
			}})
		if err != nil {
			return nil, false, errors.Wrap(err, "updating submission")
		}
		if res.MatchedCount == 1 {
			stored, err := r.submissionOf(ctx, id, sub.Student)
			return stored, false, err
		}

		if sub.ID.IsZero() {
			sub.ID = primitive.NewObjectID()
		}
		res, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": id, "submissions.student": bson.M{"$ne": sub.Student}},
			bson.M{"$push": bson.M{"submissions": sub}, "$set": bson.M{"updated_at": now}})
		if err != nil {
			return nil, false, errors.Wrap(err, "appending submission")
		}
		if res.MatchedCount == 1 {
			return &sub, true, nil
		}

		a, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if a == nil {
			return nil, false, ErrNotFound
		}
		if existing := a.SubmissionBy(sub.Student); existing != nil && existing.Status == StatusGraded {
			return nil, false, ErrAlreadyGraded
		}
	}
	return nil, false, errors.New("submission changed concurrently")
}

func (r *AssignmentRepository) submissionOf(ctx context.Context, id, student primitive.ObjectID) (*Submission, error) {
	a, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if sub := a.SubmissionBy(student); sub != nil {
		return sub, nil
	}
	return nil, ErrSubmissionNotFound
}

func (r *AssignmentRepository) GradeSubmission(ctx context.Context, id, submissionID primitive.ObjectID, marks float64, feedback string, gradedAt time.Time) (*Submission, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "submissions._id": submissionID},
		bson.M{"$set": bson.M{
			"submissions.$.marks":     marks,
			"submissions.$.feedback":  feedback,
			"submissions.$.graded_at": gradedAt,
			"submissions.$.status":    StatusGraded,
			"updated_at":              time.Now().UTC(),
		}})
	if err != nil {
		return nil, errors.Wrap(err, "grading submission")
	}

	a, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	sub := a.SubmissionByID(submissionID)
	if res.MatchedCount == 0 || sub == nil {
		return nil, ErrSubmissionNotFound
	}
	return sub, nil
}
