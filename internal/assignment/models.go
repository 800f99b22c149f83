package assignment

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the state of a submission: submitted|late -> graded, with
// resubmission allowed until it is graded.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusLate      Status = "late"
	StatusGraded    Status = "graded"
)

const DefaultTotalMarks = 100

// Submission is embedded in its Assignment, at most one per student.
type Submission struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Student     primitive.ObjectID `bson:"student" json:"student"`
	Content     string             `bson:"content,omitempty" json:"content,omitempty"`
	FileURL     string             `bson:"file_url,omitempty" json:"fileUrl,omitempty"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submittedAt"`
	Marks       *float64           `bson:"marks,omitempty" json:"marks,omitempty"`
	Feedback    string             `bson:"feedback,omitempty" json:"feedback,omitempty"`
	GradedAt    *time.Time         `bson:"graded_at,omitempty" json:"gradedAt,omitempty"`
	Status      Status             `bson:"status" json:"status"`
}

type Assignment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Course      primitive.ObjectID `bson:"course" json:"course"`
	DueDate     time.Time          `bson:"due_date" json:"dueDate"`
	TotalMarks  float64            `bson:"total_marks" json:"totalMarks"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`
	Submissions []Submission       `bson:"submissions" json:"submissions"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// SubmissionBy returns the submission of student, if any.
func (a *Assignment) SubmissionBy(student primitive.ObjectID) *Submission {
	for i := range a.Submissions {
		if a.Submissions[i].Student == student {
			return &a.Submissions[i]
		}
	}
	return nil
}

// SubmissionByID returns the submission with the given id, if any.
func (a *Assignment) SubmissionByID(id primitive.ObjectID) *Submission {
	for i := range a.Submissions {
		if a.Submissions[i].ID == id {
			return &a.Submissions[i]
		}
	}
	return nil
}

// HighestMarks returns the best marks awarded so far, 0 when nothing is graded.
func (a *Assignment) HighestMarks() float64 {
	var highest float64
	for _, sub := range a.Submissions {
		if sub.Marks != nil && *sub.Marks > highest {
			highest = *sub.Marks
		}
	}
	return highest
}

// Summary is the trimmed assignment returned next to its submissions.
type Summary struct {
	ID         primitive.ObjectID `json:"_id"`
	Title      string             `json:"title"`
	Course     primitive.ObjectID `json:"course"`
	DueDate    time.Time          `json:"dueDate"`
	TotalMarks float64            `json:"totalMarks"`
}

type SubmissionsResponse struct {
	Assignment  Summary      `json:"assignment"`
	Submissions []Submission `json:"submissions"`
}

// Patch lists the assignment fields an update may change. Nil means unchanged.
type Patch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	TotalMarks  *float64
}

type CreateAssignmentRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Course      string   `json:"course" validate:"required"`
	DueDate     string   `json:"dueDate" validate:"required"`
	TotalMarks  *float64 `json:"totalMarks" validate:"omitempty,gt=0"`
}

type UpdateAssignmentRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty,min=1"`
	DueDate     *string  `json:"dueDate"`
	TotalMarks  *float64 `json:"totalMarks" validate:"omitempty,gt=0"`
}

type SubmitRequest struct {
	Content string `json:"content"`
	FileURL string `json:"fileUrl" validate:"omitempty,url"`
}

type GradeRequest struct {
	Marks    *float64 `json:"marks" validate:"required,gte=0"`
	Feedback string   `json:"feedback"`
}
