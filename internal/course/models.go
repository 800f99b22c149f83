package course

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Material is a file attached to a course.
type Material struct {
	Title      string    `bson:"title" json:"title"`
	FileURL    string    `bson:"file_url" json:"fileUrl"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploadedAt"`
}

// Course is a teaching unit. Membership in Students is enrollment.
type Course struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Code        string               `bson:"code" json:"code"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Instructor  primitive.ObjectID   `bson:"instructor" json:"instructor"`
	Students    []primitive.ObjectID `bson:"students" json:"students"`
	Schedule    string               `bson:"schedule,omitempty" json:"schedule,omitempty"`
	Materials   []Material           `bson:"materials" json:"materials"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updatedAt"`
}

// HasStudent reports whether id is enrolled.
func (c *Course) HasStudent(id primitive.ObjectID) bool {
	for _, s := range c.Students {
		if s == id {
			return true
		}
	}
	return false
}

type CreateCourseRequest struct {
	Code        string `json:"code" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
	// Instructor is required when an admin creates the course; faculty always
	// instruct their own courses.
	Instructor string `json:"instructor"`
}

type AddStudentRequest struct {
	Student string `json:"student" validate:"required"`
}

type AddMaterialRequest struct {
	Title   string `json:"title" validate:"required"`
	FileURL string `json:"fileUrl" validate:"required,url"`
}
