// Package event holds the outbox of domain events that fan out into
// notifications.
package event

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind names a domain event.
type Kind string

const (
	AssignmentCreated Kind = "assignment.created"
	MaterialAdded     Kind = "course.material_added"
	CourseEnrolled    Kind = "course.enrolled"
	StudentAbsent     Kind = "attendance.absent"
	GradePosted       Kind = "grade.posted"
)

// Status of an outbox event.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Ref is a loose back-reference to the document an event is about.
type Ref struct {
	Model string             `bson:"model" json:"model"`
	ID    primitive.ObjectID `bson:"id" json:"id"`
}

type Event struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Kind       Kind                 `bson:"kind" json:"kind"`
	Sender     *primitive.ObjectID  `bson:"sender,omitempty" json:"sender,omitempty"`
	Recipients []primitive.ObjectID `bson:"recipients" json:"recipients"`
	Title      string               `bson:"title" json:"title"`
	Message    string               `bson:"message" json:"message"`
	RelatedTo  Ref                  `bson:"related_to" json:"relatedTo"`
	Status     Status               `bson:"status" json:"status"`
	Attempts   int                  `bson:"attempts" json:"attempts"`
	LastError  string               `bson:"last_error,omitempty" json:"lastError,omitempty"`
	CreatedAt  time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updated_at" json:"updatedAt"`
}

// Publisher accepts domain events. Publishing is best-effort and never fails
// the caller.
type Publisher interface {
	Publish(ctx context.Context, ev *Event)
}

// New builds a pending event about ref, sent by sender to recipients.
func New(kind Kind, sender primitive.ObjectID, recipients []primitive.ObjectID, ref Ref, title, message string) *Event {
	ev := &Event{
		Kind:       kind,
		Recipients: recipients,
		Title:      title,
		Message:    message,
		RelatedTo:  ref,
		Status:     StatusPending,
	}
	if !sender.IsZero() {
		s := sender
		ev.Sender = &s
	}
	return ev
}
