package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/event"
)

// Type classifies a notification for the client.
type Type string

const (
	TypeAssignment   Type = "assignment"
	TypeAttendance   Type = "attendance"
	TypeGrade        Type = "grade"
	TypeAnnouncement Type = "announcement"
	TypeEvent        Type = "event"
	TypeMessage      Type = "message"
	TypeSystem       Type = "system"
)

// TypeFor maps an event kind to the notification type its recipients see.
func TypeFor(kind event.Kind) Type {
	switch kind {
	case event.AssignmentCreated:
		return TypeAssignment
	case event.MaterialAdded:
		return TypeAnnouncement
	case event.StudentAbsent:
		return TypeAttendance
	case event.GradePosted:
		return TypeGrade
	default:
		return TypeSystem
	}
}

type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Recipient primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Sender    *primitive.ObjectID `bson:"sender,omitempty" json:"sender,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Type      Type                `bson:"type" json:"type"`
	RelatedTo event.Ref           `bson:"related_to" json:"relatedTo"`
	Read      bool                `bson:"read" json:"read"`
	ReadAt    *time.Time          `bson:"read_at,omitempty" json:"readAt,omitempty"`
	// EventID is the outbox event this notification was fanned out from.
	EventID   *primitive.ObjectID `bson:"event_id,omitempty" json:"eventId,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}

// FromEvent builds one unread notification per recipient of ev.
func FromEvent(ev *event.Event, now time.Time) []*Notification {
	out := make([]*Notification, 0, len(ev.Recipients))
	typ := TypeFor(ev.Kind)
	for _, r := range ev.Recipients {
		eventID := ev.ID
		out = append(out, &Notification{
			ID:        primitive.NewObjectID(),
			Recipient: r,
			Sender:    ev.Sender,
			Title:     ev.Title,
			Message:   ev.Message,
			Type:      typ,
			RelatedTo: ev.RelatedTo,
			EventID:   &eventID,
			CreatedAt: now,
		})
	}
	return out
}

type UnreadCount struct {
	Count int64 `json:"count"`
}
