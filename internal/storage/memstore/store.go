// Package memstore is an in-memory stand-in for the MongoDB repositories.
// It mirrors their atomicity and uniqueness rules and is used when
// STORE_DRIVER=memory and by tests.
package memstore

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/assignment"
	"CampusPortal/internal/attendance"
	"CampusPortal/internal/auth"
	"CampusPortal/internal/course"
	"CampusPortal/internal/event"
	"CampusPortal/internal/notification"
)

// Store holds every collection behind one lock.
type Store struct {
	mu sync.RWMutex

	users         map[primitive.ObjectID]*auth.User
	courses       map[primitive.ObjectID]*course.Course
	assignments   map[primitive.ObjectID]*assignment.Assignment
	attendance    map[primitive.ObjectID]*attendance.Attendance
	notifications map[primitive.ObjectID]*notification.Notification
	events        map[primitive.ObjectID]*event.Event
}

func New() *Store {
	return &Store{
		users:         map[primitive.ObjectID]*auth.User{},
		courses:       map[primitive.ObjectID]*course.Course{},
		assignments:   map[primitive.ObjectID]*assignment.Assignment{},
		attendance:    map[primitive.ObjectID]*attendance.Attendance{},
		notifications: map[primitive.ObjectID]*notification.Notification{},
		events:        map[primitive.ObjectID]*event.Event{},
	}
}

func (s *Store) Users() *UserRepository                 { return &UserRepository{s} }
func (s *Store) Courses() *CourseRepository             { return &CourseRepository{s} }
func (s *Store) Assignments() *AssignmentRepository     { return &AssignmentRepository{s} }
func (s *Store) Attendance() *AttendanceRepository      { return &AttendanceRepository{s} }
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s} }
func (s *Store) Events() *EventRepository               { return &EventRepository{s} }

// clone round-trips v through BSON so callers never share memory with the
// store and see the same precision MongoDB would return.
func clone[T any](v *T) *T {
	data, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := bson.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}
