// Package testutil wires the services over the in-memory store for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"CampusPortal/internal/assignment"
	"CampusPortal/internal/attendance"
	"CampusPortal/internal/auth"
	"CampusPortal/internal/course"
	"CampusPortal/internal/event"
	"CampusPortal/internal/mail"
	"CampusPortal/internal/metrics"
	"CampusPortal/internal/notification"
	"CampusPortal/internal/rbac"
	"CampusPortal/internal/storage/memstore"
)

type Fixture struct {
	Store      *memstore.Store
	Metrics    *metrics.Metrics
	Dispatcher *notification.Dispatcher

	Courses       *course.CourseService
	Assignments   *assignment.AssignmentService
	Attendance    *attendance.AttendanceService
	Notifications *notification.NotificationService

	seq int
}

// New wires every service over a fresh memstore. wrap, when given, decorates
// the notification repository the dispatcher writes to.
func New(t testing.TB, wrap ...func(notification.Repository) notification.Repository) *Fixture {
	t.Helper()

	store := memstore.New()
	logger := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())

	var repo notification.Repository = store.Notifications()
	for _, w := range wrap {
		repo = w(repo)
	}
	dispatcher := notification.NewDispatcher(store.Events(), repo, store.Users(), mail.Noop{}, m,
		notification.DispatcherConfig{MaxAttempts: 3, RetryDelay: time.Millisecond, Clock: clock.WallClock}, logger)

	courses := course.NewCourseService(store.Courses(), store.Users(), dispatcher, logger)
	return &Fixture{
		Store:         store,
		Metrics:       m,
		Dispatcher:    dispatcher,
		Courses:       courses,
		Assignments:   assignment.NewAssignmentService(store.Assignments(), courses, dispatcher, logger),
		Attendance:    attendance.NewAttendanceService(store.Attendance(), courses, dispatcher, logger),
		Notifications: notification.NewNotificationService(store.Notifications(), logger),
	}
}

// User stores a user with the given role and returns its principal.
func (f *Fixture) User(t testing.TB, role rbac.Role) rbac.Principal {
	t.Helper()
	f.seq++
	now := time.Now().UTC()
	u := &auth.User{
		ID:        primitive.NewObjectID(),
		Name:      fmt.Sprintf("%s %d", role, f.seq),
		Email:     fmt.Sprintf("%s%d@campus.edu", role, f.seq),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.Store.Users().CreateUser(context.Background(), u))
	return u.Principal()
}

// Course stores a course taught by instructor with students enrolled, without
// publishing enrollment events.
func (f *Fixture) Course(t testing.TB, instructor rbac.Principal, students ...rbac.Principal) *course.Course {
	t.Helper()
	ctx := context.Background()
	f.seq++
	c, err := f.Courses.CreateCourse(ctx, instructor, course.CreateCourseRequest{
		Code:  fmt.Sprintf("CS%03d", f.seq),
		Title: "Course " + fmt.Sprint(f.seq),
	})
	require.NoError(t, err)
	for _, s := range students {
		added, err := f.Store.Courses().AddStudent(ctx, c.ID, s.ID)
		require.NoError(t, err)
		require.True(t, added)
	}
	c, err = f.Courses.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	return c
}

// NotificationsFor returns every notification of p, newest first.
func (f *Fixture) NotificationsFor(t testing.TB, p rbac.Principal) []*notification.Notification {
	t.Helper()
	ns, err := f.Store.Notifications().FindByRecipient(context.Background(), p.ID, false)
	require.NoError(t, err)
	return ns
}

// Events returns every outbox event, oldest first.
func (f *Fixture) Events() []*event.Event {
	return f.Store.Events().All()
}
