package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/event"
	"CampusPortal/internal/notification"
	"CampusPortal/internal/rbac"
	"CampusPortal/internal/testutil"
)

func TestNotificationInbox(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	faculty := f.User(t, rbac.Faculty)
	student := f.User(t, rbac.Student)
	other := f.User(t, rbac.Student)

	for _, title := range []string{"first", "second", "third"} {
		f.Dispatcher.Publish(ctx, event.New(event.MaterialAdded, faculty.ID, []primitive.ObjectID{student.ID}, event.Ref{Model: "Course"}, title, title))
	}

	all, err := f.Notifications.List(ctx, student, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)
	assert.Equal(t, "first", all[2].Title)

	count, err := f.Notifications.UnreadCount(ctx, student)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count.Count)

	_, err = f.Notifications.MarkRead(ctx, other, all[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = f.Notifications.MarkRead(ctx, student, primitive.NewObjectID())
	assert.ErrorIs(t, err, notification.ErrNotFound)

	read, err := f.Notifications.MarkRead(ctx, student, all[0].ID)
	require.NoError(t, err)
	assert.True(t, read.Read)
	require.NotNil(t, read.ReadAt)

	again, err := f.Notifications.MarkRead(ctx, student, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, *read.ReadAt, *again.ReadAt)

	unread, err := f.Notifications.List(ctx, student, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	updated, err := f.Notifications.MarkAllRead(ctx, student)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	count, err = f.Notifications.UnreadCount(ctx, student)
	require.NoError(t, err)
	assert.Zero(t, count.Count)

	mine, err := f.Notifications.List(ctx, other, false)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestTypeFor(t *testing.T) {
	tests := map[event.Kind]notification.Type{
		event.AssignmentCreated: notification.TypeAssignment,
		event.MaterialAdded:     notification.TypeAnnouncement,
		event.CourseEnrolled:    notification.TypeSystem,
		event.StudentAbsent:     notification.TypeAttendance,
		event.GradePosted:       notification.TypeGrade,
	}
	for kind, want := range tests {
		assert.Equal(t, want, notification.TypeFor(kind), kind)
	}
}
