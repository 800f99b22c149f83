package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/course"
	"CampusPortal/internal/notification"
	"CampusPortal/internal/rbac"
	"CampusPortal/internal/testutil"
)

func TestCreateCourse(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	faculty := f.User(t, rbac.Faculty)
	admin := f.User(t, rbac.Admin)
	student := f.User(t, rbac.Student)

	c, err := f.Courses.CreateCourse(ctx, faculty, course.CreateCourseRequest{Code: " cs101 ", Title: "Intro"})
	require.NoError(t, err)
	assert.Equal(t, "CS101", c.Code)
	assert.Equal(t, faculty.ID, c.Instructor)
	assert.Empty(t, c.Students)

	_, err = f.Courses.CreateCourse(ctx, faculty, course.CreateCourseRequest{Code: "CS101", Title: "Again"})
	assert.ErrorIs(t, err, course.ErrCodeTaken)

	_, err = f.Courses.CreateCourse(ctx, admin, course.CreateCourseRequest{Code: "CS102", Title: "No instructor"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.Courses.CreateCourse(ctx, admin, course.CreateCourseRequest{Code: "CS102", Title: "Student instructor", Instructor: student.ID.Hex()})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	c, err = f.Courses.CreateCourse(ctx, admin, course.CreateCourseRequest{Code: "CS102", Title: "Assigned", Instructor: faculty.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, faculty.ID, c.Instructor)

	all, err := f.Courses.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "CS101", all[0].Code)
}

func TestEnrollNotifiesStudent(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	faculty := f.User(t, rbac.Faculty)
	student := f.User(t, rbac.Student)
	c := f.Course(t, faculty)

	enrolled, err := f.Courses.Enroll(ctx, student, c.ID)
	require.NoError(t, err)
	assert.True(t, enrolled.HasStudent(student.ID))

	_, err = f.Courses.Enroll(ctx, student, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	ns := f.NotificationsFor(t, student)
	require.Len(t, ns, 1)
	assert.Equal(t, notification.TypeSystem, ns[0].Type)
	assert.Equal(t, c.ID, ns[0].RelatedTo.ID)

	mine, err := f.Courses.CoursesFor(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c.ID, mine[0].ID)
}

func TestAddStudent(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	faculty := f.User(t, rbac.Faculty)
	other := f.User(t, rbac.Faculty)
	admin := f.User(t, rbac.Admin)
	student := f.User(t, rbac.Student)
	c := f.Course(t, faculty)

	_, err := f.Courses.AddStudent(ctx, other, c.ID, course.AddStudentRequest{Student: student.ID.Hex()})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.Courses.AddStudent(ctx, faculty, c.ID, course.AddStudentRequest{Student: other.ID.Hex()})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "only students can be enrolled")

	_, err = f.Courses.AddStudent(ctx, faculty, primitive.NewObjectID(), course.AddStudentRequest{Student: student.ID.Hex()})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.Courses.AddStudent(ctx, admin, c.ID, course.AddStudentRequest{Student: student.ID.Hex()})
	require.NoError(t, err)

	ns := f.NotificationsFor(t, student)
	require.Len(t, ns, 1)
	require.NotNil(t, ns[0].Sender)
	assert.Equal(t, faculty.ID, *ns[0].Sender)
}

func TestAddMaterialNotifiesEnrolledStudents(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	faculty := f.User(t, rbac.Faculty)
	a, b := f.User(t, rbac.Student), f.User(t, rbac.Student)
	outsider := f.User(t, rbac.Student)
	c := f.Course(t, faculty, a, b)

	req := course.AddMaterialRequest{Title: "Slides", FileURL: "https://files.campus.edu/w1.pdf"}
	_, err := f.Courses.AddMaterial(ctx, f.User(t, rbac.Faculty), c.ID, req)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := f.Courses.AddMaterial(ctx, faculty, c.ID, req)
	require.NoError(t, err)
	require.Len(t, updated.Materials, 1)

	stored, err := f.Courses.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Materials, 1)

	for _, s := range []rbac.Principal{a, b} {
		ns := f.NotificationsFor(t, s)
		require.Len(t, ns, 1)
		assert.Equal(t, notification.TypeAnnouncement, ns[0].Type)
	}
	assert.Empty(t, f.NotificationsFor(t, outsider))
}
