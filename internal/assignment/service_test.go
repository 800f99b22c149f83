package assignment_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/assignment"
	"CampusPortal/internal/course"
	"CampusPortal/internal/notification"
	"CampusPortal/internal/rbac"
	"CampusPortal/internal/testutil"
)

func marks(v float64) *float64 { return &v }

type world struct {
	*testutil.Fixture
	faculty, other, admin rbac.Principal
	alice, bob, carol     rbac.Principal
	course                *course.Course
}

func setup(t *testing.T) *world {
	f := testutil.New(t)
	w := &world{Fixture: f}
	w.faculty = f.User(t, rbac.Faculty)
	w.other = f.User(t, rbac.Faculty)
	w.admin = f.User(t, rbac.Admin)
	w.alice = f.User(t, rbac.Student)
	w.bob = f.User(t, rbac.Student)
	w.carol = f.User(t, rbac.Student)
	w.course = f.Course(t, w.faculty, w.alice, w.bob)
	return w
}

func (w *world) create(t *testing.T, due string) *assignment.Assignment {
	t.Helper()
	a, err := w.Assignments.CreateAssignment(context.Background(), w.faculty, assignment.CreateAssignmentRequest{
		Title:       "Essay",
		Description: "Write an essay",
		Course:      w.course.ID.Hex(),
		DueDate:     due,
	})
	require.NoError(t, err)
	return a
}

func TestCreateAssignmentNotifiesEnrolledStudents(t *testing.T) {
	w := setup(t)
	a := w.create(t, "2099-12-31")

	assert.Equal(t, float64(assignment.DefaultTotalMarks), a.TotalMarks)
	assert.Equal(t, time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC), a.DueDate)

	for _, s := range []rbac.Principal{w.alice, w.bob} {
		ns := w.NotificationsFor(t, s)
		require.Len(t, ns, 1)
		assert.Equal(t, notification.TypeAssignment, ns[0].Type)
		assert.Equal(t, a.ID, ns[0].RelatedTo.ID)
		assert.Equal(t, "New Assignment: Essay", ns[0].Title)
		require.NotNil(t, ns[0].Sender)
		assert.Equal(t, w.faculty.ID, *ns[0].Sender)
	}
	assert.Empty(t, w.NotificationsFor(t, w.carol))
}

func TestCreateAssignmentRejections(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	req := assignment.CreateAssignmentRequest{Title: "T", Description: "D", Course: w.course.ID.Hex(), DueDate: "2099-01-01"}

	_, err := w.Assignments.CreateAssignment(ctx, w.other, req)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	missing := req
	missing.Course = primitive.NewObjectID().Hex()
	_, err = w.Assignments.CreateAssignment(ctx, w.faculty, missing)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	badDate := req
	badDate.DueDate = "next tuesday"
	_, err = w.Assignments.CreateAssignment(ctx, w.faculty, badDate)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	// admins may create for any course
	_, err = w.Assignments.CreateAssignment(ctx, w.admin, req)
	assert.NoError(t, err)
}

func TestListAssignmentsIsScopedByRole(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	later := w.create(t, "2099-06-01")
	sooner := w.create(t, "2099-01-01")

	otherCourse := w.Course(t, w.other, w.carol)
	_, err := w.Assignments.CreateAssignment(ctx, w.other, assignment.CreateAssignmentRequest{
		Title: "Lab", Description: "Lab work", Course: otherCourse.ID.Hex(), DueDate: "2099-03-01",
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		caller rbac.Principal
		want   int
	}{
		{"enrolled student", w.alice, 2},
		{"student of other course", w.carol, 1},
		{"instructor", w.faculty, 2},
		{"other instructor", w.other, 1},
		{"admin", w.admin, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.Assignments.ListAssignments(ctx, tt.caller)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	got, err := w.Assignments.ListAssignments(ctx, w.alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sooner.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestStudentsOnlySeeTheirOwnSubmission(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")

	for _, s := range []rbac.Principal{w.alice, w.bob} {
		_, err := w.Assignments.Submit(ctx, s, a.ID, assignment.SubmitRequest{Content: "mine"})
		require.NoError(t, err)
	}

	view, err := w.Assignments.GetAssignment(ctx, w.alice, a.ID)
	require.NoError(t, err)
	require.Len(t, view.Submissions, 1)
	assert.Equal(t, w.alice.ID, view.Submissions[0].Student)

	full, err := w.Assignments.GetAssignment(ctx, w.faculty, a.ID)
	require.NoError(t, err)
	assert.Len(t, full.Submissions, 2)

	list, err := w.Assignments.ListAssignments(ctx, w.bob)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Submissions, 1)
	assert.Equal(t, w.bob.ID, list[0].Submissions[0].Student)
}

func TestSubmitTwiceKeepsOneSubmission(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")

	first, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "draft"})
	require.NoError(t, err)
	second, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "final", FileURL: "https://files.campus.edu/final.pdf"})
	require.NoError(t, err)

	assert.Equal(t, first.Submissions[0].ID, second.Submissions[0].ID)

	stored, err := w.Store.Assignments().FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, stored.Submissions, 1)
	sub := stored.Submissions[0]
	assert.Equal(t, "final", sub.Content)
	assert.Equal(t, "https://files.campus.edu/final.pdf", sub.FileURL)
	assert.Equal(t, assignment.StatusSubmitted, sub.Status)
}

func TestSubmitRejections(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")

	_, err := w.Assignments.Submit(ctx, w.carol, a.ID, assignment.SubmitRequest{Content: "x"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "not enrolled")

	_, err = w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "  "})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "empty body")

	_, err = w.Assignments.Submit(ctx, w.alice, primitive.NewObjectID(), assignment.SubmitRequest{Content: "x"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSubmitAfterDueDateIsLate(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2020-01-01")

	view, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "sorry"})
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusLate, view.Submissions[0].Status)

	view, err = w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "sorry again"})
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusLate, view.Submissions[0].Status)
}

func TestGradeNotifiesStudentOnce(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")
	view, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "answer"})
	require.NoError(t, err)
	subID := view.Submissions[0].ID

	graded, err := w.Assignments.Grade(ctx, w.faculty, a.ID, subID, assignment.GradeRequest{Marks: marks(45), Feedback: "Good"})
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusGraded, graded.Status)
	require.NotNil(t, graded.Marks)
	assert.Equal(t, 45.0, *graded.Marks)
	assert.NotNil(t, graded.GradedAt)

	before, err := w.Store.Assignments().FindByID(ctx, a.ID)
	require.NoError(t, err)

	again, err := w.Assignments.Grade(ctx, w.faculty, a.ID, subID, assignment.GradeRequest{Marks: marks(45), Feedback: "Good"})
	require.NoError(t, err)
	assert.Equal(t, *graded.GradedAt, *again.GradedAt)

	after, err := w.Store.Assignments().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	var grades int
	for _, n := range w.NotificationsFor(t, w.alice) {
		if n.Type == notification.TypeGrade {
			grades++
			assert.Equal(t, a.ID, n.RelatedTo.ID)
		}
	}
	assert.Equal(t, 1, grades)

	// a different grade is a regrade and notifies again
	_, err = w.Assignments.Grade(ctx, w.faculty, a.ID, subID, assignment.GradeRequest{Marks: marks(50), Feedback: "Better"})
	require.NoError(t, err)
	grades = 0
	for _, n := range w.NotificationsFor(t, w.alice) {
		if n.Type == notification.TypeGrade {
			grades++
		}
	}
	assert.Equal(t, 2, grades)
}

func TestGradeRejections(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")
	view, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "answer"})
	require.NoError(t, err)
	subID := view.Submissions[0].ID

	_, err = w.Assignments.Grade(ctx, w.faculty, a.ID, subID, assignment.GradeRequest{Marks: marks(101)})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "above total marks")

	_, err = w.Assignments.Grade(ctx, w.faculty, a.ID, subID, assignment.GradeRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "marks missing")

	_, err = w.Assignments.Grade(ctx, w.other, a.ID, subID, assignment.GradeRequest{Marks: marks(10)})
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "not the instructor")

	_, err = w.Assignments.Grade(ctx, w.faculty, a.ID, primitive.NewObjectID(), assignment.GradeRequest{Marks: marks(10)})
	assert.ErrorIs(t, err, assignment.ErrSubmissionNotFound)

	_, err = w.Assignments.Grade(ctx, w.faculty, primitive.NewObjectID(), subID, assignment.GradeRequest{Marks: marks(10)})
	assert.ErrorIs(t, err, assignment.ErrNotFound)
}

func TestResubmittingGradedWorkConflicts(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")
	view, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "answer"})
	require.NoError(t, err)
	_, err = w.Assignments.Grade(ctx, w.faculty, a.ID, view.Submissions[0].ID, assignment.GradeRequest{Marks: marks(80)})
	require.NoError(t, err)

	_, err = w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "new answer"})
	assert.ErrorIs(t, err, assignment.ErrAlreadyGraded)

	stored, err := w.Store.Assignments().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "answer", stored.Submissions[0].Content)
}

func TestSubmissionsAndUpdates(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")
	_, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "answer"})
	require.NoError(t, err)

	res, err := w.Assignments.Submissions(ctx, w.faculty, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, res.Assignment.ID)
	assert.Len(t, res.Submissions, 1)

	_, err = w.Assignments.Submissions(ctx, w.other, a.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	title, total, due := "Essay v2", 50.0, "2099-11-30"
	updated, err := w.Assignments.UpdateAssignment(ctx, w.faculty, a.ID, assignment.UpdateAssignmentRequest{Title: &title, TotalMarks: &total, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "Essay v2", updated.Title)
	assert.Equal(t, 50.0, updated.TotalMarks)
	assert.Equal(t, "Write an essay", updated.Description)
	assert.Equal(t, 2099, updated.DueDate.Year())
	assert.Equal(t, time.November, updated.DueDate.Month())

	require.NoError(t, w.Assignments.DeleteAssignment(ctx, w.faculty, a.ID))
	_, err = w.Assignments.GetAssignment(ctx, w.faculty, a.ID)
	assert.ErrorIs(t, err, assignment.ErrNotFound)
}

func TestAssignmentWorkflowBeforeTheDueDate(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	assignment.SetClock(w.Assignments, func() time.Time { return time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC) })

	a, err := w.Assignments.CreateAssignment(ctx, w.faculty, assignment.CreateAssignmentRequest{
		Title:       "HW1",
		Description: "...",
		Course:      w.course.ID.Hex(),
		DueDate:     "2025-01-01",
		TotalMarks:  marks(50),
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, a.TotalMarks)

	var created int
	for _, s := range []rbac.Principal{w.alice, w.bob} {
		for _, n := range w.NotificationsFor(t, s) {
			if n.Type == notification.TypeAssignment && n.RelatedTo.ID == a.ID {
				created++
			}
		}
	}
	assert.Equal(t, 2, created)

	view, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "done"})
	require.NoError(t, err)
	require.Len(t, view.Submissions, 1)
	assert.Equal(t, assignment.StatusSubmitted, view.Submissions[0].Status)

	graded, err := w.Assignments.Grade(ctx, w.faculty, a.ID, view.Submissions[0].ID, assignment.GradeRequest{Marks: marks(45), Feedback: "good"})
	require.NoError(t, err)
	require.NotNil(t, graded.Marks)
	assert.Equal(t, 45.0, *graded.Marks)
	assert.Equal(t, assignment.StatusGraded, graded.Status)

	var grades []*notification.Notification
	for _, n := range w.NotificationsFor(t, w.alice) {
		if n.Type == notification.TypeGrade {
			grades = append(grades, n)
		}
	}
	require.Len(t, grades, 1)
	assert.Equal(t, w.alice.ID, grades[0].Recipient)
	for _, n := range w.NotificationsFor(t, w.bob) {
		assert.NotEqual(t, notification.TypeGrade, n.Type)
	}
}

func TestConcurrentSubmitsKeepOneSubmission(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: fmt.Sprintf("draft %d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	stored, err := w.Store.Assignments().FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, stored.Submissions, 1)
	assert.Equal(t, w.alice.ID, stored.Submissions[0].Student)
	assert.Contains(t, stored.Submissions[0].Content, "draft ")
}

func TestTotalMarksCannotDropBelowAwardedMarks(t *testing.T) {
	w := setup(t)
	ctx := context.Background()
	a := w.create(t, "2099-12-31")
	view, err := w.Assignments.Submit(ctx, w.alice, a.ID, assignment.SubmitRequest{Content: "answer"})
	require.NoError(t, err)
	_, err = w.Assignments.Grade(ctx, w.faculty, a.ID, view.Submissions[0].ID, assignment.GradeRequest{Marks: marks(80)})
	require.NoError(t, err)

	lower := 50.0
	_, err = w.Assignments.UpdateAssignment(ctx, w.faculty, a.ID, assignment.UpdateAssignmentRequest{TotalMarks: &lower})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "totalMarks")

	stored, err := w.Store.Assignments().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(assignment.DefaultTotalMarks), stored.TotalMarks)

	exact := 80.0
	updated, err := w.Assignments.UpdateAssignment(ctx, w.faculty, a.ID, assignment.UpdateAssignmentRequest{TotalMarks: &exact})
	require.NoError(t, err)
	assert.Equal(t, 80.0, updated.TotalMarks)
}

func TestBlankTitlesAreRejected(t *testing.T) {
	w := setup(t)
	ctx := context.Background()

	_, err := w.Assignments.CreateAssignment(ctx, w.faculty, assignment.CreateAssignmentRequest{
		Title: "   ", Description: "D", Course: w.course.ID.Hex(), DueDate: "2099-01-01",
	})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "title")

	a, err := w.Assignments.CreateAssignment(ctx, w.faculty, assignment.CreateAssignmentRequest{
		Title: "  Essay  ", Description: " D ", Course: w.course.ID.Hex(), DueDate: "2099-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Essay", a.Title)
	assert.Equal(t, "D", a.Description)

	blank := " "
	_, err = w.Assignments.UpdateAssignment(ctx, w.faculty, a.ID, assignment.UpdateAssignmentRequest{Title: &blank})
	ae, ok = apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "title")

	stored, err := w.Store.Assignments().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Essay", stored.Title)
}
