package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/course"
	"CampusPortal/internal/event"
	"CampusPortal/internal/helper"
	"CampusPortal/internal/rbac"
)

// CourseReader gives the assignment service read access to courses.
type CourseReader interface {
	GetCourse(ctx context.Context, id primitive.ObjectID) (*course.Course, error)
	CoursesFor(ctx context.Context, caller rbac.Principal) ([]*course.Course, error)
}

type AssignmentService struct {
	repo      Repository
	courses   CourseReader
	publisher event.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewAssignmentService(repo Repository, courses CourseReader, publisher event.Publisher, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{
		repo:      repo,
		courses:   courses,
		publisher: publisher,
		logger:    logger.Named("assignment"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// blankFields trims the given values in place and reports the ones left
// empty. Nil values are absent and skipped.
func blankFields(values map[string]*string) error {
	fields := map[string]string{}
	for name, v := range values {
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if *v == "" {
			fields[name] = "must not be blank"
		}
	}
	if len(fields) > 0 {
		return apperr.ValidationFields("Invalid request", fields)
	}
	return nil
}

// visibleTo trims a for caller: students only see their own submission.
func visibleTo(a *Assignment, caller rbac.Principal) *Assignment {
	if caller.Role != rbac.Student {
		return a
	}
	view := *a
	view.Submissions = []Submission{}
	if sub := a.SubmissionBy(caller.ID); sub != nil {
		view.Submissions = append(view.Submissions, *sub)
	}
	return &view
}

func (s *AssignmentService) load(ctx context.Context, id primitive.ObjectID) (*Assignment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// loadInstructed loads an assignment whose course the caller instructs.
func (s *AssignmentService) loadInstructed(ctx context.Context, caller rbac.Principal, id primitive.ObjectID) (*Assignment, *course.Course, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.courses.GetCourse(ctx, a.Course)
	if err != nil {
		return nil, nil, err
	}
	if caller.Role != rbac.Admin && c.Instructor != caller.ID {
		return nil, nil, apperr.Forbidden("You do not instruct this course")
	}
	return a, c, nil
}

// ListAssignments returns the assignments visible to caller ordered by due
// date.
func (s *AssignmentService) ListAssignments(ctx context.Context, caller rbac.Principal) ([]*Assignment, error) {
	var (
		assignments []*Assignment
		err         error
	)
	if caller.Role == rbac.Admin {
		assignments, err = s.repo.FindAll(ctx)
	} else {
		var courses []*course.Course
		courses, err = s.courses.CoursesFor(ctx, caller)
		if err != nil {
			return nil, err
		}
		ids := make([]primitive.ObjectID, 0, len(courses))
		for _, c := range courses {
			ids = append(ids, c.ID)
		}
		assignments, err = s.repo.FindByCourses(ctx, ids)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*Assignment, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, visibleTo(a, caller))
	}
	return out, nil
}

// CreateAssignment stores a new assignment and notifies every enrolled
// student.
func (s *AssignmentService) CreateAssignment(ctx context.Context, caller rbac.Principal, req CreateAssignmentRequest) (*Assignment, error) {
	title, description := strings.TrimSpace(req.Title), strings.TrimSpace(req.Description)
	if err := blankFields(map[string]*string{"title": &title, "description": &description}); err != nil {
		return nil, err
	}
	courseID, err := helper.ParseObjectID(req.Course, "course")
	if err != nil {
		return nil, err
	}
	due, err := helper.ParseDeadline(req.DueDate)
	if err != nil {
		return nil, apperr.ValidationFields("Invalid request", map[string]string{"dueDate": "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"})
	}
	c, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if caller.Role == rbac.Faculty && c.Instructor != caller.ID {
		return nil, apperr.Forbidden("You do not instruct this course")
	}

	totalMarks := float64(DefaultTotalMarks)
	if req.TotalMarks != nil {
		totalMarks = *req.TotalMarks
	}
	now := s.now()
	a := &Assignment{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		Course:      c.ID,
		DueDate:     due,
		TotalMarks:  totalMarks,
		CreatedBy:   caller.ID,
		Submissions: []Submission{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("assignment created",
		zap.String("assignment", a.ID.Hex()),
		zap.String("course", c.Code),
		zap.Int("students", len(c.Students)))

	if len(c.Students) > 0 {
		s.publisher.Publish(ctx, event.New(event.AssignmentCreated, caller.ID, c.Students,
			event.Ref{Model: "Assignment", ID: a.ID},
			"New Assignment: "+a.Title,
			fmt.Sprintf("A new assignment %q has been posted in %s. Due %s.", a.Title, c.Code, a.DueDate.Format("2006-01-02 15:04 MST"))))
	}
	return a, nil
}

func (s *AssignmentService) GetAssignment(ctx context.Context, caller rbac.Principal, id primitive.ObjectID) (*Assignment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return visibleTo(a, caller), nil
}

// UpdateAssignment applies a partial update. totalMarks may not drop below
// marks already awarded.
func (s *AssignmentService) UpdateAssignment(ctx context.Context, caller rbac.Principal, id primitive.ObjectID, req UpdateAssignmentRequest) (*Assignment, error) {
	a, _, err := s.loadInstructed(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := blankFields(map[string]*string{"title": req.Title, "description": req.Description}); err != nil {
		return nil, err
	}
	if req.TotalMarks != nil {
		if highest := a.HighestMarks(); *req.TotalMarks < highest {
			return nil, apperr.ValidationFields("Invalid request", map[string]string{
				"totalMarks": fmt.Sprintf("must be at least %g, the highest marks already awarded", highest),
			})
		}
	}

	p := Patch{Title: req.Title, Description: req.Description, TotalMarks: req.TotalMarks}
	if req.DueDate != nil {
		due, err := helper.ParseDeadline(*req.DueDate)
		if err != nil {
			return nil, apperr.ValidationFields("Invalid request", map[string]string{"dueDate": "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"})
		}
		p.DueDate = &due
	}
	return s.repo.Update(ctx, id, p)
}

func (s *AssignmentService) DeleteAssignment(ctx context.Context, caller rbac.Principal, id primitive.ObjectID) error {
	if _, _, err := s.loadInstructed(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Submit creates or replaces the caller's submission. Work handed in after the
// due date is accepted and marked late; graded work cannot be resubmitted.
func (s *AssignmentService) Submit(ctx context.Context, caller rbac.Principal, id primitive.ObjectID, req SubmitRequest) (*Assignment, error) {
	if strings.TrimSpace(req.Content) == "" && strings.TrimSpace(req.FileURL) == "" {
		return nil, apperr.ValidationFields("Invalid request", map[string]string{"content": "content or fileUrl is required"})
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.courses.GetCourse(ctx, a.Course)
	if err != nil {
		return nil, err
	}
	if !c.HasStudent(caller.ID) {
		return nil, apperr.Forbidden("You are not enrolled in this course")
	}

	now := s.now()
	status := StatusSubmitted
	if now.After(a.DueDate) {
		status = StatusLate
	}
	stored, created, err := s.repo.UpsertSubmission(ctx, a.ID, Submission{
		Student:     caller.ID,
		Content:     req.Content,
		FileURL:     req.FileURL,
		SubmittedAt: now,
		Status:      status,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("assignment submitted",
		zap.String("assignment", a.ID.Hex()),
		zap.String("student", caller.ID.Hex()),
		zap.Bool("resubmission", !created),
		zap.String("status", string(stored.Status)))

	view := visibleTo(a, caller)
	view.Submissions = []Submission{*stored}
	return view, nil
}

// Grade sets marks and feedback on a submission and notifies the student.
// Grading again with identical marks and feedback changes nothing.
func (s *AssignmentService) Grade(ctx context.Context, caller rbac.Principal, id, submissionID primitive.ObjectID, req GradeRequest) (*Submission, error) {
	a, _, err := s.loadInstructed(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	current := a.SubmissionByID(submissionID)
	if current == nil {
		return nil, ErrSubmissionNotFound
	}
	if req.Marks == nil {
		return nil, apperr.ValidationFields("Invalid request", map[string]string{"marks": "marks is a required field"})
	}
	marks := *req.Marks
	if marks > a.TotalMarks {
		return nil, apperr.ValidationFields("Invalid request", map[string]string{"marks": fmt.Sprintf("must not exceed %g", a.TotalMarks)})
	}
	if current.Status == StatusGraded && current.Marks != nil && *current.Marks == marks && current.Feedback == req.Feedback {
		return current, nil
	}

	graded, err := s.repo.GradeSubmission(ctx, a.ID, submissionID, marks, req.Feedback, s.now())
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, event.New(event.GradePosted, caller.ID, []primitive.ObjectID{graded.Student},
		event.Ref{Model: "Assignment", ID: a.ID},
		"Assignment Graded: "+a.Title,
		fmt.Sprintf("Your submission for %q was graded: %g/%g.", a.Title, marks, a.TotalMarks)))
	return graded, nil
}

// Submissions lists every submission of an assignment the caller instructs.
func (s *AssignmentService) Submissions(ctx context.Context, caller rbac.Principal, id primitive.ObjectID) (*SubmissionsResponse, error) {
	a, _, err := s.loadInstructed(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	subs := a.Submissions
	if subs == nil {
		subs = []Submission{}
	}
	return &SubmissionsResponse{
		Assignment: Summary{
			ID:         a.ID,
			Title:      a.Title,
			Course:     a.Course,
			DueDate:    a.DueDate,
			TotalMarks: a.TotalMarks,
		},
		Submissions: subs,
	}, nil
}
