package course

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/auth"
	"CampusPortal/internal/event"
	"CampusPortal/internal/helper"
	"CampusPortal/internal/rbac"
)

// UserFinder resolves user references.
type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*auth.User, error)
}

type CourseService struct {
	repo      Repository
	users     UserFinder
	publisher event.Publisher
	logger    *zap.Logger
}

func NewCourseService(repo Repository, users UserFinder, publisher event.Publisher, logger *zap.Logger) *CourseService {
	return &CourseService{repo: repo, users: users, publisher: publisher, logger: logger.Named("course")}
}

// requireUser loads id and checks it has the wanted role.
func (s *CourseService) requireUser(ctx context.Context, id primitive.ObjectID, want rbac.Role, field string) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != want {
		return nil, apperr.ValidationFields("Invalid "+field, map[string]string{field: "must reference a " + want.String()})
	}
	return user, nil
}

func (s *CourseService) CreateCourse(ctx context.Context, caller rbac.Principal, req CreateCourseRequest) (*Course, error) {
	instructor := caller.ID
	if caller.Role == rbac.Admin {
		if req.Instructor == "" {
			return nil, apperr.ValidationFields("Invalid request", map[string]string{"instructor": "this field is required"})
		}
		id, err := helper.ParseObjectID(req.Instructor, "instructor")
		if err != nil {
			return nil, err
		}
		instructor = id
	}
	if _, err := s.requireUser(ctx, instructor, rbac.Faculty, "instructor"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &Course{
		ID:          primitive.NewObjectID(),
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Title:       req.Title,
		Description: req.Description,
		Instructor:  instructor,
		Students:    []primitive.ObjectID{},
		Schedule:    req.Schedule,
		Materials:   []Material{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CourseService) ListCourses(ctx context.Context) ([]*Course, error) {
	return s.repo.FindAll(ctx)
}

// GetCourse returns the course or a not-found error.
func (s *CourseService) GetCourse(ctx context.Context, id primitive.ObjectID) (*Course, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("Course not found")
	}
	return c, nil
}

// CoursesFor returns the courses whose assignments and attendance the caller
// may see: enrolled courses for students, instructed courses for faculty, all
// courses for admins.
func (s *CourseService) CoursesFor(ctx context.Context, caller rbac.Principal) ([]*Course, error) {
	switch caller.Role {
	case rbac.Student:
		return s.repo.FindByStudent(ctx, caller.ID)
	case rbac.Faculty:
		return s.repo.FindByInstructor(ctx, caller.ID)
	case rbac.Admin:
		return s.repo.FindAll(ctx)
	}
	return nil, apperr.Forbidden("Access denied")
}

// Enroll adds the calling student to the course.
func (s *CourseService) Enroll(ctx context.Context, caller rbac.Principal, id primitive.ObjectID) (*Course, error) {
	return s.enroll(ctx, caller, id, caller.ID)
}

// AddStudent enrolls another student. Faculty may only enroll into courses
// they instruct.
func (s *CourseService) AddStudent(ctx context.Context, caller rbac.Principal, id primitive.ObjectID, req AddStudentRequest) (*Course, error) {
	student, err := helper.ParseObjectID(req.Student, "student")
	if err != nil {
		return nil, err
	}
	return s.enroll(ctx, caller, id, student)
}

func (s *CourseService) enroll(ctx context.Context, caller rbac.Principal, id, student primitive.ObjectID) (*Course, error) {
	c, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == rbac.Faculty && c.Instructor != caller.ID {
		return nil, apperr.Forbidden("You do not instruct this course")
	}
	if _, err := s.requireUser(ctx, student, rbac.Student, "student"); err != nil {
		return nil, err
	}

	added, err := s.repo.AddStudent(ctx, c.ID, student)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, apperr.Conflict("Student already enrolled")
	}
	c.Students = append(c.Students, student)

	s.publisher.Publish(ctx, event.New(event.CourseEnrolled, c.Instructor, []primitive.ObjectID{student},
		event.Ref{Model: "Course", ID: c.ID},
		"Course Enrollment",
		fmt.Sprintf("You have been enrolled in %s: %s", c.Code, c.Title)))
	return c, nil
}

// AddMaterial appends a material to a course the caller instructs and notifies
// the enrolled students.
func (s *CourseService) AddMaterial(ctx context.Context, caller rbac.Principal, id primitive.ObjectID, req AddMaterialRequest) (*Course, error) {
	c, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Instructor != caller.ID {
		return nil, apperr.Forbidden("You do not instruct this course")
	}

	m := Material{Title: req.Title, FileURL: req.FileURL, UploadedAt: time.Now().UTC()}
	if err := s.repo.AddMaterial(ctx, c.ID, m); err != nil {
		return nil, err
	}
	c.Materials = append(c.Materials, m)

	if len(c.Students) > 0 {
		s.publisher.Publish(ctx, event.New(event.MaterialAdded, caller.ID, c.Students,
			event.Ref{Model: "Course", ID: c.ID},
			"New Course Material",
			fmt.Sprintf("New material %q was added to %s: %s", m.Title, c.Code, c.Title)))
	}
	return c, nil
}
