package attendance

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/course"
	"CampusPortal/internal/event"
	"CampusPortal/internal/helper"
	"CampusPortal/internal/rbac"
)

// CourseReader gives the attendance service read access to courses.
type CourseReader interface {
	GetCourse(ctx context.Context, id primitive.ObjectID) (*course.Course, error)
}

type AttendanceService struct {
	repo      Repository
	courses   CourseReader
	publisher event.Publisher
	logger    *zap.Logger
}

func NewAttendanceService(repo Repository, courses CourseReader, publisher event.Publisher, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{repo: repo, courses: courses, publisher: publisher, logger: logger.Named("attendance")}
}

func (s *AttendanceService) instructedCourse(ctx context.Context, caller rbac.Principal, id primitive.ObjectID) (*course.Course, error) {
	c, err := s.courses.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != rbac.Admin && c.Instructor != caller.ID {
		return nil, apperr.Forbidden("You do not instruct this course")
	}
	return c, nil
}

// MarkAttendance upserts the register of a course for one day and notifies
// every student marked absent.
func (s *AttendanceService) MarkAttendance(ctx context.Context, caller rbac.Principal, req MarkRequest) (*Attendance, error) {
	courseID, err := helper.ParseObjectID(req.Course, "course")
	if err != nil {
		return nil, err
	}
	date, err := helper.ParseDate(req.Date)
	if err != nil {
		return nil, apperr.ValidationFields("Invalid request", map[string]string{"date": "must be a date (YYYY-MM-DD)"})
	}
	c, err := s.instructedCourse(ctx, caller, courseID)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(req.Records))
	seen := make(map[primitive.ObjectID]bool, len(req.Records))
	var absent []primitive.ObjectID
	for i, rr := range req.Records {
		field := fmt.Sprintf("records[%d].student", i)
		student, err := helper.ParseObjectID(rr.Student, field)
		if err != nil {
			return nil, err
		}
		if seen[student] {
			return nil, apperr.ValidationFields("Invalid request", map[string]string{field: "student listed twice"})
		}
		if !c.HasStudent(student) {
			return nil, apperr.ValidationFields("Invalid request", map[string]string{field: "student is not enrolled in this course"})
		}
		seen[student] = true

		status := RecordStatus(rr.Status)
		records = append(records, Record{Student: student, Status: status, Remark: rr.Remark})
		if status == Absent {
			absent = append(absent, student)
		}
	}

	stored, err := s.repo.Upsert(ctx, &Attendance{
		Course:   c.ID,
		Date:     helper.Day(date),
		Records:  records,
		MarkedBy: caller.ID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("attendance marked",
		zap.String("course", c.Code),
		zap.Time("date", stored.Date),
		zap.Int("records", len(records)),
		zap.Int("absent", len(absent)))

	if len(absent) > 0 {
		s.publisher.Publish(ctx, event.New(event.StudentAbsent, caller.ID, absent,
			event.Ref{Model: "Attendance", ID: stored.ID},
			"Absence Recorded",
			fmt.Sprintf("You were marked absent in %s on %s.", c.Code, stored.Date.Format("2006-01-02"))))
	}
	return stored, nil
}

// CourseAttendance lists the registers of a course, newest first.
func (s *AttendanceService) CourseAttendance(ctx context.Context, caller rbac.Principal, courseID primitive.ObjectID) ([]*Attendance, error) {
	if _, err := s.instructedCourse(ctx, caller, courseID); err != nil {
		return nil, err
	}
	return s.repo.FindByCourse(ctx, courseID)
}

// StudentAttendance lists the caller's own entries across all courses.
func (s *AttendanceService) StudentAttendance(ctx context.Context, caller rbac.Principal) ([]StudentRecord, error) {
	registers, err := s.repo.FindByStudent(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	out := make([]StudentRecord, 0, len(registers))
	for _, a := range registers {
		for _, r := range a.Records {
			if r.Student == caller.ID {
				out = append(out, StudentRecord{Course: a.Course, Date: a.Date, Status: r.Status, Remark: r.Remark})
			}
		}
	}
	return out, nil
}
