package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/course"
)

type CourseRepository struct{ s *Store }

var _ course.Repository = (*CourseRepository)(nil)

func (r *CourseRepository) Create(_ context.Context, c *course.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.courses {
		if existing.Code == c.Code {
			return course.ErrCodeTaken
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.s.courses[c.ID] = clone(c)
	return nil
}

func (r *CourseRepository) FindByID(_ context.Context, id primitive.ObjectID) (*course.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if c, ok := r.s.courses[id]; ok {
		return clone(c), nil
	}
	return nil, nil
}

func (r *CourseRepository) find(match func(*course.Course) bool) []*course.Course {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	courses := []*course.Course{}
	for _, c := range r.s.courses {
		if match(c) {
			courses = append(courses, clone(c))
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses
}

func (r *CourseRepository) FindAll(context.Context) ([]*course.Course, error) {
	return r.find(func(*course.Course) bool { return true }), nil
}

func (r *CourseRepository) FindByInstructor(_ context.Context, instructor primitive.ObjectID) ([]*course.Course, error) {
	return r.find(func(c *course.Course) bool { return c.Instructor == instructor }), nil
}

func (r *CourseRepository) FindByStudent(_ context.Context, student primitive.ObjectID) ([]*course.Course, error) {
	return r.find(func(c *course.Course) bool { return c.HasStudent(student) }), nil
}

func (r *CourseRepository) AddStudent(_ context.Context, id, student primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok || c.HasStudent(student) {
		return false, nil
	}
	c.Students = append(c.Students, student)
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *CourseRepository) AddMaterial(_ context.Context, id primitive.ObjectID, m course.Material) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.courses[id]
	if !ok {
		return apperr.NotFound("Course not found")
	}
	c.Materials = append(c.Materials, m)
	c.UpdatedAt = time.Now().UTC()
	return nil
}
