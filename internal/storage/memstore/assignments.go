package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/assignment"
)

type AssignmentRepository struct{ s *Store }

var _ assignment.Repository = (*AssignmentRepository)(nil)

func (r *AssignmentRepository) Create(_ context.Context, a *assignment.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	r.s.assignments[a.ID] = clone(a)
	return nil
}

func (r *AssignmentRepository) FindByID(_ context.Context, id primitive.ObjectID) (*assignment.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if a, ok := r.s.assignments[id]; ok {
		return clone(a), nil
	}
	return nil, nil
}

func (r *AssignmentRepository) find(match func(*assignment.Assignment) bool) []*assignment.Assignment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	assignments := []*assignment.Assignment{}
	for _, a := range r.s.assignments {
		if match(a) {
			assignments = append(assignments, clone(a))
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].DueDate.Equal(assignments[j].DueDate) {
			return assignments[i].ID.Hex() < assignments[j].ID.Hex()
		}
		return assignments[i].DueDate.Before(assignments[j].DueDate)
	})
	return assignments
}

func (r *AssignmentRepository) FindAll(context.Context) ([]*assignment.Assignment, error) {
	return r.find(func(*assignment.Assignment) bool { return true }), nil
}

func (r *AssignmentRepository) FindByCourses(_ context.Context, courses []primitive.ObjectID) ([]*assignment.Assignment, error) {
	wanted := make(map[primitive.ObjectID]struct{}, len(courses))
	for _, c := range courses {
		wanted[c] = struct{}{}
	}
	return r.find(func(a *assignment.Assignment) bool {
		_, ok := wanted[a.Course]
		return ok
	}), nil
}

func (r *AssignmentRepository) Update(_ context.Context, id primitive.ObjectID, p assignment.Patch) (*assignment.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.assignments[id]
	if !ok {
		return nil, assignment.ErrNotFound
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.DueDate != nil {
		a.DueDate = *p.DueDate
	}
	if p.TotalMarks != nil {
		a.TotalMarks = *p.TotalMarks
	}
	a.UpdatedAt = time.Now().UTC()
	return clone(a), nil
}

func (r *AssignmentRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.assignments[id]; !ok {
		return assignment.ErrNotFound
	}
	delete(r.s.assignments, id)
	return nil
}

func (r *AssignmentRepository) UpsertSubmission(_ context.Context, id primitive.ObjectID, sub assignment.Submission) (*assignment.Submission, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.assignments[id]
	if !ok {
		return nil, false, assignment.ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	for i := range a.Submissions {
		existing := &a.Submissions[i]
		if existing.Student != sub.Student {
			continue
		}
		if existing.Status == assignment.StatusGraded {
			return nil, false, assignment.ErrAlreadyGraded
		}
		existing.Content = sub.Content
		existing.FileURL = sub.FileURL
		existing.SubmittedAt = sub.SubmittedAt
		existing.Status = sub.Status
		return clone(existing), false, nil
	}

	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	a.Submissions = append(a.Submissions, sub)
	return clone(&sub), true, nil
}

func (r *AssignmentRepository) GradeSubmission(_ context.Context, id, submissionID primitive.ObjectID, marks float64, feedback string, gradedAt time.Time) (*assignment.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.assignments[id]
	if !ok {
		return nil, assignment.ErrNotFound
	}
	for i := range a.Submissions {
		sub := &a.Submissions[i]
		if sub.ID != submissionID {
			continue
		}
		m, at := marks, gradedAt
		sub.Marks = &m
		sub.Feedback = feedback
		sub.GradedAt = &at
		sub.Status = assignment.StatusGraded
		a.UpdatedAt = time.Now().UTC()
		return clone(sub), nil
	}
	return nil, assignment.ErrSubmissionNotFound
}
