package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"CampusPortal/internal/attendance"
)

type AttendanceRepository struct{ s *Store }

var _ attendance.Repository = (*AttendanceRepository)(nil)

// Upsert keeps one register per (course, date).
func (r *AttendanceRepository) Upsert(_ context.Context, a *attendance.Attendance) (*attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range r.s.attendance {
		if existing.Course == a.Course && existing.Date.Equal(a.Date) {
			existing.Records = append([]attendance.Record(nil), a.Records...)
			existing.MarkedBy = a.MarkedBy
			existing.UpdatedAt = now
			return clone(existing), nil
		}
	}

	stored := clone(a)
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.s.attendance[stored.ID] = stored
	return clone(stored), nil
}

func (r *AttendanceRepository) find(match func(*attendance.Attendance) bool) []*attendance.Attendance {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	registers := []*attendance.Attendance{}
	for _, a := range r.s.attendance {
		if match(a) {
			registers = append(registers, clone(a))
		}
	}
	sort.Slice(registers, func(i, j int) bool { return registers[i].Date.After(registers[j].Date) })
	return registers
}

func (r *AttendanceRepository) FindByCourse(_ context.Context, course primitive.ObjectID) ([]*attendance.Attendance, error) {
	return r.find(func(a *attendance.Attendance) bool { return a.Course == course }), nil
}

func (r *AttendanceRepository) FindByStudent(_ context.Context, student primitive.ObjectID) ([]*attendance.Attendance, error) {
	return r.find(func(a *attendance.Attendance) bool {
		for _, rec := range a.Records {
			if rec.Student == student {
				return true
			}
		}
		return false
	}), nil
}
