package routes

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"CampusPortal/internal/assignment"
	"CampusPortal/internal/attendance"
	"CampusPortal/internal/auth"
	"CampusPortal/internal/config"
	"CampusPortal/internal/course"
	"CampusPortal/internal/event"
	"CampusPortal/internal/notification"
	"CampusPortal/internal/storage/memstore"
)

// Stores provides one repository per collection, backed by the configured
// driver.
type Stores struct {
	fx.Out

	Users         auth.Repository
	Courses       course.Repository
	Assignments   assignment.Repository
	Attendance    attendance.Repository
	Notifications notification.Repository
	Events        event.Repository
}

func NewStores(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (Stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using the in-memory store, data will not survive a restart")
		return MemoryStores(memstore.New()), nil
	}

	client, err := config.NewMongoDBClient(lc, cfg, logger)
	if err != nil {
		return Stores{}, err
	}
	db := client.Database
	return Stores{
		Users:         auth.NewUserRepository(db),
		Courses:       course.NewCourseRepository(db),
		Assignments:   assignment.NewAssignmentRepository(db),
		Attendance:    attendance.NewAttendanceRepository(db),
		Notifications: notification.NewNotificationRepository(db),
		Events:        event.NewEventRepository(db),
	}, nil
}

func MemoryStores(s *memstore.Store) Stores {
	return Stores{
		Users:         s.Users(),
		Courses:       s.Courses(),
		Assignments:   s.Assignments(),
		Attendance:    s.Attendance(),
		Notifications: s.Notifications(),
		Events:        s.Events(),
	}
}
