// Package routes is the composition root of the portal: it wires stores,
// services and handlers with fx and mounts the HTTP routes.
package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"CampusPortal/internal/assignment"
	"CampusPortal/internal/attendance"
	"CampusPortal/internal/auth"
	"CampusPortal/internal/config"
	"CampusPortal/internal/course"
	"CampusPortal/internal/event"
	"CampusPortal/internal/logging"
	"CampusPortal/internal/mail"
	"CampusPortal/internal/metrics"
	"CampusPortal/internal/notification"
	"CampusPortal/pkg/middleware"
)

// AppModule builds the portal and registers its routes. It needs a
// *config.Config from the enclosing application.
var AppModule = fx.Module("portal",
	fx.Provide(logging.NewLogger),
	fx.Provide(metrics.NewRegistry, metrics.New),
	fx.Provide(NewStores),
	fx.Provide(mail.NewSender),

	fx.Provide(auth.NewTokenManager),
	fx.Provide(auth.NewUserService),
	fx.Provide(auth.NewAuthHandler),

	fx.Provide(
		notification.DispatcherConfigFrom,
		recipientDirectory,
		notification.NewDispatcher,
		publisher,
		notification.NewRelay,
		notification.NewNotificationService,
		notification.NewNotificationHandler,
	),

	fx.Provide(userFinder, course.NewCourseService, course.NewCourseHandler),
	fx.Provide(assignmentCourses, assignment.NewAssignmentService, assignment.NewAssignmentHandler),
	fx.Provide(attendanceCourses, attendance.NewAttendanceService, attendance.NewAttendanceHandler),

	fx.Provide(
		middleware.NewEnforcer,
		middleware.NewRoleGate,
		middleware.NewJWTAuthenticator,
		NewEchoServer,
	),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(func(r *notification.Relay, lc fx.Lifecycle) { r.Start(lc) }),
)

// ServerModule listens on the configured port for the lifetime of the app.
var ServerModule = fx.Module("server", fx.Invoke(StartServer))

func recipientDirectory(users auth.Repository) notification.RecipientDirectory { return users }

func publisher(d *notification.Dispatcher) event.Publisher { return d }

func userFinder(users auth.Repository) course.UserFinder { return users }

func assignmentCourses(s *course.CourseService) assignment.CourseReader { return s }

func attendanceCourses(s *course.CourseService) attendance.CourseReader { return s }

func NewEchoServer(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	middleware.SetupMiddleware(e, cfg, logger, m)
	return e
}

func StartServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *zap.Logger) {
	addr := cfg.Addr()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.JWTKeyIsDefault {
				logger.Warn("JWT_KEY is not set, tokens are signed with the built-in development key")
			}
			go func() {
				logger.Info("server listening", zap.String("addr", addr), zap.String("env", cfg.Env))
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("failed to start the server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down the server")
			return e.Shutdown(ctx)
		},
	})
}

type RouteParams struct {
	fx.In

	Echo    *echo.Echo
	Metrics *metrics.Metrics
	JWT     *middleware.JWTAuthenticator
	Gate    *middleware.RoleGate

	Auth          *auth.AuthHandler
	Assignments   *assignment.AssignmentHandler
	Notifications *notification.NotificationHandler
	Courses       *course.CourseHandler
	Attendance    *attendance.AttendanceHandler
}

func RegisterRoutes(p RouteParams) {
	e := p.Echo
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", p.Metrics.Handler())

	e.POST("/api/auth/register", p.Auth.Register)
	e.POST("/api/auth/login", p.Auth.Login)

	// attached per route so unknown paths still answer 404
	guard := []echo.MiddlewareFunc{p.JWT.Middleware, p.Gate.Middleware}

	api := e.Group("/api")
	api.GET("/auth/me", p.Auth.Profile, guard...)

	assignments := api.Group("/assignments")
	assignments.GET("", p.Assignments.ListAssignments, guard...)
	assignments.POST("", p.Assignments.CreateAssignment, guard...)
	assignments.GET("/:id", p.Assignments.GetAssignment, guard...)
	assignments.PUT("/:id", p.Assignments.UpdateAssignment, guard...)
	assignments.DELETE("/:id", p.Assignments.DeleteAssignment, guard...)
	assignments.POST("/:id/submit", p.Assignments.Submit, guard...)
	assignments.GET("/:id/submissions", p.Assignments.Submissions, guard...)
	assignments.PUT("/:id/submissions/:subId/grade", p.Assignments.Grade, guard...)

	notifications := api.Group("/notifications")
	notifications.GET("", p.Notifications.ListNotifications, guard...)
	notifications.GET("/unread-count", p.Notifications.UnreadCount, guard...)
	notifications.PUT("/read-all", p.Notifications.MarkAllRead, guard...)
	notifications.PUT("/:id/read", p.Notifications.MarkRead, guard...)

	courses := api.Group("/courses")
	courses.GET("", p.Courses.ListCourses, guard...)
	courses.POST("", p.Courses.CreateCourse, guard...)
	courses.GET("/:id", p.Courses.GetCourse, guard...)
	courses.POST("/:id/enroll", p.Courses.Enroll, guard...)
	courses.POST("/:id/students", p.Courses.AddStudent, guard...)
	courses.POST("/:id/materials", p.Courses.AddMaterial, guard...)

	att := api.Group("/attendance")
	att.POST("", p.Attendance.MarkAttendance, guard...)
	att.GET("/course/:courseId", p.Attendance.CourseAttendance, guard...)
	att.GET("/me", p.Attendance.MyAttendance, guard...)
}
