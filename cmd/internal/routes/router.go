package routes

import (
	"context"
	"net/http"

	"availability/cmd/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Users         *DefaultUserRoute
	Profiles      *DefaultProfileRoute
	Schedules     *DefaultScheduleRoute
	Appointments  *DefaultAppointmentRoute
	Notifications *DefaultNotificationRoute
	Integrations  *DefaultIntegrationRoute
	Analytics     *DefaultAnalyticsRoute
	DB            Pinger
}

// NewRouter mounts every handler under /api next to the health and metrics
// endpoints.
func NewRouter(h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(metrics.Middleware())

	e.GET("/healthz", h.health)
	e.GET("/metrics", metrics.Handler())

	api := e.Group("/api")

	// Users
	api.GET("/users", h.Users.GetUsers)
	api.POST("/users", h.Users.CreateUser)
	api.GET("/users/:id", h.Users.GetUser)
	api.PATCH("/users/:id", h.Users.UpdateUser)
	api.DELETE("/users/:id", h.Users.DeleteUser)
	api.GET("/users/:id/profile", h.Users.GetUserProfile)
	api.PUT("/users/:id/profile", h.Users.UpdateUserProfile)

	// Profiles
	api.GET("/profiles", h.Profiles.GetProfiles)
	api.POST("/profiles", h.Profiles.CreateProfile)
	api.GET("/profiles/:id", h.Profiles.GetProfile)
	api.PATCH("/profiles/:id", h.Profiles.UpdateProfile)
	api.DELETE("/profiles/:id", h.Profiles.DeleteProfile)

	// Schedules
	api.GET("/schedules", h.Schedules.GetSchedules)
	api.POST("/schedules", h.Schedules.CreateSchedule)
	api.GET("/schedules/:id", h.Schedules.GetSchedule)
	api.PATCH("/schedules/:id", h.Schedules.UpdateSchedule)
	api.DELETE("/schedules/:id", h.Schedules.DeleteSchedule)
	api.POST("/schedules/:id/block", h.Schedules.BlockSchedule)
	api.POST("/schedules/:id/release", h.Schedules.ReleaseSchedule)
	api.GET("/professionals/:id/availability", h.Schedules.GetAvailability)

	// Appointments
	api.GET("/appointments", h.Appointments.GetAppointments)
	api.POST("/appointments", h.Appointments.CreateAppointment)
	api.GET("/appointments/:id", h.Appointments.GetAppointment)
	api.DELETE("/appointments/:id", h.Appointments.DeleteAppointment)

	// Notifications
	api.GET("/notifications", h.Notifications.GetNotifications)
	api.POST("/notifications", h.Notifications.CreateNotification)
	api.GET("/notifications/:id", h.Notifications.GetNotification)
	api.PATCH("/notifications/:id", h.Notifications.UpdateNotification)
	api.DELETE("/notifications/:id", h.Notifications.DeleteNotification)

	// Integrations
	api.GET("/integrations", h.Integrations.GetExternalIntegrations)
	api.POST("/integrations", h.Integrations.CreateExternalIntegration)
	api.POST("/integrations/sync", h.Integrations.SyncSchedules)
	api.GET("/integrations/:id", h.Integrations.GetExternalIntegration)
	api.PATCH("/integrations/:id", h.Integrations.UpdateExternalIntegration)
	api.DELETE("/integrations/:id", h.Integrations.DeleteExternalIntegration)
	api.GET("/integrations/:id/events", h.Integrations.GetEvents)
	api.POST("/integrations/:id/events", h.Integrations.RecordEvent)
	api.GET("/integration-events/:id", h.Integrations.GetEvent)
	api.PUT("/integration-events/:id", h.Integrations.UpdateEvent)
	api.DELETE("/integration-events/:id", h.Integrations.DeleteEvent)

	// Analytics
	api.GET("/analytics", h.Analytics.ListAnalytics)
	api.POST("/analytics", h.Analytics.RecordAnalytics)
	api.GET("/analytics/:id", h.Analytics.GetAnalytics)
	api.PUT("/analytics/:id", h.Analytics.UpdateAnalytics)
	api.DELETE("/analytics/:id", h.Analytics.DeleteAnalytics)

	return e
}

func (h Handlers) health(c echo.Context) error {
	if err := h.DB.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
