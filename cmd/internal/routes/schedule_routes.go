package routes

import (
	"context"
	"net/http"

	"availability/cmd/internal/service"
	"availability/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type ScheduleService interface {
	CreateSchedule(ctx context.Context, req *service.CreateScheduleRequest) (*service.ScheduleResponse, apierror.ErrorResponse)
	GetSchedule(ctx context.Context, id string) (*service.ScheduleResponse, apierror.ErrorResponse)
	GetSchedules(ctx context.Context, query *service.ListSchedulesQuery) ([]*service.ScheduleResponse, apierror.ErrorResponse)
	GetAvailability(ctx context.Context, professionalID string, query *service.AvailabilityQuery) ([]*service.ScheduleResponse, apierror.ErrorResponse)
	UpdateSchedule(ctx context.Context, id string, req *service.UpdateScheduleRequest) (*service.ScheduleResponse, apierror.ErrorResponse)
	DeleteSchedule(ctx context.Context, id string) apierror.ErrorResponse
	Block(ctx context.Context, id string) (*service.ScheduleResponse, apierror.ErrorResponse)
	Release(ctx context.Context, id string) (*service.ScheduleResponse, apierror.ErrorResponse)
}

type DefaultScheduleRoute struct {
	ScheduleService ScheduleService
}

func NewScheduleDefault(scheduleService ScheduleService) *DefaultScheduleRoute {
	return &DefaultScheduleRoute{ScheduleService: scheduleService}
}

func (s *DefaultScheduleRoute) GetSchedules(c echo.Context) error {
	var query service.ListSchedulesQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.InvalidFilterError)
	}

	schedules, apierr := s.ScheduleService.GetSchedules(c.Request().Context(), &query)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"schedules": schedules}
	return c.JSON(http.StatusOK, &resp)
}

// GetAvailability answers which slots of a professional are still open.
func (s *DefaultScheduleRoute) GetAvailability(c echo.Context) error {
	var query service.AvailabilityQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.InvalidFilterError)
	}

	slots, apierr := s.ScheduleService.GetAvailability(c.Request().Context(), c.Param("id"), &query)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"professionalId": c.Param("id"), "slots": slots}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultScheduleRoute) GetSchedule(c echo.Context) error {
	schedule, apierr := s.ScheduleService.GetSchedule(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, schedule)
}

func (s *DefaultScheduleRoute) CreateSchedule(c echo.Context) error {
	var req service.CreateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	schedule, apierr := s.ScheduleService.CreateSchedule(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, schedule)
}

func (s *DefaultScheduleRoute) UpdateSchedule(c echo.Context) error {
	var req service.UpdateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	schedule, apierr := s.ScheduleService.UpdateSchedule(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, schedule)
}

func (s *DefaultScheduleRoute) DeleteSchedule(c echo.Context) error {
	if apierr := s.ScheduleService.DeleteSchedule(c.Request().Context(), c.Param("id")); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *DefaultScheduleRoute) BlockSchedule(c echo.Context) error {
	schedule, apierr := s.ScheduleService.Block(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, schedule)
}

func (s *DefaultScheduleRoute) ReleaseSchedule(c echo.Context) error {
	schedule, apierr := s.ScheduleService.Release(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, schedule)
}
