package routes

import (
	"context"
	"net/http"

	"availability/cmd/internal/service"
	"availability/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type AnalyticsService interface {
	Record(ctx context.Context, req *service.RecordAnalyticsRequest) (*service.AnalyticsResponse, apierror.ErrorResponse)
	GetAnalytics(ctx context.Context, id string) (*service.AnalyticsResponse, apierror.ErrorResponse)
	ListAnalytics(ctx context.Context, query *service.ListAnalyticsQuery) ([]*service.AnalyticsResponse, apierror.ErrorResponse)
	UpdateAnalytics(ctx context.Context, id string, req *service.RecordAnalyticsRequest) (*service.AnalyticsResponse, apierror.ErrorResponse)
	DeleteAnalytics(ctx context.Context, id string) apierror.ErrorResponse
}

type DefaultAnalyticsRoute struct {
	AnalyticsService AnalyticsService
}

func NewAnalyticsDefault(analyticsService AnalyticsService) *DefaultAnalyticsRoute {
	return &DefaultAnalyticsRoute{AnalyticsService: analyticsService}
}

func (a *DefaultAnalyticsRoute) ListAnalytics(c echo.Context) error {
	var query service.ListAnalyticsQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.InvalidFilterError)
	}

	evts, apierr := a.AnalyticsService.ListAnalytics(c.Request().Context(), &query)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"analytics": evts}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAnalyticsRoute) GetAnalytics(c echo.Context) error {
	event, apierr := a.AnalyticsService.GetAnalytics(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, event)
}

func (a *DefaultAnalyticsRoute) RecordAnalytics(c echo.Context) error {
	var req service.RecordAnalyticsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	event, apierr := a.AnalyticsService.Record(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, event)
}

func (a *DefaultAnalyticsRoute) UpdateAnalytics(c echo.Context) error {
	var req service.RecordAnalyticsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	event, apierr := a.AnalyticsService.UpdateAnalytics(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, event)
}

func (a *DefaultAnalyticsRoute) DeleteAnalytics(c echo.Context) error {
	if apierr := a.AnalyticsService.DeleteAnalytics(c.Request().Context(), c.Param("id")); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
