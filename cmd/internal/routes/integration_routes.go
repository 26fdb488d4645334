package routes

import (
	"context"
	"net/http"

	"availability/cmd/internal/service"
	"availability/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type IntegrationService interface {
	CreateExternalIntegration(ctx context.Context, req *service.CreateExternalIntegrationRequest) (*service.ExternalIntegrationResponse, apierror.ErrorResponse)
	GetExternalIntegration(ctx context.Context, id string) (*service.ExternalIntegrationResponse, apierror.ErrorResponse)
	GetExternalIntegrations(ctx context.Context, query *service.ListExternalIntegrationsQuery) ([]*service.ExternalIntegrationResponse, apierror.ErrorResponse)
	UpdateExternalIntegration(ctx context.Context, id string, req *service.UpdateExternalIntegrationRequest) (*service.ExternalIntegrationResponse, apierror.ErrorResponse)
	DeleteExternalIntegration(ctx context.Context, id string) apierror.ErrorResponse
	RecordEvent(ctx context.Context, externalID string, req *service.RecordIntegrationEventRequest) (*service.IntegrationEventResponse, apierror.ErrorResponse)
	GetEvent(ctx context.Context, id string) (*service.IntegrationEventResponse, apierror.ErrorResponse)
	GetEvents(ctx context.Context, externalID string, query *service.ListIntegrationEventsQuery) ([]*service.IntegrationEventResponse, apierror.ErrorResponse)
	UpdateEvent(ctx context.Context, id string, req *service.UpdateIntegrationEventRequest) (*service.IntegrationEventResponse, apierror.ErrorResponse)
	DeleteEvent(ctx context.Context, id string) apierror.ErrorResponse
	SyncSchedules(ctx context.Context, req *service.SyncSchedulesRequest) (*service.SyncSchedulesResponse, apierror.ErrorResponse)
}

type DefaultIntegrationRoute struct {
	IntegrationService IntegrationService
}

func NewIntegrationDefault(integrationService IntegrationService) *DefaultIntegrationRoute {
	return &DefaultIntegrationRoute{IntegrationService: integrationService}
}

func (i *DefaultIntegrationRoute) GetExternalIntegrations(c echo.Context) error {
	var query service.ListExternalIntegrationsQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.InvalidFilterError)
	}

	exts, apierr := i.IntegrationService.GetExternalIntegrations(c.Request().Context(), &query)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"integrations": exts}
	return c.JSON(http.StatusOK, &resp)
}

func (i *DefaultIntegrationRoute) GetExternalIntegration(c echo.Context) error {
	ext, apierr := i.IntegrationService.GetExternalIntegration(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, ext)
}

func (i *DefaultIntegrationRoute) CreateExternalIntegration(c echo.Context) error {
	var req service.CreateExternalIntegrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	ext, apierr := i.IntegrationService.CreateExternalIntegration(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, ext)
}

func (i *DefaultIntegrationRoute) UpdateExternalIntegration(c echo.Context) error {
	var req service.UpdateExternalIntegrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	ext, apierr := i.IntegrationService.UpdateExternalIntegration(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, ext)
}

func (i *DefaultIntegrationRoute) DeleteExternalIntegration(c echo.Context) error {
	if apierr := i.IntegrationService.DeleteExternalIntegration(c.Request().Context(), c.Param("id")); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (i *DefaultIntegrationRoute) GetEvents(c echo.Context) error {
	var query service.ListIntegrationEventsQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.InvalidFilterError)
	}

	evts, apierr := i.IntegrationService.GetEvents(c.Request().Context(), c.Param("id"), &query)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"events": evts}
	return c.JSON(http.StatusOK, &resp)
}

func (i *DefaultIntegrationRoute) RecordEvent(c echo.Context) error {
	var req service.RecordIntegrationEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	event, apierr := i.IntegrationService.RecordEvent(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, event)
}

func (i *DefaultIntegrationRoute) GetEvent(c echo.Context) error {
	event, apierr := i.IntegrationService.GetEvent(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, event)
}

func (i *DefaultIntegrationRoute) UpdateEvent(c echo.Context) error {
	var req service.UpdateIntegrationEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	event, apierr := i.IntegrationService.UpdateEvent(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, event)
}

func (i *DefaultIntegrationRoute) DeleteEvent(c echo.Context) error {
	if apierr := i.IntegrationService.DeleteEvent(c.Request().Context(), c.Param("id")); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

// SyncSchedules answers 200 even when some slots were rejected; the body
// lists them.
func (i *DefaultIntegrationRoute) SyncSchedules(c echo.Context) error {
	var req service.SyncSchedulesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	result, apierr := i.IntegrationService.SyncSchedules(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, result)
}
