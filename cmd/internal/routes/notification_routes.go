package routes

import (
	"context"
	"net/http"

	"availability/cmd/internal/service"
	"availability/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, req *service.CreateNotificationRequest) (*service.NotificationResponse, apierror.ErrorResponse)
	GetNotification(ctx context.Context, id string) (*service.NotificationResponse, apierror.ErrorResponse)
	GetNotifications(ctx context.Context, query *service.ListNotificationsQuery) ([]*service.NotificationResponse, apierror.ErrorResponse)
	UpdateNotification(ctx context.Context, id string, req *service.UpdateNotificationRequest) (*service.NotificationResponse, apierror.ErrorResponse)
	DeleteNotification(ctx context.Context, id string) apierror.ErrorResponse
}

type DefaultNotificationRoute struct {
	NotificationService NotificationService
}

func NewNotificationDefault(notificationService NotificationService) *DefaultNotificationRoute {
	return &DefaultNotificationRoute{NotificationService: notificationService}
}

func (n *DefaultNotificationRoute) GetNotifications(c echo.Context) error {
	var query service.ListNotificationsQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.InvalidFilterError)
	}

	notifs, apierr := n.NotificationService.GetNotifications(c.Request().Context(), &query)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notifications": notifs}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNotificationRoute) GetNotification(c echo.Context) error {
	notif, apierr := n.NotificationService.GetNotification(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, notif)
}

func (n *DefaultNotificationRoute) CreateNotification(c echo.Context) error {
	var req service.CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	notif, apierr := n.NotificationService.CreateNotification(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, notif)
}

func (n *DefaultNotificationRoute) UpdateNotification(c echo.Context) error {
	var req service.UpdateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	notif, apierr := n.NotificationService.UpdateNotification(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, notif)
}

func (n *DefaultNotificationRoute) DeleteNotification(c echo.Context) error {
	if apierr := n.NotificationService.DeleteNotification(c.Request().Context(), c.Param("id")); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
