package service

import (
	"context"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/utils"
	"availability/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
)

type NotificationRepository interface {
	Create(ctx context.Context, notif *entity.Notification) error
	FindByID(ctx context.Context, id string) (*entity.Notification, error)
	Update(ctx context.Context, id string, patch repository.NotificationPatch) (*entity.Notification, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.NotificationFilter) ([]*entity.Notification, error)
}

type CreateNotificationRequest struct {
	UserID  string `json:"userId" validate:"required,max=36"`
	Type    string `json:"type" validate:"required,notiftype"`
	Message string `json:"message" validate:"required,max=2000"`
}

type UpdateNotificationRequest struct {
	Type    *string `json:"type" validate:"omitempty,notiftype"`
	Message *string `json:"message" validate:"omitempty,min=1,max=2000"`
}

type ListNotificationsQuery struct {
	UserID string `query:"userId"`
	Type   string `query:"type" validate:"omitempty,notiftype"`
	PageQuery
}

type NotificationResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type DefaultNotificationService struct {
	NotificationRepo NotificationRepository
	Validate         *validator.Validate
	Events           EventEmitter
}

func NewNotificationService(notificationRepo NotificationRepository, validate *validator.Validate, emitter EventEmitter) *DefaultNotificationService {
	return &DefaultNotificationService{NotificationRepo: notificationRepo, Validate: validate, Events: emitter}
}

func (n *DefaultNotificationService) CreateNotification(ctx context.Context, req *CreateNotificationRequest) (*NotificationResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := n.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	notif := &entity.Notification{
		UserID:  req.UserID,
		Type:    entity.NotificationType(req.Type),
		Message: req.Message,
	}
	if err := n.NotificationRepo.Create(ctx, notif); err != nil {
		return nil, storeError("failed to create notification", err)
	}

	resp := toNotificationResponse(notif)
	n.Events.Emit(ctx, EntityNotification, events.ActionCreated, notif.ID, resp)
	return resp, nil
}

func (n *DefaultNotificationService) GetNotification(ctx context.Context, id string) (*NotificationResponse, apierror.ErrorResponse) {
	notif, err := n.NotificationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find notification "+id, err)
	}
	return toNotificationResponse(notif), nil
}

func (n *DefaultNotificationService) GetNotifications(ctx context.Context, query *ListNotificationsQuery) ([]*NotificationResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := n.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	notifs, err := n.NotificationRepo.List(ctx, repository.NotificationFilter{
		UserID: query.UserID,
		Type:   entity.NotificationType(query.Type),
		Page:   query.page(),
	})
	if err != nil {
		return nil, storeError("failed to fetch notifications", err)
	}

	resp := make([]*NotificationResponse, len(notifs))
	for i, notif := range notifs {
		resp[i] = toNotificationResponse(notif)
	}
	return resp, nil
}

func (n *DefaultNotificationService) UpdateNotification(ctx context.Context, id string, req *UpdateNotificationRequest) (*NotificationResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := n.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	patch := repository.NotificationPatch{Message: req.Message}
	if req.Type != nil {
		typ := entity.NotificationType(*req.Type)
		patch.Type = &typ
	}
	notif, err := n.NotificationRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, storeError("failed to update notification "+id, err)
	}

	resp := toNotificationResponse(notif)
	n.Events.Emit(ctx, EntityNotification, events.ActionUpdated, notif.ID, resp)
	return resp, nil
}

func (n *DefaultNotificationService) DeleteNotification(ctx context.Context, id string) apierror.ErrorResponse {
	if err := n.NotificationRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete notification "+id, err)
	}
	n.Events.Emit(ctx, EntityNotification, events.ActionDeleted, id, nil)
	return nil
}

func toNotificationResponse(notif *entity.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        notif.ID,
		UserID:    notif.UserID,
		Type:      string(notif.Type),
		Message:   notif.Message,
		CreatedAt: utils.FormatTime(notif.CreatedAt),
		UpdatedAt: utils.FormatTime(notif.UpdatedAt),
	}
}
