package repository

import (
	"context"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
)

type NotificationFilter struct {
	UserID string
	Type   entity.NotificationType
	Page
}

type NotificationPatch struct {
	Type    *entity.NotificationType
	Message *string
}

type DefaultNotificationRepository struct {
	crud[entity.Notification, *entity.Notification]
}

func NewNotificationRepository(db *store.DB) *DefaultNotificationRepository {
	return &DefaultNotificationRepository{crud[entity.Notification, *entity.Notification]{db: db, sortable: sortKeys(nil)}}
}

func (n *DefaultNotificationRepository) Create(ctx context.Context, notif *entity.Notification) error {
	return n.create(ctx, notif)
}

func (n *DefaultNotificationRepository) FindByID(ctx context.Context, id string) (*entity.Notification, error) {
	return n.get(ctx, id)
}

func (n *DefaultNotificationRepository) Update(ctx context.Context, id string, patch NotificationPatch) (*entity.Notification, error) {
	return n.update(ctx, id, func(notif *entity.Notification) {
		if patch.Type != nil {
			notif.Type = *patch.Type
		}
		if patch.Message != nil {
			notif.Message = *patch.Message
		}
	})
}

func (n *DefaultNotificationRepository) Delete(ctx context.Context, id string) error {
	return n.delete(ctx, id)
}

func (n *DefaultNotificationRepository) List(ctx context.Context, filter NotificationFilter) ([]*entity.Notification, error) {
	return n.list(ctx, filter.Page,
		eq("user_id", filter.UserID),
		eq("type", string(filter.Type)),
	)
}
