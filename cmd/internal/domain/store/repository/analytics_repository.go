package repository

import (
	"context"
	"fmt"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
)

type AnalyticsFilter struct {
	Type entity.AnalyticsType
	From time.Time
	To   time.Time
	Page
}

type DefaultAnalyticsRepository struct {
	crud[entity.Analytics, *entity.Analytics]
}

func NewAnalyticsRepository(db *store.DB) *DefaultAnalyticsRepository {
	return &DefaultAnalyticsRepository{crud[entity.Analytics, *entity.Analytics]{db: db, sortable: sortKeys(map[string]string{
		"type": "type",
	})}}
}

func (a *DefaultAnalyticsRepository) Create(ctx context.Context, event *entity.Analytics) error {
	return a.create(ctx, event)
}

func (a *DefaultAnalyticsRepository) FindByID(ctx context.Context, id string) (*entity.Analytics, error) {
	return a.get(ctx, id)
}

func (a *DefaultAnalyticsRepository) UpdateData(ctx context.Context, id string, data entity.AnalyticsData) (*entity.Analytics, error) {
	var encoded entity.Analytics
	if err := encoded.SetData(data); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrConstraintViolation, err)
	}
	return a.update(ctx, id, func(event *entity.Analytics) {
		event.Type = encoded.Type
		event.Data = encoded.Data
	})
}

func (a *DefaultAnalyticsRepository) Delete(ctx context.Context, id string) error {
	return a.delete(ctx, id)
}

func (a *DefaultAnalyticsRepository) List(ctx context.Context, filter AnalyticsFilter) ([]*entity.Analytics, error) {
	return a.list(ctx, filter.Page,
		eq("type", string(filter.Type)),
		within("created_at", filter.From, filter.To),
	)
}
