package repository

import (
	"context"
	"fmt"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"

	"golang.org/x/crypto/bcrypt"
)

type ExternalIntegrationFilter struct {
	Name string
	Page
}

type ExternalIntegrationPatch struct {
	Name *string
	// APIKey and KeyHint are replaced together.
	APIKey  *string
	KeyHint *string
}

type DefaultExternalIntegrationRepository struct {
	crud[entity.ExternalIntegration, *entity.ExternalIntegration]
}

func NewExternalIntegrationRepository(db *store.DB) *DefaultExternalIntegrationRepository {
	return &DefaultExternalIntegrationRepository{crud[entity.ExternalIntegration, *entity.ExternalIntegration]{db: db, sortable: sortKeys(map[string]string{
		"name": "name",
	})}}
}

func (e *DefaultExternalIntegrationRepository) Create(ctx context.Context, ext *entity.ExternalIntegration) error {
	return e.create(ctx, ext)
}

func (e *DefaultExternalIntegrationRepository) FindByID(ctx context.Context, id string) (*entity.ExternalIntegration, error) {
	return e.get(ctx, id)
}

// FindByCredentials returns the integration registered under name whose
// stored hash matches apiKey. Mismatches report ErrNotFound.
func (e *DefaultExternalIntegrationRepository) FindByCredentials(ctx context.Context, name, apiKey string) (*entity.ExternalIntegration, error) {
	var candidates []*entity.ExternalIntegration
	if err := e.db.Conn(ctx).Where("name = ?", name).Find(&candidates).Error; err != nil {
		return nil, store.Classify(err)
	}
	for _, ext := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(ext.APIKey), []byte(apiKey)) == nil {
			return ext, nil
		}
	}
	return nil, fmt.Errorf("%w: no integration %q with this api key", store.ErrNotFound, name)
}

func (e *DefaultExternalIntegrationRepository) Update(ctx context.Context, id string, patch ExternalIntegrationPatch) (*entity.ExternalIntegration, error) {
	return e.update(ctx, id, func(ext *entity.ExternalIntegration) {
		if patch.Name != nil {
			ext.Name = *patch.Name
		}
		if patch.APIKey != nil {
			ext.APIKey = *patch.APIKey
		}
		if patch.KeyHint != nil {
			ext.KeyHint = *patch.KeyHint
		}
	})
}

func (e *DefaultExternalIntegrationRepository) Delete(ctx context.Context, id string) error {
	return e.delete(ctx, id)
}

func (e *DefaultExternalIntegrationRepository) List(ctx context.Context, filter ExternalIntegrationFilter) ([]*entity.ExternalIntegration, error) {
	return e.list(ctx, filter.Page, eq("name", filter.Name))
}

type IntegrationFilter struct {
	ExternalIntegrationID string
	EventType             entity.IntegrationType
	From                  time.Time
	To                    time.Time
	Page
}

type DefaultIntegrationRepository struct {
	crud[entity.Integration, *entity.Integration]
}

func NewIntegrationRepository(db *store.DB) *DefaultIntegrationRepository {
	return &DefaultIntegrationRepository{crud[entity.Integration, *entity.Integration]{db: db, sortable: sortKeys(map[string]string{
		"eventType": "event_type",
	})}}
}

func (i *DefaultIntegrationRepository) Create(ctx context.Context, event *entity.Integration) error {
	return i.create(ctx, event)
}

func (i *DefaultIntegrationRepository) FindByID(ctx context.Context, id string) (*entity.Integration, error) {
	return i.get(ctx, id)
}

// UpdatePayload replaces the event's payload, and with it its event type.
func (i *DefaultIntegrationRepository) UpdatePayload(ctx context.Context, id string, payload entity.IntegrationPayload) (*entity.Integration, error) {
	var encoded entity.Integration
	if err := encoded.SetPayload(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrConstraintViolation, err)
	}
	return i.update(ctx, id, func(event *entity.Integration) {
		event.EventType = encoded.EventType
		event.Payload = encoded.Payload
	})
}

func (i *DefaultIntegrationRepository) Delete(ctx context.Context, id string) error {
	return i.delete(ctx, id)
}

func (i *DefaultIntegrationRepository) List(ctx context.Context, filter IntegrationFilter) ([]*entity.Integration, error) {
	return i.list(ctx, filter.Page,
		eq("external_integration_id", filter.ExternalIntegrationID),
		eq("event_type", string(filter.EventType)),
		within("created_at", filter.From, filter.To),
	)
}
