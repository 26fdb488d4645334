package service

import (
	"context"
	"encoding/json"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/utils"
	"availability/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
)

type AnalyticsRepository interface {
	Create(ctx context.Context, event *entity.Analytics) error
	FindByID(ctx context.Context, id string) (*entity.Analytics, error)
	UpdateData(ctx context.Context, id string, data entity.AnalyticsData) (*entity.Analytics, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.AnalyticsFilter) ([]*entity.Analytics, error)
}

type RecordAnalyticsRequest struct {
	Type string          `json:"type" validate:"required,analyticstype"`
	Data json.RawMessage `json:"data" validate:"required"`
}

type ListAnalyticsQuery struct {
	Type string `query:"type" validate:"omitempty,analyticstype"`
	From string `query:"from" validate:"omitempty,iso8601"`
	To   string `query:"to" validate:"omitempty,iso8601"`
	PageQuery
}

type AnalyticsResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

type DefaultAnalyticsService struct {
	AnalyticsRepo AnalyticsRepository
	Validate      *validator.Validate
	Events        EventEmitter
}

func NewAnalyticsService(analyticsRepo AnalyticsRepository, validate *validator.Validate, emitter EventEmitter) *DefaultAnalyticsService {
	return &DefaultAnalyticsService{AnalyticsRepo: analyticsRepo, Validate: validate, Events: emitter}
}

func (a *DefaultAnalyticsService) Record(ctx context.Context, req *RecordAnalyticsRequest) (*AnalyticsResponse, apierror.ErrorResponse) {
	data, apierr := a.decode(req)
	if apierr != nil {
		return nil, apierr
	}

	event := &entity.Analytics{}
	if err := event.SetData(data); err != nil {
		return nil, invalidPayload(err)
	}
	if err := a.AnalyticsRepo.Create(ctx, event); err != nil {
		return nil, storeError("failed to record analytics", err)
	}

	resp := toAnalyticsResponse(event)
	a.Events.Emit(ctx, EntityAnalytics, events.ActionCreated, event.ID, resp)
	return resp, nil
}

func (a *DefaultAnalyticsService) GetAnalytics(ctx context.Context, id string) (*AnalyticsResponse, apierror.ErrorResponse) {
	event, err := a.AnalyticsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find analytics "+id, err)
	}
	return toAnalyticsResponse(event), nil
}

func (a *DefaultAnalyticsService) ListAnalytics(ctx context.Context, query *ListAnalyticsQuery) ([]*AnalyticsResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := a.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	from, to, apierr := parseWindow(query.From, query.To)
	if apierr != nil {
		return nil, apierr
	}

	evts, err := a.AnalyticsRepo.List(ctx, repository.AnalyticsFilter{
		Type: entity.AnalyticsType(query.Type),
		From: from,
		To:   to,
		Page: query.page(),
	})
	if err != nil {
		return nil, storeError("failed to fetch analytics", err)
	}

	resp := make([]*AnalyticsResponse, len(evts))
	for i, event := range evts {
		resp[i] = toAnalyticsResponse(event)
	}
	return resp, nil
}

func (a *DefaultAnalyticsService) UpdateAnalytics(ctx context.Context, id string, req *RecordAnalyticsRequest) (*AnalyticsResponse, apierror.ErrorResponse) {
	data, apierr := a.decode(req)
	if apierr != nil {
		return nil, apierr
	}

	event, err := a.AnalyticsRepo.UpdateData(ctx, id, data)
	if err != nil {
		return nil, storeError("failed to update analytics "+id, err)
	}

	resp := toAnalyticsResponse(event)
	a.Events.Emit(ctx, EntityAnalytics, events.ActionUpdated, event.ID, resp)
	return resp, nil
}

func (a *DefaultAnalyticsService) DeleteAnalytics(ctx context.Context, id string) apierror.ErrorResponse {
	if err := a.AnalyticsRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete analytics "+id, err)
	}
	a.Events.Emit(ctx, EntityAnalytics, events.ActionDeleted, id, nil)
	return nil
}

func (a *DefaultAnalyticsService) decode(req *RecordAnalyticsRequest) (entity.AnalyticsData, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	data, err := entity.DecodeAnalyticsData(entity.AnalyticsType(req.Type), req.Data)
	if err != nil {
		return nil, invalidPayload(err)
	}
	return data, nil
}

func toAnalyticsResponse(event *entity.Analytics) *AnalyticsResponse {
	return &AnalyticsResponse{
		ID:        event.ID,
		Type:      string(event.Type),
		Data:      rawJSON(event.Data),
		CreatedAt: utils.FormatTime(event.CreatedAt),
		UpdatedAt: utils.FormatTime(event.UpdatedAt),
	}
}
