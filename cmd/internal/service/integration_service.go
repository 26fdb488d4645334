package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/utils"
	"availability/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
)

type ExternalIntegrationRepository interface {
	Create(ctx context.Context, ext *entity.ExternalIntegration) error
	FindByID(ctx context.Context, id string) (*entity.ExternalIntegration, error)
	FindByCredentials(ctx context.Context, name, apiKey string) (*entity.ExternalIntegration, error)
	Update(ctx context.Context, id string, patch repository.ExternalIntegrationPatch) (*entity.ExternalIntegration, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.ExternalIntegrationFilter) ([]*entity.ExternalIntegration, error)
}

type IntegrationRepository interface {
	Create(ctx context.Context, event *entity.Integration) error
	FindByID(ctx context.Context, id string) (*entity.Integration, error)
	UpdatePayload(ctx context.Context, id string, payload entity.IntegrationPayload) (*entity.Integration, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.IntegrationFilter) ([]*entity.Integration, error)
}

type CreateExternalIntegrationRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	APIKey string `json:"apiKey" validate:"required,min=8,max=72,nospaces"`
}

type UpdateExternalIntegrationRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	APIKey *string `json:"apiKey" validate:"omitempty,min=8,max=72,nospaces"`
}

type ListExternalIntegrationsQuery struct {
	Name string `query:"name"`
	PageQuery
}

type RecordIntegrationEventRequest struct {
	EventType string          `json:"eventType" validate:"required,integrationtype"`
	Payload   json.RawMessage `json:"payload" validate:"required"`
}

type UpdateIntegrationEventRequest struct {
	EventType string          `json:"eventType" validate:"required,integrationtype"`
	Payload   json.RawMessage `json:"payload" validate:"required"`
}

type ListIntegrationEventsQuery struct {
	EventType string `query:"eventType" validate:"omitempty,integrationtype"`
	From      string `query:"from" validate:"omitempty,iso8601"`
	To        string `query:"to" validate:"omitempty,iso8601"`
	PageQuery
}

type SyncSlot struct {
	Start       string `json:"start" validate:"required,iso8601"`
	End         string `json:"end" validate:"required,iso8601"`
	TimeZone    string `json:"timeZone" validate:"required,timezone"`
	Status      string `json:"status" validate:"omitempty,oneof=Available Unavailable"`
	ExternalRef string `json:"externalRef" validate:"max=255"`
}

type SyncSchedulesRequest struct {
	ExternalSystemName string     `json:"externalSystemName" validate:"required,max=100"`
	APIKey             string     `json:"apiKey" validate:"required"`
	ProfessionalID     string     `json:"professionalId" validate:"required,max=64"`
	SyncStartDate      string     `json:"syncStartDate" validate:"required,iso8601"`
	SyncEndDate        string     `json:"syncEndDate" validate:"required,iso8601"`
	Slots              []SyncSlot `json:"slots" validate:"max=1000,dive"`
}

type SyncSchedulesResponse struct {
	Success     bool     `json:"success"`
	SyncedCount int      `json:"syncedCount"`
	ScheduleIDs []string `json:"scheduleIds"`
	Errors      []string `json:"errors"`
}

// ExternalIntegrationResponse never carries the full api key.
type ExternalIntegrationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	APIKey    string `json:"apiKey"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type IntegrationEventResponse struct {
	ID                    string          `json:"id"`
	ExternalIntegrationID string          `json:"externalIntegrationId"`
	EventType             string          `json:"eventType"`
	Payload               json.RawMessage `json:"payload"`
	CreatedAt             string          `json:"createdAt"`
	UpdatedAt             string          `json:"updatedAt"`
}

type DefaultIntegrationService struct {
	// HashCost is the bcrypt cost for stored api keys.
	HashCost        int
	ExternalRepo    ExternalIntegrationRepository
	IntegrationRepo IntegrationRepository
	ScheduleRepo    ScheduleRepository
	Tx              Transactor
	Validate        *validator.Validate
	Events          EventEmitter
}

func NewIntegrationService(externalRepo ExternalIntegrationRepository, integrationRepo IntegrationRepository, scheduleRepo ScheduleRepository, tx Transactor, validate *validator.Validate, emitter EventEmitter) *DefaultIntegrationService {
	return &DefaultIntegrationService{
		HashCost:        bcrypt.DefaultCost,
		ExternalRepo:    externalRepo,
		IntegrationRepo: integrationRepo,
		ScheduleRepo:    scheduleRepo,
		Tx:              tx,
		Validate:        validate,
		Events:          emitter,
	}
}

func (i *DefaultIntegrationService) CreateExternalIntegration(ctx context.Context, req *CreateExternalIntegrationRequest) (*ExternalIntegrationResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := i.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.APIKey), i.HashCost)
	if err != nil {
		log.Errorf("failed to hash api key: %v", err)
		return nil, apierror.InternalServerError
	}

	ext := &entity.ExternalIntegration{Name: req.Name, APIKey: string(hash), KeyHint: utils.MaskSecret(req.APIKey)}
	if err := i.ExternalRepo.Create(ctx, ext); err != nil {
		return nil, storeError("failed to create external integration", err)
	}

	resp := toExternalIntegrationResponse(ext)
	i.Events.Emit(ctx, EntityExternalIntegration, events.ActionCreated, ext.ID, resp)
	return resp, nil
}

func (i *DefaultIntegrationService) GetExternalIntegration(ctx context.Context, id string) (*ExternalIntegrationResponse, apierror.ErrorResponse) {
	ext, err := i.ExternalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find external integration "+id, err)
	}
	return toExternalIntegrationResponse(ext), nil
}

func (i *DefaultIntegrationService) GetExternalIntegrations(ctx context.Context, query *ListExternalIntegrationsQuery) ([]*ExternalIntegrationResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := i.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	exts, err := i.ExternalRepo.List(ctx, repository.ExternalIntegrationFilter{Name: query.Name, Page: query.page()})
	if err != nil {
		return nil, storeError("failed to fetch external integrations", err)
	}

	resp := make([]*ExternalIntegrationResponse, len(exts))
	for idx, ext := range exts {
		resp[idx] = toExternalIntegrationResponse(ext)
	}
	return resp, nil
}

func (i *DefaultIntegrationService) UpdateExternalIntegration(ctx context.Context, id string, req *UpdateExternalIntegrationRequest) (*ExternalIntegrationResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := i.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	patch := repository.ExternalIntegrationPatch{Name: req.Name}
	if req.APIKey != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.APIKey), i.HashCost)
		if err != nil {
			log.Errorf("failed to hash api key: %v", err)
			return nil, apierror.InternalServerError
		}
		key, hint := string(hash), utils.MaskSecret(*req.APIKey)
		patch.APIKey, patch.KeyHint = &key, &hint
	}

	ext, err := i.ExternalRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, storeError("failed to update external integration "+id, err)
	}

	resp := toExternalIntegrationResponse(ext)
	i.Events.Emit(ctx, EntityExternalIntegration, events.ActionUpdated, ext.ID, resp)
	return resp, nil
}

func (i *DefaultIntegrationService) DeleteExternalIntegration(ctx context.Context, id string) apierror.ErrorResponse {
	if err := i.ExternalRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete external integration "+id, err)
	}
	i.Events.Emit(ctx, EntityExternalIntegration, events.ActionDeleted, id, nil)
	return nil
}

// RecordEvent stores an event reported by the external system. The payload
// must decode strictly into the shape of its event type.
func (i *DefaultIntegrationService) RecordEvent(ctx context.Context, externalID string, req *RecordIntegrationEventRequest) (*IntegrationEventResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := i.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	payload, err := entity.DecodeIntegrationPayload(entity.IntegrationType(req.EventType), req.Payload)
	if err != nil {
		return nil, invalidPayload(err)
	}

	event := &entity.Integration{ExternalIntegrationID: externalID}
	if err := event.SetPayload(payload); err != nil {
		return nil, invalidPayload(err)
	}
	if err := i.IntegrationRepo.Create(ctx, event); err != nil {
		return nil, storeError("failed to record integration event", err)
	}

	resp := toIntegrationEventResponse(event)
	i.Events.Emit(ctx, EntityIntegration, events.ActionCreated, event.ID, resp)
	return resp, nil
}

func (i *DefaultIntegrationService) GetEvent(ctx context.Context, id string) (*IntegrationEventResponse, apierror.ErrorResponse) {
	event, err := i.IntegrationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find integration event "+id, err)
	}
	return toIntegrationEventResponse(event), nil
}

func (i *DefaultIntegrationService) GetEvents(ctx context.Context, externalID string, query *ListIntegrationEventsQuery) ([]*IntegrationEventResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := i.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	from, to, apierr := parseWindow(query.From, query.To)
	if apierr != nil {
		return nil, apierr
	}

	evts, err := i.IntegrationRepo.List(ctx, repository.IntegrationFilter{
		ExternalIntegrationID: externalID,
		EventType:             entity.IntegrationType(query.EventType),
		From:                  from,
		To:                    to,
		Page:                  query.page(),
	})
	if err != nil {
		return nil, storeError("failed to fetch integration events", err)
	}

	resp := make([]*IntegrationEventResponse, len(evts))
	for idx, event := range evts {
		resp[idx] = toIntegrationEventResponse(event)
	}
	return resp, nil
}

func (i *DefaultIntegrationService) UpdateEvent(ctx context.Context, id string, req *UpdateIntegrationEventRequest) (*IntegrationEventResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := i.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	payload, err := entity.DecodeIntegrationPayload(entity.IntegrationType(req.EventType), req.Payload)
	if err != nil {
		return nil, invalidPayload(err)
	}
	event, err := i.IntegrationRepo.UpdatePayload(ctx, id, payload)
	if err != nil {
		return nil, storeError("failed to update integration event "+id, err)
	}

	resp := toIntegrationEventResponse(event)
	i.Events.Emit(ctx, EntityIntegration, events.ActionUpdated, event.ID, resp)
	return resp, nil
}

func (i *DefaultIntegrationService) DeleteEvent(ctx context.Context, id string) apierror.ErrorResponse {
	if err := i.IntegrationRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete integration event "+id, err)
	}
	i.Events.Emit(ctx, EntityIntegration, events.ActionDeleted, id, nil)
	return nil
}

// SyncSchedules imports the external system's slots for a professional.
// Slots outside the window or overlapping an existing schedule are reported
// and skipped; every other slot is created together with a ScheduleChange
// event in its own transaction.
func (i *DefaultIntegrationService) SyncSchedules(ctx context.Context, req *SyncSchedulesRequest) (*SyncSchedulesResponse, apierror.ErrorResponse) {
	apiKey := req.APIKey
	utils.Sanitize(req)
	req.APIKey = apiKey
	if err := i.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	ext, err := i.ExternalRepo.FindByCredentials(ctx, req.ExternalSystemName, req.APIKey)
	if isNotFound(err) {
		log.Warnf("rejected sync from %q: invalid credentials", req.ExternalSystemName)
		return nil, apierror.InvalidCredentialsError
	}
	if err != nil {
		return nil, storeError("failed to check integration credentials", err)
	}

	from, _ := utils.ParseTime(req.SyncStartDate)
	to, _ := utils.ParseTime(req.SyncEndDate)
	if !from.Before(to) {
		return nil, apierror.InvalidSyncWindowError
	}

	resp := &SyncSchedulesResponse{ScheduleIDs: []string{}, Errors: []string{}}
	for idx, slot := range req.Slots {
		schedule, event, err := i.syncSlot(ctx, ext, req.ProfessionalID, slot, from, to)
		if err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("slot %d: %v", idx, err))
			continue
		}

		resp.SyncedCount++
		resp.ScheduleIDs = append(resp.ScheduleIDs, schedule.ID)
		i.Events.Emit(ctx, EntitySchedule, events.ActionCreated, schedule.ID, toScheduleResponse(schedule))
		i.Events.Emit(ctx, EntityIntegration, events.ActionCreated, event.ID, toIntegrationEventResponse(event))
	}
	resp.Success = len(resp.Errors) == 0

	log.Infof("sync from %s for %s: %d synced, %d rejected", ext.Name, req.ProfessionalID, resp.SyncedCount, len(resp.Errors))
	return resp, nil
}

func (i *DefaultIntegrationService) syncSlot(ctx context.Context, ext *entity.ExternalIntegration, professionalID string, slot SyncSlot, from, to time.Time) (*entity.Schedule, *entity.Integration, error) {
	start, _ := utils.ParseTime(slot.Start)
	end, _ := utils.ParseTime(slot.End)
	switch {
	case !start.Before(end):
		return nil, nil, errors.New("start must be before end")
	case start.Before(from) || end.After(to):
		return nil, nil, errors.New("outside the sync window")
	}

	block, err := utils.TimeBlockOf(start, slot.TimeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("unknown time zone %q", slot.TimeZone)
	}
	status := entity.ScheduleStatus(slot.Status)
	if status == "" {
		status = entity.StatusAvailable
	}

	schedule := &entity.Schedule{
		ProfessionalID: professionalID,
		Start:          start,
		End:            end,
		Status:         status,
		TimeBlock:      block,
		TimeZone:       slot.TimeZone,
	}
	event := &entity.Integration{ExternalIntegrationID: ext.ID}

	err = i.Tx.WithinTx(ctx, func(ctx context.Context) error {
		overlap, err := i.ScheduleRepo.HasOverlap(ctx, professionalID, start, end)
		if err != nil {
			return err
		}
		if overlap {
			return errSlotOverlap
		}
		if err := i.ScheduleRepo.Create(ctx, schedule); err != nil {
			return err
		}

		err = event.SetPayload(entity.ScheduleChangePayload{
			ScheduleID:     schedule.ID,
			ProfessionalID: professionalID,
			Status:         schedule.Status,
			Start:          schedule.Start,
			End:            schedule.End,
			Source:         ext.Name,
		})
		if err != nil {
			return err
		}
		return i.IntegrationRepo.Create(ctx, event)
	})
	if errors.Is(err, errSlotOverlap) {
		return nil, nil, err
	}
	if err != nil {
		log.Errorf("failed to sync slot %s-%s for %s: %v", slot.Start, slot.End, professionalID, err)
		return nil, nil, errors.New("could not be stored")
	}
	return schedule, event, nil
}

var errSlotOverlap = errors.New("overlaps an existing schedule")

func invalidPayload(err error) apierror.ErrorResponse {
	return &apierror.SimpleError{
		Status:  apierror.InvalidPayloadError.Status,
		Message: apierror.InvalidPayloadError.Message,
		Fields:  map[string]string{"payload": err.Error()},
	}
}

func toExternalIntegrationResponse(ext *entity.ExternalIntegration) *ExternalIntegrationResponse {
	return &ExternalIntegrationResponse{
		ID:        ext.ID,
		Name:      ext.Name,
		APIKey:    ext.KeyHint,
		CreatedAt: utils.FormatTime(ext.CreatedAt),
		UpdatedAt: utils.FormatTime(ext.UpdatedAt),
	}
}

func toIntegrationEventResponse(event *entity.Integration) *IntegrationEventResponse {
	return &IntegrationEventResponse{
		ID:                    event.ID,
		ExternalIntegrationID: event.ExternalIntegrationID,
		EventType:             string(event.EventType),
		Payload:               rawJSON(event.Payload),
		CreatedAt:             utils.FormatTime(event.CreatedAt),
		UpdatedAt:             utils.FormatTime(event.UpdatedAt),
	}
}
