package service

import (
	"context"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/utils"
	"availability/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *entity.Schedule) error
	FindByID(ctx context.Context, id string) (*entity.Schedule, error)
	FindForUpdate(ctx context.Context, id string) (*entity.Schedule, error)
	FindCovering(ctx context.Context, professionalID string, start, end time.Time) (*entity.Schedule, error)
	HasOverlap(ctx context.Context, professionalID string, start, end time.Time) (bool, error)
	Update(ctx context.Context, id string, patch repository.SchedulePatch) (*entity.Schedule, error)
	SetStatus(ctx context.Context, id string, status entity.ScheduleStatus) (*entity.Schedule, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.ScheduleFilter) ([]*entity.Schedule, error)
}

type CreateScheduleRequest struct {
	ProfessionalID string  `json:"professionalId" validate:"required,max=64"`
	Start          string  `json:"start" validate:"required,iso8601"`
	End            string  `json:"end" validate:"required,iso8601"`
	Status         string  `json:"status" validate:"omitempty,schedulestatus"`
	TimeBlock      string  `json:"timeBlock" validate:"omitempty,timeblock"`
	TimeZone       string  `json:"timeZone" validate:"required,timezone"`
	ProfileID      *string `json:"profileId" validate:"omitempty,max=36"`
}

type UpdateScheduleRequest struct {
	ProfessionalID *string `json:"professionalId" validate:"omitempty,max=64"`
	Start          *string `json:"start" validate:"omitempty,iso8601"`
	End            *string `json:"end" validate:"omitempty,iso8601"`
	Status         *string `json:"status" validate:"omitempty,schedulestatus"`
	TimeBlock      *string `json:"timeBlock" validate:"omitempty,timeblock"`
	TimeZone       *string `json:"timeZone" validate:"omitempty,timezone"`
	ProfileID      *string `json:"profileId" validate:"omitempty,max=36"`
}

type ListSchedulesQuery struct {
	ProfessionalID string `query:"professionalId"`
	ProfileID      string `query:"profileId"`
	Status         string `query:"status" validate:"omitempty,schedulestatus"`
	TimeBlock      string `query:"timeBlock" validate:"omitempty,timeblock"`
	From           string `query:"from" validate:"omitempty,iso8601"`
	To             string `query:"to" validate:"omitempty,iso8601"`
	PageQuery
}

type AvailabilityQuery struct {
	From string `query:"from" validate:"omitempty,iso8601"`
	To   string `query:"to" validate:"omitempty,iso8601"`
}

type ScheduleResponse struct {
	ID             string  `json:"id"`
	ProfessionalID string  `json:"professionalId"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Status         string  `json:"status"`
	TimeBlock      string  `json:"timeBlock"`
	TimeZone       string  `json:"timeZone"`
	ProfileID      *string `json:"profileId"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

type DefaultScheduleService struct {
	ScheduleRepo    ScheduleRepository
	AppointmentRepo AppointmentRepository
	Tx              Transactor
	Validate        *validator.Validate
	Events          EventEmitter
}

func NewScheduleService(scheduleRepo ScheduleRepository, appointmentRepo AppointmentRepository, tx Transactor, validate *validator.Validate, emitter EventEmitter) *DefaultScheduleService {
	return &DefaultScheduleService{
		ScheduleRepo:    scheduleRepo,
		AppointmentRepo: appointmentRepo,
		Tx:              tx,
		Validate:        validate,
		Events:          emitter,
	}
}

func (s *DefaultScheduleService) CreateSchedule(ctx context.Context, req *CreateScheduleRequest) (*ScheduleResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	start, _ := utils.ParseTime(req.Start)
	end, _ := utils.ParseTime(req.End)
	if !start.Before(end) {
		return nil, apierror.InvalidIntervalError
	}

	schedule := &entity.Schedule{
		ProfessionalID: req.ProfessionalID,
		Start:          start,
		End:            end,
		Status:         entity.ScheduleStatus(req.Status),
		TimeBlock:      entity.TimeBlock(req.TimeBlock),
		TimeZone:       req.TimeZone,
		ProfileID:      req.ProfileID,
	}
	if schedule.Status == "" {
		schedule.Status = entity.StatusAvailable
	}
	if schedule.TimeBlock == "" {
		block, err := utils.TimeBlockOf(start, req.TimeZone)
		if err != nil {
			return nil, apierror.InvalidTimeZoneError
		}
		schedule.TimeBlock = block
	}

	if err := s.ScheduleRepo.Create(ctx, schedule); err != nil {
		return nil, storeError("failed to create schedule", err)
	}

	resp := toScheduleResponse(schedule)
	s.Events.Emit(ctx, EntitySchedule, events.ActionCreated, schedule.ID, resp)
	return resp, nil
}

func (s *DefaultScheduleService) GetSchedule(ctx context.Context, id string) (*ScheduleResponse, apierror.ErrorResponse) {
	schedule, err := s.ScheduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find schedule "+id, err)
	}
	return toScheduleResponse(schedule), nil
}

func (s *DefaultScheduleService) GetSchedules(ctx context.Context, query *ListSchedulesQuery) ([]*ScheduleResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := s.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	from, to, apierr := parseWindow(query.From, query.To)
	if apierr != nil {
		return nil, apierr
	}

	return s.list(ctx, repository.ScheduleFilter{
		ProfessionalID: query.ProfessionalID,
		ProfileID:      query.ProfileID,
		Status:         entity.ScheduleStatus(query.Status),
		TimeBlock:      entity.TimeBlock(query.TimeBlock),
		From:           from,
		To:             to,
		Page:           query.page(),
	})
}

// GetAvailability lists the open slots of a professional in start order.
func (s *DefaultScheduleService) GetAvailability(ctx context.Context, professionalID string, query *AvailabilityQuery) ([]*ScheduleResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := s.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	from, to, apierr := parseWindow(query.From, query.To)
	if apierr != nil {
		return nil, apierr
	}

	return s.list(ctx, repository.ScheduleFilter{
		ProfessionalID: professionalID,
		Status:         entity.StatusAvailable,
		From:           from,
		To:             to,
		Page:           repository.Page{OrderBy: "start"},
	})
}

func (s *DefaultScheduleService) list(ctx context.Context, filter repository.ScheduleFilter) ([]*ScheduleResponse, apierror.ErrorResponse) {
	schedules, err := s.ScheduleRepo.List(ctx, filter)
	if err != nil {
		return nil, storeError("failed to fetch schedules", err)
	}

	resp := make([]*ScheduleResponse, len(schedules))
	for i, schedule := range schedules {
		resp[i] = toScheduleResponse(schedule)
	}
	return resp, nil
}

// checkBookings refuses an update that would reopen a slot while it holds
// appointments or move it away from them.
func (s *DefaultScheduleService) checkBookings(ctx context.Context, current *entity.Schedule, patch repository.SchedulePatch, start, end time.Time) error {
	resized := !start.Equal(current.Start) || !end.Equal(current.End)
	reassigned := patch.ProfessionalID != nil && *patch.ProfessionalID != current.ProfessionalID
	reopened := patch.Status != nil && *patch.Status == entity.StatusAvailable && current.Status != entity.StatusAvailable
	if !resized && !reassigned && !reopened {
		return nil
	}

	appts, err := s.AppointmentRepo.List(ctx, repository.AppointmentFilter{ScheduleID: current.ID})
	if err != nil {
		return err
	}
	if len(appts) == 0 {
		return nil
	}
	if reopened || reassigned {
		return apierror.ScheduleHasBookingsError
	}
	for _, appt := range appts {
		if appt.StartTime.Before(start) || appt.EndTime.After(end) {
			return apierror.ScheduleHasBookingsError
		}
	}
	return nil
}

// UpdateSchedule applies the non-nil fields. The time block is derived again
// when the start or zone moves and no block is given.
func (s *DefaultScheduleService) UpdateSchedule(ctx context.Context, id string, req *UpdateScheduleRequest) (*ScheduleResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var schedule *entity.Schedule
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.ScheduleRepo.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}

		patch := repository.SchedulePatch{
			ProfessionalID: req.ProfessionalID,
			TimeZone:       req.TimeZone,
			ProfileID:      req.ProfileID,
		}
		start, end, zone := current.Start, current.End, current.TimeZone
		if req.Start != nil {
			start, _ = utils.ParseTime(*req.Start)
			patch.Start = &start
		}
		if req.End != nil {
			end, _ = utils.ParseTime(*req.End)
			patch.End = &end
		}
		if req.TimeZone != nil {
			zone = *req.TimeZone
		}
		if !start.Before(end) {
			return apierror.InvalidIntervalError
		}
		if req.Status != nil {
			status := entity.ScheduleStatus(*req.Status)
			patch.Status = &status
		}
		if err := s.checkBookings(ctx, current, patch, start, end); err != nil {
			return err
		}
		if req.TimeBlock != nil {
			block := entity.TimeBlock(*req.TimeBlock)
			patch.TimeBlock = &block
		} else if req.Start != nil || req.TimeZone != nil {
			block, err := utils.TimeBlockOf(start, zone)
			if err != nil {
				return apierror.InvalidTimeZoneError
			}
			patch.TimeBlock = &block
		}

		schedule, err = s.ScheduleRepo.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, asResponse("failed to update schedule "+id, err)
	}

	resp := toScheduleResponse(schedule)
	s.Events.Emit(ctx, EntitySchedule, events.ActionUpdated, schedule.ID, resp)
	return resp, nil
}

func (s *DefaultScheduleService) DeleteSchedule(ctx context.Context, id string) apierror.ErrorResponse {
	if err := s.ScheduleRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete schedule "+id, err)
	}
	s.Events.Emit(ctx, EntitySchedule, events.ActionDeleted, id, nil)
	return nil
}

// Block takes a slot off the calendar whatever its status. Existing
// appointments are kept; the slot stays Unavailable after they are cancelled.
func (s *DefaultScheduleService) Block(ctx context.Context, id string) (*ScheduleResponse, apierror.ErrorResponse) {
	schedule, err := s.ScheduleRepo.SetStatus(ctx, id, entity.StatusUnavailable)
	if err != nil {
		return nil, storeError("failed to block schedule "+id, err)
	}

	resp := toScheduleResponse(schedule)
	s.Events.Emit(ctx, EntitySchedule, events.ActionUpdated, schedule.ID, resp)
	return resp, nil
}

// Release reopens a slot once no appointment references it.
func (s *DefaultScheduleService) Release(ctx context.Context, id string) (*ScheduleResponse, apierror.ErrorResponse) {
	var schedule *entity.Schedule
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		count, err := s.AppointmentRepo.CountBySchedule(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apierror.ScheduleHasBookingsError
		}
		schedule, err = s.ScheduleRepo.SetStatus(ctx, id, entity.StatusAvailable)
		return err
	})
	if err != nil {
		return nil, asResponse("failed to release schedule "+id, err)
	}

	log.Infof("schedule %s released", id)
	resp := toScheduleResponse(schedule)
	s.Events.Emit(ctx, EntitySchedule, events.ActionUpdated, schedule.ID, resp)
	return resp, nil
}

func toScheduleResponse(schedule *entity.Schedule) *ScheduleResponse {
	return &ScheduleResponse{
		ID:             schedule.ID,
		ProfessionalID: schedule.ProfessionalID,
		Start:          utils.FormatTime(schedule.Start),
		End:            utils.FormatTime(schedule.End),
		Status:         string(schedule.Status),
		TimeBlock:      string(schedule.TimeBlock),
		TimeZone:       schedule.TimeZone,
		ProfileID:      schedule.ProfileID,
		CreatedAt:      utils.FormatTime(schedule.CreatedAt),
		UpdatedAt:      utils.FormatTime(schedule.UpdatedAt),
	}
}
