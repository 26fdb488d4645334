package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/metrics"
	"availability/cmd/internal/utils"
	"availability/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

var (
	AppointmentInPastError = apierror.NewSimple(http.StatusUnprocessableEntity, "Appointment must start in the future")
	ClientNotFoundError    = apierror.NewSimple(http.StatusNotFound, "Client does not exist")
)

type AppointmentRepository interface {
	Create(ctx context.Context, appt *entity.Appointment) error
	FindByID(ctx context.Context, id string) (*entity.Appointment, error)
	CountBySchedule(ctx context.Context, scheduleID string) (int64, error)
	Update(ctx context.Context, id string, patch repository.AppointmentPatch) (*entity.Appointment, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.AppointmentFilter) ([]*entity.Appointment, error)
}

type BookAppointmentRequest struct {
	ProfessionalID string `json:"professionalId" validate:"required,max=64"`
	ClientID       string `json:"clientId" validate:"required,max=36"`
	StartTime      string `json:"startTime" validate:"required,iso8601"`
	EndTime        string `json:"endTime" validate:"required,iso8601"`
	ScheduleID     string `json:"scheduleId" validate:"omitempty,max=36"`
	Details        string `json:"details" validate:"max=500"`
}

type ListAppointmentsQuery struct {
	ScheduleID string `query:"scheduleId"`
	ClientID   string `query:"clientId"`
	From       string `query:"from" validate:"omitempty,iso8601"`
	To         string `query:"to" validate:"omitempty,iso8601"`
	PageQuery
}

type AppointmentResponse struct {
	ID             string `json:"id"`
	ScheduleID     string `json:"scheduleId"`
	ClientID       string `json:"clientId"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
	NotificationID string `json:"notificationId,omitempty"`
}

type DefaultAppointmentService struct {
	AppointmentRepo  AppointmentRepository
	ScheduleRepo     ScheduleRepository
	NotificationRepo NotificationRepository
	Tx               Transactor
	Validate         *validator.Validate
	Events           EventEmitter
	Now              func() time.Time
}

func NewAppointmentService(appointmentRepo AppointmentRepository, scheduleRepo ScheduleRepository, notificationRepo NotificationRepository, tx Transactor, validate *validator.Validate, emitter EventEmitter) *DefaultAppointmentService {
	return &DefaultAppointmentService{
		AppointmentRepo:  appointmentRepo,
		ScheduleRepo:     scheduleRepo,
		NotificationRepo: notificationRepo,
		Tx:               tx,
		Validate:         validate,
		Events:           emitter,
		Now:              utils.NowUTC,
	}
}

// Book reserves a slot for the client. The appointment, the schedule status
// and the client's in-app notification are written in one transaction.
func (a *DefaultAppointmentService) Book(ctx context.Context, req *BookAppointmentRequest) (*AppointmentResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	start, _ := utils.ParseTime(req.StartTime)
	end, _ := utils.ParseTime(req.EndTime)
	if !start.Before(end) {
		return nil, apierror.InvalidIntervalError
	}
	if !start.After(a.Now()) {
		return nil, AppointmentInPastError
	}

	var (
		appt     *entity.Appointment
		schedule *entity.Schedule
		notif    *entity.Notification
	)
	err := a.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		schedule, err = a.slotFor(ctx, req, start, end)
		if err != nil {
			return err
		}

		appt = &entity.Appointment{
			ScheduleID: schedule.ID,
			ClientID:   req.ClientID,
			StartTime:  start,
			EndTime:    end,
		}
		if err := a.AppointmentRepo.Create(ctx, appt); err != nil {
			if errors.Is(err, store.ErrForeignKeyViolation) {
				return ClientNotFoundError
			}
			return err
		}

		schedule, err = a.ScheduleRepo.SetStatus(ctx, schedule.ID, entity.StatusBooked)
		if err != nil {
			return err
		}

		notif = &entity.Notification{
			UserID:  req.ClientID,
			Type:    entity.NotificationInApp,
			Message: bookingMessage(req.ProfessionalID, start, req.Details),
		}
		return a.NotificationRepo.Create(ctx, notif)
	})
	if err != nil {
		apierr := asResponse("failed to book appointment", err)
		if apierr == apierror.NotAvailableError {
			metrics.IncBooking("unavailable")
		} else {
			metrics.IncBooking("failed")
		}
		return nil, apierr
	}

	metrics.IncBooking("booked")
	log.Infof("appointment %s booked on schedule %s", appt.ID, schedule.ID)

	resp := toAppointmentResponse(appt)
	resp.NotificationID = notif.ID
	a.Events.Emit(ctx, EntityAppointment, events.ActionCreated, appt.ID, resp)
	a.Events.Emit(ctx, EntitySchedule, events.ActionUpdated, schedule.ID, toScheduleResponse(schedule))
	a.Events.Emit(ctx, EntityNotification, events.ActionCreated, notif.ID, toNotificationResponse(notif))
	return resp, nil
}

// slotFor resolves the schedule a booking lands on: the requested one when
// given, otherwise the earliest open slot covering the interval.
func (a *DefaultAppointmentService) slotFor(ctx context.Context, req *BookAppointmentRequest, start, end time.Time) (*entity.Schedule, error) {
	if req.ScheduleID == "" {
		schedule, err := a.ScheduleRepo.FindCovering(ctx, req.ProfessionalID, start, end)
		if isNotFound(err) {
			return nil, apierror.NotAvailableError
		}
		return schedule, err
	}

	schedule, err := a.ScheduleRepo.FindForUpdate(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.ProfessionalID != req.ProfessionalID || schedule.Status != entity.StatusAvailable {
		return nil, apierror.NotAvailableError
	}
	if !schedule.Covers(start, end) {
		return nil, apierror.AppointmentOutOfRangeError
	}
	return schedule, nil
}

// Cancel removes the appointment and reopens its slot when nothing else is
// booked on it.
func (a *DefaultAppointmentService) Cancel(ctx context.Context, id string) apierror.ErrorResponse {
	var schedule *entity.Schedule
	err := a.Tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := a.AppointmentRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := a.AppointmentRepo.Delete(ctx, id); err != nil {
			return err
		}

		remaining, err := a.AppointmentRepo.CountBySchedule(ctx, appt.ScheduleID)
		if err != nil || remaining > 0 {
			return err
		}
		current, err := a.ScheduleRepo.FindForUpdate(ctx, appt.ScheduleID)
		if err != nil || current.Status != entity.StatusBooked {
			return err
		}
		schedule, err = a.ScheduleRepo.SetStatus(ctx, appt.ScheduleID, entity.StatusAvailable)
		return err
	})
	if err != nil {
		return storeError("failed to cancel appointment "+id, err)
	}

	metrics.IncBooking("cancelled")
	a.Events.Emit(ctx, EntityAppointment, events.ActionDeleted, id, nil)
	if schedule != nil {
		a.Events.Emit(ctx, EntitySchedule, events.ActionUpdated, schedule.ID, toScheduleResponse(schedule))
	}
	return nil
}

func (a *DefaultAppointmentService) GetAppointment(ctx context.Context, id string) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, err := a.AppointmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find appointment "+id, err)
	}
	return toAppointmentResponse(appt), nil
}

func (a *DefaultAppointmentService) GetAppointments(ctx context.Context, query *ListAppointmentsQuery) ([]*AppointmentResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := a.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	from, to, apierr := parseWindow(query.From, query.To)
	if apierr != nil {
		return nil, apierr
	}

	appts, err := a.AppointmentRepo.List(ctx, repository.AppointmentFilter{
		ScheduleID: query.ScheduleID,
		ClientID:   query.ClientID,
		From:       from,
		To:         to,
		Page:       query.page(),
	})
	if err != nil {
		return nil, storeError("failed to fetch appointments", err)
	}

	resp := make([]*AppointmentResponse, len(appts))
	for i, appt := range appts {
		resp[i] = toAppointmentResponse(appt)
	}
	return resp, nil
}

func bookingMessage(professionalID string, start time.Time, details string) string {
	msg := fmt.Sprintf("Appointment booked with %s at %s", professionalID, utils.FormatTime(start))
	if details != "" {
		msg += ": " + details
	}
	return msg
}

func toAppointmentResponse(appt *entity.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:         appt.ID,
		ScheduleID: appt.ScheduleID,
		ClientID:   appt.ClientID,
		StartTime:  utils.FormatTime(appt.StartTime),
		EndTime:    utils.FormatTime(appt.EndTime),
		CreatedAt:  utils.FormatTime(appt.CreatedAt),
		UpdatedAt:  utils.FormatTime(appt.UpdatedAt),
	}
}
