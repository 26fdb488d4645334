package repository

import (
	"context"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
)

type AppointmentFilter struct {
	ScheduleID string
	ClientID   string
	From       time.Time
	To         time.Time
	Page
}

type AppointmentPatch struct {
	ScheduleID *string
	ClientID   *string
	StartTime  *time.Time
	EndTime    *time.Time
}

type DefaultAppointmentRepository struct {
	crud[entity.Appointment, *entity.Appointment]
}

func NewAppointmentRepository(db *store.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{crud[entity.Appointment, *entity.Appointment]{db: db, sortable: sortKeys(map[string]string{
		"startTime": "start_time",
		"endTime":   "end_time",
	})}}
}

func (a *DefaultAppointmentRepository) Create(ctx context.Context, appt *entity.Appointment) error {
	return a.create(ctx, appt)
}

func (a *DefaultAppointmentRepository) FindByID(ctx context.Context, id string) (*entity.Appointment, error) {
	return a.get(ctx, id)
}

func (a *DefaultAppointmentRepository) CountBySchedule(ctx context.Context, scheduleID string) (int64, error) {
	var count int64
	err := a.db.Conn(ctx).Model(&entity.Appointment{}).
		Where("schedule_id = ?", scheduleID).
		Count(&count).Error
	return count, store.Classify(err)
}

func (a *DefaultAppointmentRepository) Update(ctx context.Context, id string, patch AppointmentPatch) (*entity.Appointment, error) {
	return a.update(ctx, id, func(appt *entity.Appointment) {
		if patch.ScheduleID != nil {
			appt.ScheduleID = *patch.ScheduleID
		}
		if patch.ClientID != nil {
			appt.ClientID = *patch.ClientID
		}
		if patch.StartTime != nil {
			appt.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			appt.EndTime = *patch.EndTime
		}
	})
}

func (a *DefaultAppointmentRepository) Delete(ctx context.Context, id string) error {
	return a.delete(ctx, id)
}

func (a *DefaultAppointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]*entity.Appointment, error) {
	return a.list(ctx, filter.Page,
		eq("schedule_id", filter.ScheduleID),
		eq("client_id", filter.ClientID),
		overlapping("start_time", "end_time", filter.From, filter.To),
	)
}
