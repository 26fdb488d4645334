package repository

import (
	"context"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"

	"gorm.io/gorm/clause"
)

type ScheduleFilter struct {
	ProfessionalID string
	ProfileID      string
	Status         entity.ScheduleStatus
	TimeBlock      entity.TimeBlock
	// From and To select schedules overlapping [From, To); zero is open.
	From time.Time
	To   time.Time
	Page
}

type SchedulePatch struct {
	ProfessionalID *string
	Start          *time.Time
	End            *time.Time
	Status         *entity.ScheduleStatus
	TimeBlock      *entity.TimeBlock
	TimeZone       *string
	ProfileID      *string
}

type DefaultScheduleRepository struct {
	crud[entity.Schedule, *entity.Schedule]
}

func NewScheduleRepository(db *store.DB) *DefaultScheduleRepository {
	return &DefaultScheduleRepository{crud[entity.Schedule, *entity.Schedule]{db: db, sortable: sortKeys(map[string]string{
		"start":  "start_at",
		"end":    "end_at",
		"status": "status",
	})}}
}

func (s *DefaultScheduleRepository) Create(ctx context.Context, schedule *entity.Schedule) error {
	return s.create(ctx, schedule)
}

func (s *DefaultScheduleRepository) FindByID(ctx context.Context, id string) (*entity.Schedule, error) {
	return s.get(ctx, id)
}

// FindForUpdate loads the schedule and locks its row until the surrounding
// transaction ends. SQLite ignores the lock; its single writer serialises
// transactions instead.
func (s *DefaultScheduleRepository) FindForUpdate(ctx context.Context, id string) (*entity.Schedule, error) {
	var schedule entity.Schedule
	err := s.db.Conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&schedule).Error
	if err != nil {
		return nil, store.Classify(err)
	}
	return &schedule, nil
}

// FindCovering returns the earliest Available schedule of the professional
// whose interval contains [start, end], locked like FindForUpdate. A slot
// claimed by a concurrent booking is no longer Available once the lock is
// granted and is skipped.
func (s *DefaultScheduleRepository) FindCovering(ctx context.Context, professionalID string, start, end time.Time) (*entity.Schedule, error) {
	var schedule entity.Schedule
	err := s.db.Conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("professional_id = ?", professionalID).
		Where("status = ?", entity.StatusAvailable).
		Where("start_at <= ?", entity.Instant(start)).
		Where("end_at >= ?", entity.Instant(end)).
		Order("start_at asc").
		Take(&schedule).Error
	if err != nil {
		return nil, store.Classify(err)
	}
	return &schedule, nil
}

// HasOverlap reports whether any schedule of the professional intersects
// [start, end).
func (s *DefaultScheduleRepository) HasOverlap(ctx context.Context, professionalID string, start, end time.Time) (bool, error) {
	var count int64
	err := s.db.Conn(ctx).Model(&entity.Schedule{}).
		Where("professional_id = ?", professionalID).
		Where("start_at < ?", entity.Instant(end)).
		Where("end_at > ?", entity.Instant(start)).
		Count(&count).Error
	if err != nil {
		return false, store.Classify(err)
	}
	return count > 0, nil
}

func (s *DefaultScheduleRepository) Update(ctx context.Context, id string, patch SchedulePatch) (*entity.Schedule, error) {
	return s.update(ctx, id, func(schedule *entity.Schedule) {
		if patch.ProfessionalID != nil {
			schedule.ProfessionalID = *patch.ProfessionalID
		}
		if patch.Start != nil {
			schedule.Start = *patch.Start
		}
		if patch.End != nil {
			schedule.End = *patch.End
		}
		if patch.Status != nil {
			schedule.Status = *patch.Status
		}
		if patch.TimeBlock != nil {
			schedule.TimeBlock = *patch.TimeBlock
		}
		if patch.TimeZone != nil {
			schedule.TimeZone = *patch.TimeZone
		}
		if patch.ProfileID != nil {
			schedule.ProfileID = patch.ProfileID
		}
	})
}

func (s *DefaultScheduleRepository) SetStatus(ctx context.Context, id string, status entity.ScheduleStatus) (*entity.Schedule, error) {
	return s.Update(ctx, id, SchedulePatch{Status: &status})
}

func (s *DefaultScheduleRepository) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

func (s *DefaultScheduleRepository) List(ctx context.Context, filter ScheduleFilter) ([]*entity.Schedule, error) {
	return s.list(ctx, filter.Page,
		eq("professional_id", filter.ProfessionalID),
		eq("profile_id", filter.ProfileID),
		eq("status", string(filter.Status)),
		eq("time_block", string(filter.TimeBlock)),
		overlapping("start_at", "end_at", filter.From, filter.To),
	)
}
