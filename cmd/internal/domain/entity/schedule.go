package entity

import (
	"errors"
	"fmt"
	"time"
)

type Schedule struct {
	Base
	ProfessionalID string         `gorm:"size:64;not null;index:idx_schedules_professional_start,priority:1"`
	Start          time.Time      `gorm:"column:start_at;not null;index:idx_schedules_professional_start,priority:2;check:chk_schedules_interval,start_at < end_at"`
	End            time.Time      `gorm:"column:end_at;not null"`
	Status         ScheduleStatus `gorm:"size:16;not null;index;check:chk_schedules_status,status IN ('Available','Booked','Unavailable')"`
	TimeBlock      TimeBlock      `gorm:"size:16;not null;check:chk_schedules_time_block,time_block IN ('Morning','Afternoon','Evening','Night')"`
	TimeZone       string         `gorm:"size:64;not null"`
	ProfileID      *string        `gorm:"size:36;index"` // References: profiles(id)

	// Relations
	Profile *Profile `gorm:"foreignKey:ProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (s *Schedule) Normalize() {
	s.Start = Instant(s.Start)
	s.End = Instant(s.End)
	s.ProfileID = emptyToNil(s.ProfileID)
}

func (s *Schedule) Validate() error {
	if s.ProfessionalID == "" {
		return errors.New("professional id is required")
	}
	if !s.Start.Before(s.End) {
		return errors.New("schedule start must be before its end")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("unknown schedule status %q", s.Status)
	}
	if !s.TimeBlock.Valid() {
		return fmt.Errorf("unknown time block %q", s.TimeBlock)
	}
	if s.TimeZone == "" {
		return errors.New("time zone is required")
	}
	return nil
}

// Covers reports whether [start, end] lies inside the schedule's interval.
func (s *Schedule) Covers(start, end time.Time) bool {
	return !start.Before(s.Start) && !end.After(s.End)
}

type Appointment struct {
	Base
	ScheduleID string    `gorm:"size:36;not null;index"` // References: schedules(id)
	ClientID   string    `gorm:"size:36;not null;index"` // References: users(id)
	StartTime  time.Time `gorm:"not null;check:chk_appointments_interval,start_time < end_time"`
	EndTime    time.Time `gorm:"not null"`

	// Relations
	Schedule *Schedule `gorm:"foreignKey:ScheduleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Client   *User     `gorm:"foreignKey:ClientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (a *Appointment) Normalize() {
	a.StartTime = Instant(a.StartTime)
	a.EndTime = Instant(a.EndTime)
}

func (a *Appointment) Validate() error {
	if !a.StartTime.Before(a.EndTime) {
		return errors.New("appointment start must be before its end")
	}
	return nil
}
