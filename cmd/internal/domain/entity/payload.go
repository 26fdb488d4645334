package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

var ErrInvalidPayload = errors.New("invalid payload")

// IntegrationPayload is the typed body of an Integration event.
type IntegrationPayload interface {
	IntegrationType() IntegrationType
	check() error
}

type ScheduleChangePayload struct {
	ScheduleID     string         `json:"scheduleId"`
	ProfessionalID string         `json:"professionalId"`
	Status         ScheduleStatus `json:"status"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Source         string         `json:"source,omitempty"`
}

func (ScheduleChangePayload) IntegrationType() IntegrationType {
	return IntegrationScheduleChange
}

func (p ScheduleChangePayload) check() error {
	if p.ScheduleID == "" || p.ProfessionalID == "" {
		return errors.New("scheduleId and professionalId are required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("unknown schedule status %q", p.Status)
	}
	if !p.Start.Before(p.End) {
		return errors.New("start must be before end")
	}
	return nil
}

type BookingConfirmationPayload struct {
	AppointmentID string    `json:"appointmentId"`
	ScheduleID    string    `json:"scheduleId"`
	ClientID      string    `json:"clientId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	ExternalRef   string    `json:"externalRef,omitempty"`
}

func (BookingConfirmationPayload) IntegrationType() IntegrationType {
	return IntegrationBookingConfirmation
}

func (p BookingConfirmationPayload) check() error {
	if p.AppointmentID == "" || p.ScheduleID == "" || p.ClientID == "" {
		return errors.New("appointmentId, scheduleId and clientId are required")
	}
	if !p.StartTime.Before(p.EndTime) {
		return errors.New("startTime must be before endTime")
	}
	return nil
}

// AnalyticsData is the typed body of an Analytics event.
type AnalyticsData interface {
	AnalyticsType() AnalyticsType
	check() error
}

type UserEngagementData struct {
	UserID     string `json:"userId"`
	Action     string `json:"action"`
	Path       string `json:"path,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

func (UserEngagementData) AnalyticsType() AnalyticsType {
	return AnalyticsUserEngagement
}

func (d UserEngagementData) check() error {
	if d.UserID == "" || d.Action == "" {
		return errors.New("userId and action are required")
	}
	if d.DurationMs < 0 {
		return errors.New("durationMs must not be negative")
	}
	return nil
}

type SystemPerformanceData struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
}

func (SystemPerformanceData) AnalyticsType() AnalyticsType {
	return AnalyticsSystemPerformance
}

func (d SystemPerformanceData) check() error {
	if d.Metric == "" {
		return errors.New("metric is required")
	}
	return nil
}

func DecodeIntegrationPayload(kind IntegrationType, raw []byte) (IntegrationPayload, error) {
	var p IntegrationPayload
	switch kind {
	case IntegrationScheduleChange:
		var v ScheduleChangePayload
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case IntegrationBookingConfirmation:
		var v BookingConfirmationPayload
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	default:
		return nil, fmt.Errorf("%w: unknown integration event type %q", ErrInvalidPayload, kind)
	}
	if err := p.check(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, kind, err)
	}
	return p, nil
}

func DecodeAnalyticsData(kind AnalyticsType, raw []byte) (AnalyticsData, error) {
	var d AnalyticsData
	switch kind {
	case AnalyticsUserEngagement:
		var v UserEngagementData
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		d = v
	case AnalyticsSystemPerformance:
		var v SystemPerformanceData
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		d = v
	default:
		return nil, fmt.Errorf("%w: unknown analytics type %q", ErrInvalidPayload, kind)
	}
	if err := d.check(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, kind, err)
	}
	return d, nil
}

func encodePayload(v interface{ check() error }) (datatypes.JSON, error) {
	if err := v.check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return datatypes.JSON(raw), nil
}

// decodeStrict rejects fields that do not belong to the target struct and
// anything after the first value.
func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after object", ErrInvalidPayload)
	}
	return nil
}
