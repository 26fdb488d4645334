package entity

import (
	"errors"
	"testing"
	"time"
)

func TestInstantNormalizes(t *testing.T) {
	in := time.Date(2030, 3, 4, 10, 0, 0, 123456789, time.FixedZone("CET", 3600))
	got := Instant(in)
	if got.Location() != time.UTC || got.Hour() != 9 || got.Nanosecond() != 123456000 {
		t.Fatalf("unexpected instant %v", got)
	}
}

func TestDecodeIntegrationPayload(t *testing.T) {
	tests := []struct {
		name string
		kind IntegrationType
		raw  string
		ok   bool
	}{
		{"schedule change", IntegrationScheduleChange, `{"scheduleId":"s","professionalId":"p","status":"Booked","start":"2030-01-01T09:00:00Z","end":"2030-01-01T10:00:00Z"}`, true},
		{"inverted interval", IntegrationScheduleChange, `{"scheduleId":"s","professionalId":"p","status":"Booked","start":"2030-01-01T10:00:00Z","end":"2030-01-01T09:00:00Z"}`, false},
		{"bad status", IntegrationScheduleChange, `{"scheduleId":"s","professionalId":"p","status":"Gone","start":"2030-01-01T09:00:00Z","end":"2030-01-01T10:00:00Z"}`, false},
		{"booking missing ids", IntegrationBookingConfirmation, `{"appointmentId":"a","startTime":"2030-01-01T09:00:00Z","endTime":"2030-01-01T10:00:00Z"}`, false},
		{"unknown field", IntegrationBookingConfirmation, `{"appointmentId":"a","extra":1}`, false},
		{"trailing data", IntegrationBookingConfirmation, `{"appointmentId":"a","scheduleId":"s","clientId":"c","startTime":"2030-01-01T09:00:00Z","endTime":"2030-01-01T10:00:00Z"} {}`, false},
		{"unknown kind", IntegrationType("Refund"), `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodeIntegrationPayload(tt.kind, []byte(tt.raw))
			if tt.ok {
				if err != nil || p.IntegrationType() != tt.kind {
					t.Fatalf("expected %s payload, got %v (%v)", tt.kind, p, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
		})
	}
}

func TestSetDataSetsType(t *testing.T) {
	var a Analytics
	if err := a.SetData(SystemPerformanceData{Metric: "cpu", Value: 0.5}); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if a.Type != AnalyticsSystemPerformance {
		t.Fatalf("expected type to follow the data, got %s", a.Type)
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	a.Type = AnalyticsUserEngagement
	if err := a.Validate(); err == nil {
		t.Fatal("expected mismatched type and data to fail validation")
	}
}

func TestScheduleCovers(t *testing.T) {
	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	s := Schedule{Start: start, End: start.Add(time.Hour)}
	if !s.Covers(start, start.Add(time.Hour)) {
		t.Error("a schedule covers its own interval")
	}
	if s.Covers(start.Add(-time.Minute), start.Add(time.Minute)) {
		t.Error("interval starting before the schedule is not covered")
	}
}
