package utils

import (
	"testing"
	"time"

	"availability/cmd/internal/domain/entity"
)

func TestTimeBlockOf(t *testing.T) {
	day := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		hour int
		zone string
		want entity.TimeBlock
	}{
		{5, "UTC", entity.BlockMorning},
		{11, "UTC", entity.BlockMorning},
		{12, "UTC", entity.BlockAfternoon},
		{17, "UTC", entity.BlockEvening},
		{21, "UTC", entity.BlockNight},
		{2, "UTC", entity.BlockNight},
		// 08:00 UTC is 10:00 in Berlin summer time and 04:00 in New York.
		{8, "Europe/Berlin", entity.BlockMorning},
		{8, "America/New_York", entity.BlockNight},
	}
	for _, tt := range tests {
		got, err := TimeBlockOf(day.Add(time.Duration(tt.hour)*time.Hour), tt.zone)
		if err != nil {
			t.Fatalf("%d %s: %v", tt.hour, tt.zone, err)
		}
		if got != tt.want {
			t.Errorf("%02d:00 UTC in %s = %s, want %s", tt.hour, tt.zone, got, tt.want)
		}
	}

	if _, err := TimeBlockOf(day, "Mars/Olympus"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

func TestSanitize(t *testing.T) {
	name := "  Ada "
	req := struct {
		Email string
		Name  *string
		Tags  []string
		Count int
	}{Email: " a@x.com\n", Name: &name, Tags: []string{" x ", "y "}, Count: 3}

	Sanitize(&req)

	if req.Email != "a@x.com" || *req.Name != "Ada" || req.Tags[0] != "x" || req.Tags[1] != "y" {
		t.Fatalf("not sanitized: %+v %q", req, *req.Name)
	}
}

func TestParseTimeNormalizes(t *testing.T) {
	got, err := ParseTime("2030-01-02T10:00:00.1234567+02:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2030, 1, 2, 8, 0, 0, 123456000, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("abcdefgh"); got != "****efgh" {
		t.Fatalf("got %s", got)
	}
	if got := MaskSecret("abc"); got != "***" {
		t.Fatalf("got %s", got)
	}
}
