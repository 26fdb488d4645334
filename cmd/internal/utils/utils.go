package utils

import (
	"reflect"
	"strings"
	"time"

	"availability/cmd/internal/domain/entity"
)

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func NowUTC() time.Time {
	return entity.Instant(time.Now())
}

func ParseTime(rfc string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, rfc)
	if err != nil {
		return time.Time{}, err
	}
	return entity.Instant(t), nil
}

// ParseOptionalTime returns the zero time for an empty string.
func ParseOptionalTime(rfc string) (time.Time, error) {
	if rfc == "" {
		return time.Time{}, nil
	}
	return ParseTime(rfc)
}

// TimeBlockOf buckets an instant by the wall clock hour in zone:
// 05-12 Morning, 12-17 Afternoon, 17-21 Evening, otherwise Night.
func TimeBlockOf(t time.Time, zone string) (entity.TimeBlock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return "", err
	}

	hour := t.In(loc).Hour()
	switch {
	case hour >= 5 && hour < 12:
		return entity.BlockMorning, nil
	case hour >= 12 && hour < 17:
		return entity.BlockAfternoon, nil
	case hour >= 17 && hour < 21:
		return entity.BlockEvening, nil
	default:
		return entity.BlockNight, nil
	}
}

// MaskSecret keeps the last four characters of a credential.
func MaskSecret(s string) string {
	const visible = 4
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-visible) + s[len(s)-visible:]
}

func Sanitize(o any) {
	v := reflect.ValueOf(o)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		panic("sanitize: expected pointer to struct")
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		panic("sanitize: expected struct")
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(sanitizeString(field.String()))

		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.String {
				field.Elem().SetString(sanitizeString(field.Elem().String()))
			}

		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					field.Index(j).SetString(sanitizeString(field.Index(j).String()))
				}
			}
		}
	}
}

func sanitizeString(s string) string {
	return strings.TrimSpace(s)
}
