package validators

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"availability/cmd/internal/domain/entity"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with every custom rule registered and field
// names reported by their json tag.
func New() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("hasupper", HasUpper)
	_ = validate.RegisterValidation("haslower", HasLower)
	_ = validate.RegisterValidation("hasdigit", HasDigit)
	_ = validate.RegisterValidation("hasspecial", HasSpecial)
	_ = validate.RegisterValidation("nospaces", NoWhiteSpaces)
	_ = validate.RegisterValidation("iso8601", IsIso8601)

	_ = validate.RegisterValidation("userrole", IsEnum[entity.UserRole])
	_ = validate.RegisterValidation("schedulestatus", IsEnum[entity.ScheduleStatus])
	_ = validate.RegisterValidation("timeblock", IsEnum[entity.TimeBlock])
	_ = validate.RegisterValidation("notiftype", IsEnum[entity.NotificationType])
	_ = validate.RegisterValidation("integrationtype", IsEnum[entity.IntegrationType])
	_ = validate.RegisterValidation("analyticstype", IsEnum[entity.AnalyticsType])
	return validate
}

type enum interface {
	~string
	Valid() bool
}

// IsEnum accepts the values an entity enumeration knows.
func IsEnum[T enum](fl validator.FieldLevel) bool {
	return T(fl.Field().String()).Valid()
}

func HasUpper(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsUpper) >= 0
}

func HasLower(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsLower) >= 0
}

func HasDigit(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsDigit) >= 0
}

func HasSpecial(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) >= 0
}

func NoWhiteSpaces(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsSpace) < 0
}

// IsIso8601 accepts RFC 3339 timestamps; an empty value passes so the rule
// combines with omitempty and required.
func IsIso8601(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}
