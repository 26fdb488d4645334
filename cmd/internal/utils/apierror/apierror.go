package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"availability/cmd/internal/domain/store"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is an error that knows its HTTP status and serializes as
// the response body.
type ErrorResponse interface {
	error
	Code() int
}

type SimpleError struct {
	Status  int               `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *SimpleError) Error() string {
	return e.Message
}

func (e *SimpleError) Code() int {
	return e.Status
}

func NewSimple(code int, message string) *SimpleError {
	return &SimpleError{Status: code, Message: message}
}

var (
	InternalServerError = NewSimple(http.StatusInternalServerError, "Internal server error")
	NotFoundError       = NewSimple(http.StatusNotFound, "Resource not found")
	MalformedBodyError  = NewSimple(http.StatusBadRequest, "Malformed request body")
	InvalidFilterError  = NewSimple(http.StatusBadRequest, "Invalid filter or ordering")
	StoreUnavailable    = NewSimple(http.StatusServiceUnavailable, "Storage is unavailable, try again later")

	ConstraintViolationError = NewSimple(http.StatusConflict, "Request conflicts with existing data")
	ForeignKeyViolationError = NewSimple(http.StatusConflict, "Referenced resource does not exist or is still in use")

	UserAlreadyExistsError     = NewSimple(http.StatusConflict, "Email already in use")
	ProfileNotFoundError       = NewSimple(http.StatusNotFound, "User does not have an associated profile")
	InvalidTimeZoneError       = NewSimple(http.StatusUnprocessableEntity, "Unknown time zone")
	InvalidIntervalError       = NewSimple(http.StatusUnprocessableEntity, "Start must be before end")
	NotAvailableError          = NewSimple(http.StatusConflict, "Professional is not available at the requested time")
	ScheduleHasBookingsError   = NewSimple(http.StatusConflict, "Schedule still has appointments")
	InvalidPayloadError        = NewSimple(http.StatusUnprocessableEntity, "Payload does not match its event type")
	InvalidCredentialsError    = NewSimple(http.StatusForbidden, "Invalid API key or external system name")
	InvalidSyncWindowError     = NewSimple(http.StatusUnprocessableEntity, "Sync window start must be before its end")
	AppointmentOutOfRangeError = NewSimple(http.StatusUnprocessableEntity, "Appointment must lie inside its schedule")
)

func NewInvalidParamTypeError(name, typ string) *SimpleError {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Parameter '%s' must be of type %s", name, typ))
}

// FromValidationError lists every failed field with the rule it broke.
func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MalformedBodyError
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[lowerFirst(fe.Field())] = rule
	}
	return &SimpleError{
		Status:  http.StatusUnprocessableEntity,
		Message: "Request validation failed",
		Fields:  fields,
	}
}

// FromStoreError maps the store's error taxonomy onto HTTP responses.
func FromStoreError(err error) ErrorResponse {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError
	case errors.Is(err, store.ErrConstraintViolation):
		return ConstraintViolationError
	case errors.Is(err, store.ErrForeignKeyViolation):
		return ForeignKeyViolationError
	case errors.Is(err, store.ErrInvalidFilter):
		return InvalidFilterError
	case errors.Is(err, store.ErrConnection):
		return StoreUnavailable
	default:
		return InternalServerError
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
