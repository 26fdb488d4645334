package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"availability/cmd/internal/domain/store"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/utils"
	"availability/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

// Entity names used in change events.
const (
	EntityUser                = "user"
	EntityProfile             = "profile"
	EntitySchedule            = "schedule"
	EntityAppointment         = "appointment"
	EntityNotification        = "notification"
	EntityExternalIntegration = "external_integration"
	EntityIntegration         = "integration"
	EntityAnalytics           = "analytics"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventEmitter interface {
	Emit(ctx context.Context, entity string, action events.Action, id string, data any)
}

type PageQuery struct {
	Limit   int    `query:"limit" validate:"min=0,max=500"`
	Offset  int    `query:"offset" validate:"min=0"`
	OrderBy string `query:"orderBy" validate:"omitempty,max=32"`
}

func (p PageQuery) page() repository.Page {
	return repository.Page{Limit: p.Limit, Offset: p.Offset, OrderBy: p.OrderBy}
}

// storeError converts a store failure into the response for the caller and
// logs the ones the caller cannot act upon.
func storeError(op string, err error) apierror.ErrorResponse {
	apierr := apierror.FromStoreError(err)
	if apierr.Code() >= 500 {
		log.Errorf("%s: %v", op, err)
	}
	return apierr
}

// asResponse unwraps an apierror smuggled through a transaction callback.
func asResponse(op string, err error) apierror.ErrorResponse {
	var apierr apierror.ErrorResponse
	if errors.As(err, &apierr) {
		return apierr
	}
	return storeError(op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func parseWindow(from, to string) (start, end time.Time, apierr apierror.ErrorResponse) {
	start, err := utils.ParseOptionalTime(from)
	if err != nil {
		return start, end, apierror.NewInvalidParamTypeError("from", "RFC 3339 timestamp")
	}
	end, err = utils.ParseOptionalTime(to)
	if err != nil {
		return start, end, apierror.NewInvalidParamTypeError("to", "RFC 3339 timestamp")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return start, end, apierror.InvalidIntervalError
	}
	return start, end, nil
}

func rawJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return json.RawMessage(raw)
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
