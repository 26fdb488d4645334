package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"availability/cmd/internal/domain/store"

	"github.com/go-playground/validator/v10"
)

func TestFromStoreError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: users/1", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: duplicate email", store.ErrConstraintViolation), http.StatusConflict},
		{fmt.Errorf("%w: schedule_id", store.ErrForeignKeyViolation), http.StatusConflict},
		{fmt.Errorf("%w: bad key", store.ErrInvalidFilter), http.StatusBadRequest},
		{fmt.Errorf("%w: refused", store.ErrConnection), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := FromStoreError(tt.err).Code(); got != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, got)
			}
		})
	}

	if FromStoreError(nil) != nil {
		t.Fatal("nil error must map to a nil response")
	}
}

func TestFromValidationError(t *testing.T) {
	type request struct {
		Email string `validate:"required,email"`
		Age   int    `validate:"min=18"`
	}

	err := validator.New().Struct(request{Email: "nope", Age: 3})
	resp := FromValidationError(err).(*SimpleError)
	if resp.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Status)
	}
	if resp.Fields["email"] != "email" || resp.Fields["age"] != "min=18" {
		t.Fatalf("unexpected fields %v", resp.Fields)
	}

	if FromValidationError(errors.New("not a validation error")) != MalformedBodyError {
		t.Fatal("expected malformed body for foreign errors")
	}
}
