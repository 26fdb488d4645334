package store

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrConnection          = errors.New("storage engine unreachable")
	ErrInvalidFilter       = errors.New("invalid filter")
)

// Classify maps driver and gorm errors onto the store's sentinels. The
// original error stays in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrConstraintViolation, ErrForeignKeyViolation, ErrConnection, ErrInvalidFilter} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505", pgErr.Code == "23514", pgErr.Code == "23502":
			return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
		case pgErr.Code == "23503":
			return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
		case strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return err
	}

	if code, ok := sqliteCode(err); ok {
		switch code.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey,
			sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
		case sqlite3.ErrConstraintTrigger:
			// ON DELETE RESTRICT fires as a trigger constraint.
			if strings.Contains(err.Error(), "FOREIGN KEY") {
				return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
			}
		}
		switch code.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrIoErr:
			return fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr), errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return err
}

func sqliteCode(err error) (sqlite3.Error, bool) {
	var value sqlite3.Error
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *sqlite3.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return sqlite3.Error{}, false
}
