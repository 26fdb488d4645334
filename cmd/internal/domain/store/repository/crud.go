package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Page restricts and orders a list query. OrderBy takes a sort key known to
// the repository, prefixed with "-" for descending order.
type Page struct {
	Limit   int
	Offset  int
	OrderBy string
}

type recordPtr[T any] interface {
	*T
	entity.Record
}

// crud implements the operations shared by every entity table.
type crud[T any, P recordPtr[T]] struct {
	db *store.DB
	// sortable maps public sort keys to column names.
	sortable map[string]string
}

func (c crud[T, P]) create(ctx context.Context, rec P) error {
	now := c.db.Now()
	base := rec.Meta()
	base.ID = uuid.NewString()
	base.CreatedAt = now
	base.UpdatedAt = now

	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrConstraintViolation, err)
	}

	err := c.db.Conn(ctx).Omit(clause.Associations).Create(rec).Error
	return store.Classify(err)
}

func (c crud[T, P]) get(ctx context.Context, id string) (P, error) {
	rec := P(new(T))
	err := c.db.Conn(ctx).Where("id = ?", id).Take(rec).Error
	if err != nil {
		return nil, store.Classify(err)
	}
	return rec, nil
}

// update loads the record, lets apply change it and writes every column
// back except id and created_at, stamping a later updated_at.
func (c crud[T, P]) update(ctx context.Context, id string, apply func(P)) (P, error) {
	var out P
	err := c.db.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := c.get(ctx, id)
		if err != nil {
			return err
		}

		base := *rec.Meta()
		apply(rec)
		meta := rec.Meta()
		meta.ID = base.ID
		meta.CreatedAt = base.CreatedAt
		meta.UpdatedAt = c.db.NextStamp(base.UpdatedAt)

		rec.Normalize()
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%w: %w", store.ErrConstraintViolation, err)
		}

		res := c.db.Conn(ctx).Model(rec).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(rec)
		if res.Error != nil {
			return store.Classify(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		out = rec
		return nil
	})
	return out, err
}

func (c crud[T, P]) delete(ctx context.Context, id string) error {
	res := c.db.Conn(ctx).Where("id = ?", id).Delete(P(new(T)))
	if res.Error != nil {
		return store.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

func (c crud[T, P]) list(ctx context.Context, page Page, scopes ...func(*gorm.DB) *gorm.DB) ([]P, error) {
	q := c.db.Conn(ctx).Model(P(new(T))).Scopes(scopes...)

	q, err := c.paginate(q, page)
	if err != nil {
		return nil, err
	}

	var out []P
	if err := q.Find(&out).Error; err != nil {
		return nil, store.Classify(err)
	}
	return out, nil
}

func (c crud[T, P]) paginate(q *gorm.DB, page Page) (*gorm.DB, error) {
	if page.OrderBy != "" {
		key := strings.TrimPrefix(page.OrderBy, "-")
		column, ok := c.sortable[key]
		if !ok {
			return nil, fmt.Errorf("%w: cannot order by %q", store.ErrInvalidFilter, page.OrderBy)
		}
		q = q.Order(clause.OrderByColumn{
			Column: clause.Column{Name: column},
			Desc:   strings.HasPrefix(page.OrderBy, "-"),
		})
	}
	if page.Limit < 0 || page.Offset < 0 {
		return nil, fmt.Errorf("%w: negative limit or offset", store.ErrInvalidFilter)
	}
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	return q, nil
}

func eq(column string, value string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if value == "" {
			return q
		}
		return q.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}
}

// overlapping keeps rows whose [startCol, endCol) interval intersects
// [from, to). A zero bound is open.
func overlapping(startCol, endCol string, from, to time.Time) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if !from.IsZero() {
			q = q.Where(clause.Gt{Column: clause.Column{Name: endCol}, Value: entity.Instant(from)})
		}
		if !to.IsZero() {
			q = q.Where(clause.Lt{Column: clause.Column{Name: startCol}, Value: entity.Instant(to)})
		}
		return q
	}
}

// within keeps rows whose column lies in [from, to).
func within(column string, from, to time.Time) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if !from.IsZero() {
			q = q.Where(clause.Gte{Column: clause.Column{Name: column}, Value: entity.Instant(from)})
		}
		if !to.IsZero() {
			q = q.Where(clause.Lt{Column: clause.Column{Name: column}, Value: entity.Instant(to)})
		}
		return q
	}
}

var baseSort = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func sortKeys(extra map[string]string) map[string]string {
	out := make(map[string]string, len(baseSort)+len(extra))
	for k, v := range baseSort {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
