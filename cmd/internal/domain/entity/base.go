package entity

import "time"

// Base holds the columns every table shares. The store assigns all three
// on insert; only UpdatedAt changes afterwards.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (b *Base) Meta() *Base {
	return b
}

// Record is implemented by every persisted entity.
type Record interface {
	Meta() *Base
	Normalize()
	Validate() error
}

// Instant converts t to the representation every timestamp column uses:
// UTC with microsecond precision.
func Instant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
