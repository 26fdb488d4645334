package repository

import (
	"context"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
)

type ProfileFilter struct {
	UserID         string
	ProfessionalID string
	ClientID       string
	Page
}

// ProfilePatch carries the fields to change. For the optional references a
// pointer to "" clears the column.
type ProfilePatch struct {
	FirstName      *string
	LastName       *string
	ProfessionalID *string
	ClientID       *string
	UserID         *string
}

type DefaultProfileRepository struct {
	crud[entity.Profile, *entity.Profile]
}

func NewProfileRepository(db *store.DB) *DefaultProfileRepository {
	return &DefaultProfileRepository{crud[entity.Profile, *entity.Profile]{db: db, sortable: sortKeys(map[string]string{
		"firstName": "first_name",
		"lastName":  "last_name",
	})}}
}

func (p *DefaultProfileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	return p.create(ctx, profile)
}

func (p *DefaultProfileRepository) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	return p.get(ctx, id)
}

// FindFirstByUserID returns the oldest profile linked to the user.
func (p *DefaultProfileRepository) FindFirstByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	var profile entity.Profile
	err := p.db.Conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Order("id asc").
		Take(&profile).Error
	if err != nil {
		return nil, store.Classify(err)
	}
	return &profile, nil
}

func (p *DefaultProfileRepository) Update(ctx context.Context, id string, patch ProfilePatch) (*entity.Profile, error) {
	return p.update(ctx, id, func(profile *entity.Profile) {
		if patch.FirstName != nil {
			profile.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			profile.LastName = *patch.LastName
		}
		if patch.ProfessionalID != nil {
			profile.ProfessionalID = patch.ProfessionalID
		}
		if patch.ClientID != nil {
			profile.ClientID = patch.ClientID
		}
		if patch.UserID != nil {
			profile.UserID = patch.UserID
		}
	})
}

func (p *DefaultProfileRepository) Delete(ctx context.Context, id string) error {
	return p.delete(ctx, id)
}

func (p *DefaultProfileRepository) List(ctx context.Context, filter ProfileFilter) ([]*entity.Profile, error) {
	return p.list(ctx, filter.Page,
		eq("user_id", filter.UserID),
		eq("professional_id", filter.ProfessionalID),
		eq("client_id", filter.ClientID),
	)
}
