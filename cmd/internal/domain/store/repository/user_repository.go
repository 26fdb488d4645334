package repository

import (
	"context"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
)

type UserFilter struct {
	Role  entity.UserRole
	Email string
	Page
}

// UserPatch carries the fields to change; nil leaves a field as it is.
type UserPatch struct {
	Email          *string
	HashedPassword *string
	Role           *entity.UserRole
}

type DefaultUserRepository struct {
	crud[entity.User, *entity.User]
}

func NewUserRepository(db *store.DB) *DefaultUserRepository {
	return &DefaultUserRepository{crud[entity.User, *entity.User]{db: db, sortable: sortKeys(map[string]string{
		"email": "email",
		"role":  "role",
	})}}
}

func (u *DefaultUserRepository) Create(ctx context.Context, user *entity.User) error {
	return u.create(ctx, user)
}

func (u *DefaultUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return u.get(ctx, id)
}

func (u *DefaultUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := u.db.Conn(ctx).Where("email = ?", email).Take(&user).Error
	if err != nil {
		return nil, store.Classify(err)
	}
	return &user, nil
}

func (u *DefaultUserRepository) Update(ctx context.Context, id string, patch UserPatch) (*entity.User, error) {
	return u.update(ctx, id, func(user *entity.User) {
		if patch.Email != nil {
			user.Email = *patch.Email
		}
		if patch.HashedPassword != nil {
			user.HashedPassword = *patch.HashedPassword
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
	})
}

func (u *DefaultUserRepository) Delete(ctx context.Context, id string) error {
	return u.delete(ctx, id)
}

func (u *DefaultUserRepository) List(ctx context.Context, filter UserFilter) ([]*entity.User, error) {
	return u.list(ctx, filter.Page,
		eq("role", string(filter.Role)),
		eq("email", filter.Email),
	)
}
