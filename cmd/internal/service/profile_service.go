package service

import (
	"context"
	"errors"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/utils"
	"availability/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
)

var ProfilePairTakenError = apierror.NewSimple(409, "A profile already links this professional and client")

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	FindByID(ctx context.Context, id string) (*entity.Profile, error)
	FindFirstByUserID(ctx context.Context, userID string) (*entity.Profile, error)
	Update(ctx context.Context, id string, patch repository.ProfilePatch) (*entity.Profile, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.ProfileFilter) ([]*entity.Profile, error)
}

type CreateProfileRequest struct {
	FirstName      string  `json:"firstName" validate:"required,max=100"`
	LastName       string  `json:"lastName" validate:"required,max=100"`
	ProfessionalID *string `json:"professionalId" validate:"omitempty,max=64"`
	ClientID       *string `json:"clientId" validate:"omitempty,max=64"`
	UserID         *string `json:"userId" validate:"omitempty,max=36"`
}

// UpdateProfileRequest changes the non-nil fields; an empty string clears
// one of the optional references.
type UpdateProfileRequest struct {
	FirstName      *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName       *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	ProfessionalID *string `json:"professionalId" validate:"omitempty,max=64"`
	ClientID       *string `json:"clientId" validate:"omitempty,max=64"`
	UserID         *string `json:"userId" validate:"omitempty,max=36"`
}

type ListProfilesQuery struct {
	UserID         string `query:"userId"`
	ProfessionalID string `query:"professionalId"`
	ClientID       string `query:"clientId"`
	PageQuery
}

type ProfileResponse struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	ProfessionalID *string `json:"professionalId"`
	ClientID       *string `json:"clientId"`
	UserID         *string `json:"userId"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

type DefaultProfileService struct {
	ProfileRepo ProfileRepository
	Validate    *validator.Validate
	Events      EventEmitter
}

func NewProfileService(profileRepo ProfileRepository, validate *validator.Validate, emitter EventEmitter) *DefaultProfileService {
	return &DefaultProfileService{ProfileRepo: profileRepo, Validate: validate, Events: emitter}
}

func (p *DefaultProfileService) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*ProfileResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := p.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	profile := &entity.Profile{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		UserID:         req.UserID,
	}
	if apierr := profileWriteError(p.ProfileRepo.Create(ctx, profile)); apierr != nil {
		return nil, apierr
	}

	resp := toProfileResponse(profile)
	p.Events.Emit(ctx, EntityProfile, events.ActionCreated, profile.ID, resp)
	return resp, nil
}

func (p *DefaultProfileService) GetProfile(ctx context.Context, id string) (*ProfileResponse, apierror.ErrorResponse) {
	profile, err := p.ProfileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find profile "+id, err)
	}
	return toProfileResponse(profile), nil
}

func (p *DefaultProfileService) GetProfiles(ctx context.Context, query *ListProfilesQuery) ([]*ProfileResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := p.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	profiles, err := p.ProfileRepo.List(ctx, repository.ProfileFilter{
		UserID:         query.UserID,
		ProfessionalID: query.ProfessionalID,
		ClientID:       query.ClientID,
		Page:           query.page(),
	})
	if err != nil {
		return nil, storeError("failed to fetch profiles", err)
	}

	resp := make([]*ProfileResponse, len(profiles))
	for i, profile := range profiles {
		resp[i] = toProfileResponse(profile)
	}
	return resp, nil
}

func (p *DefaultProfileService) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*ProfileResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := p.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	profile, err := p.ProfileRepo.Update(ctx, id, repository.ProfilePatch{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		UserID:         req.UserID,
	})
	if apierr := profileWriteError(err); apierr != nil {
		return nil, apierr
	}

	resp := toProfileResponse(profile)
	p.Events.Emit(ctx, EntityProfile, events.ActionUpdated, profile.ID, resp)
	return resp, nil
}

func (p *DefaultProfileService) DeleteProfile(ctx context.Context, id string) apierror.ErrorResponse {
	if err := p.ProfileRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete profile "+id, err)
	}
	p.Events.Emit(ctx, EntityProfile, events.ActionDeleted, id, nil)
	return nil
}

func profileWriteError(err error) apierror.ErrorResponse {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrConstraintViolation) {
		return ProfilePairTakenError
	}
	return storeError("failed to save profile", err)
}

func toProfileResponse(profile *entity.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:             profile.ID,
		FirstName:      profile.FirstName,
		LastName:       profile.LastName,
		ProfessionalID: profile.ProfessionalID,
		ClientID:       profile.ClientID,
		UserID:         profile.UserID,
		CreatedAt:      utils.FormatTime(profile.CreatedAt),
		UpdatedAt:      utils.FormatTime(profile.UpdatedAt),
	}
}
