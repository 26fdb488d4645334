package service

import (
	"context"
	"errors"
	"strings"

	"availability/cmd/internal/domain/entity"
	"availability/cmd/internal/domain/store"
	"availability/cmd/internal/domain/store/repository"
	"availability/cmd/internal/events"
	"availability/cmd/internal/utils"
	"availability/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, id string, patch repository.UserPatch) (*entity.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.UserFilter) ([]*entity.User, error)
}

type RegisterUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=320"`
	Password  string `json:"password" validate:"required,min=8,max=72,hasupper,haslower,hasdigit,nospaces"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Role      string `json:"role" validate:"required,userrole"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=320"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72,hasupper,haslower,hasdigit,nospaces"`
	Role     *string `json:"role" validate:"omitempty,userrole"`
}

type UpdateUserProfileRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

type ListUsersQuery struct {
	Role string `query:"role" validate:"omitempty,userrole"`
	PageQuery
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type RegisterUserResponse struct {
	UserID    string `json:"userId"`
	ProfileID string `json:"profileId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Message   string `json:"message"`
}

type UserProfileResponse struct {
	ID        string `json:"id"`
	ProfileID string `json:"profileId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type DefaultUserService struct {
	UserRepo    UserRepository
	ProfileRepo ProfileRepository
	Tx          Transactor
	Validate    *validator.Validate
	Events      EventEmitter
	// HashCost is the bcrypt cost for new password hashes.
	HashCost int
}

func NewUserService(userRepo UserRepository, profileRepo ProfileRepository, tx Transactor, validate *validator.Validate, emitter EventEmitter) *DefaultUserService {
	return &DefaultUserService{
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Tx:          tx,
		Validate:    validate,
		Events:      emitter,
		HashCost:    bcrypt.DefaultCost,
	}
}

// Register creates the user together with its first profile.
func (u *DefaultUserService) Register(ctx context.Context, req *RegisterUserRequest) (*RegisterUserResponse, apierror.ErrorResponse) {
	password := req.Password
	utils.Sanitize(req)
	req.Password = password
	req.Email = strings.ToLower(req.Email)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), u.HashCost)
	if err != nil {
		log.Errorf("failed to hash password for %s: %v", req.Email, err)
		return nil, apierror.InternalServerError
	}

	user := &entity.User{
		Email:          req.Email,
		HashedPassword: string(hash),
		Role:           entity.UserRole(req.Role),
	}
	profile := &entity.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	err = u.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := u.UserRepo.Create(ctx, user); err != nil {
			return err
		}
		profile.UserID = &user.ID
		return u.ProfileRepo.Create(ctx, profile)
	})
	if errors.Is(err, store.ErrConstraintViolation) {
		return nil, apierror.UserAlreadyExistsError
	}
	if err != nil {
		return nil, storeError("failed to register user", err)
	}

	u.Events.Emit(ctx, EntityUser, events.ActionCreated, user.ID, toUserResponse(user))
	u.Events.Emit(ctx, EntityProfile, events.ActionCreated, profile.ID, toProfileResponse(profile))

	return &RegisterUserResponse{
		UserID:    user.ID,
		ProfileID: profile.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		Message:   "User successfully registered.",
	}, nil
}

func (u *DefaultUserService) GetUser(ctx context.Context, id string) (*UserResponse, apierror.ErrorResponse) {
	user, err := u.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find user "+id, err)
	}
	return toUserResponse(user), nil
}

func (u *DefaultUserService) GetUsers(ctx context.Context, query *ListUsersQuery) ([]*UserResponse, apierror.ErrorResponse) {
	if err := u.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	users, err := u.UserRepo.List(ctx, repository.UserFilter{Role: entity.UserRole(query.Role), Page: query.page()})
	if err != nil {
		return nil, storeError("failed to fetch users", err)
	}

	resp := make([]*UserResponse, len(users))
	for i, user := range users {
		resp[i] = toUserResponse(user)
	}
	return resp, nil
}

func (u *DefaultUserService) UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*UserResponse, apierror.ErrorResponse) {
	password := optional(req.Password)
	utils.Sanitize(req)
	req.Password = password
	if req.Email != nil {
		lowered := strings.ToLower(*req.Email)
		req.Email = &lowered
	}
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	patch := repository.UserPatch{Email: req.Email}
	if req.Role != nil {
		role := entity.UserRole(*req.Role)
		patch.Role = &role
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), u.HashCost)
		if err != nil {
			log.Errorf("failed to hash password for user %s: %v", id, err)
			return nil, apierror.InternalServerError
		}
		hashed := string(hash)
		patch.HashedPassword = &hashed
	}

	user, err := u.UserRepo.Update(ctx, id, patch)
	if errors.Is(err, store.ErrConstraintViolation) && req.Email != nil {
		return nil, apierror.UserAlreadyExistsError
	}
	if err != nil {
		return nil, storeError("failed to update user "+id, err)
	}

	resp := toUserResponse(user)
	u.Events.Emit(ctx, EntityUser, events.ActionUpdated, user.ID, resp)
	return resp, nil
}

func (u *DefaultUserService) DeleteUser(ctx context.Context, id string) apierror.ErrorResponse {
	if err := u.UserRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete user "+id, err)
	}
	u.Events.Emit(ctx, EntityUser, events.ActionDeleted, id, nil)
	return nil
}

func (u *DefaultUserService) GetUserProfile(ctx context.Context, userID string) (*UserProfileResponse, apierror.ErrorResponse) {
	user, err := u.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError("failed to find user "+userID, err)
	}

	profile, err := u.ProfileRepo.FindFirstByUserID(ctx, userID)
	if isNotFound(err) {
		return nil, apierror.ProfileNotFoundError
	}
	if err != nil {
		return nil, storeError("failed to find profile of user "+userID, err)
	}
	return toUserProfileResponse(user, profile), nil
}

func (u *DefaultUserService) UpdateUserProfile(ctx context.Context, userID string, req *UpdateUserProfileRequest) (*UserProfileResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var (
		user    *entity.User
		profile *entity.Profile
	)
	err := u.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = u.UserRepo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		current, err := u.ProfileRepo.FindFirstByUserID(ctx, userID)
		if isNotFound(err) {
			return apierror.ProfileNotFoundError
		}
		if err != nil {
			return err
		}
		profile, err = u.ProfileRepo.Update(ctx, current.ID, repository.ProfilePatch{
			FirstName: &req.FirstName,
			LastName:  &req.LastName,
		})
		return err
	})
	if err != nil {
		return nil, asResponse("failed to update profile of user "+userID, err)
	}

	u.Events.Emit(ctx, EntityProfile, events.ActionUpdated, profile.ID, toProfileResponse(profile))
	return toUserProfileResponse(user, profile), nil
}

func toUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: utils.FormatTime(user.CreatedAt),
		UpdatedAt: utils.FormatTime(user.UpdatedAt),
	}
}

func toUserProfileResponse(user *entity.User, profile *entity.Profile) *UserProfileResponse {
	return &UserProfileResponse{
		ID:        user.ID,
		ProfileID: profile.ID,
		Email:     user.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Role:      string(user.Role),
		CreatedAt: utils.FormatTime(user.CreatedAt),
		UpdatedAt: utils.FormatTime(user.UpdatedAt),
	}
}
