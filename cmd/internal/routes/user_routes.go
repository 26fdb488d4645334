package routes

import (
	"context"
	"net/http"

	"availability/cmd/internal/service"
	"availability/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type UserService interface {
	Register(ctx context.Context, req *service.RegisterUserRequest) (*service.RegisterUserResponse, apierror.ErrorResponse)
	GetUser(ctx context.Context, id string) (*service.UserResponse, apierror.ErrorResponse)
	GetUsers(ctx context.Context, query *service.ListUsersQuery) ([]*service.UserResponse, apierror.ErrorResponse)
	UpdateUser(ctx context.Context, id string, req *service.UpdateUserRequest) (*service.UserResponse, apierror.ErrorResponse)
	DeleteUser(ctx context.Context, id string) apierror.ErrorResponse
	GetUserProfile(ctx context.Context, userID string) (*service.UserProfileResponse, apierror.ErrorResponse)
	UpdateUserProfile(ctx context.Context, userID string, req *service.UpdateUserProfileRequest) (*service.UserProfileResponse, apierror.ErrorResponse)
}

type DefaultUserRoute struct {
	UserService UserService
}

func NewUserDefault(userService UserService) *DefaultUserRoute {
	return &DefaultUserRoute{UserService: userService}
}

func (u *DefaultUserRoute) GetUsers(c echo.Context) error {
	var query service.ListUsersQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.InvalidFilterError)
	}

	users, apierr := u.UserService.GetUsers(c.Request().Context(), &query)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"users": users}
	return c.JSON(http.StatusOK, &resp)
}

func (u *DefaultUserRoute) GetUser(c echo.Context) error {
	user, apierr := u.UserService.GetUser(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, user)
}

func (u *DefaultUserRoute) CreateUser(c echo.Context) error {
	var req service.RegisterUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	created, apierr := u.UserService.Register(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, created)
}

func (u *DefaultUserRoute) UpdateUser(c echo.Context) error {
	var req service.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	user, apierr := u.UserService.UpdateUser(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, user)
}

func (u *DefaultUserRoute) DeleteUser(c echo.Context) error {
	if apierr := u.UserService.DeleteUser(c.Request().Context(), c.Param("id")); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (u *DefaultUserRoute) GetUserProfile(c echo.Context) error {
	profile, apierr := u.UserService.GetUserProfile(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, profile)
}

func (u *DefaultUserRoute) UpdateUserProfile(c echo.Context) error {
	var req service.UpdateUserProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	profile, apierr := u.UserService.UpdateUserProfile(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, profile)
}
