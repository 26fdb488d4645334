package routes

import (
	"context"
	"net/http"

	"availability/cmd/internal/service"
	"availability/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type ProfileService interface {
	CreateProfile(ctx context.Context, req *service.CreateProfileRequest) (*service.ProfileResponse, apierror.ErrorResponse)
	GetProfile(ctx context.Context, id string) (*service.ProfileResponse, apierror.ErrorResponse)
	GetProfiles(ctx context.Context, query *service.ListProfilesQuery) ([]*service.ProfileResponse, apierror.ErrorResponse)
	UpdateProfile(ctx context.Context, id string, req *service.UpdateProfileRequest) (*service.ProfileResponse, apierror.ErrorResponse)
	DeleteProfile(ctx context.Context, id string) apierror.ErrorResponse
}

type DefaultProfileRoute struct {
	ProfileService ProfileService
}

func NewProfileDefault(profileService ProfileService) *DefaultProfileRoute {
	return &DefaultProfileRoute{ProfileService: profileService}
}

func (p *DefaultProfileRoute) GetProfiles(c echo.Context) error {
	var query service.ListProfilesQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.InvalidFilterError)
	}

	profiles, apierr := p.ProfileService.GetProfiles(c.Request().Context(), &query)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"profiles": profiles}
	return c.JSON(http.StatusOK, &resp)
}

func (p *DefaultProfileRoute) GetProfile(c echo.Context) error {
	profile, apierr := p.ProfileService.GetProfile(c.Request().Context(), c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, profile)
}

func (p *DefaultProfileRoute) CreateProfile(c echo.Context) error {
	var req service.CreateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	profile, apierr := p.ProfileService.CreateProfile(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, profile)
}

func (p *DefaultProfileRoute) UpdateProfile(c echo.Context) error {
	var req service.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	profile, apierr := p.ProfileService.UpdateProfile(c.Request().Context(), c.Param("id"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, profile)
}

func (p *DefaultProfileRoute) DeleteProfile(c echo.Context) error {
	if apierr := p.ProfileService.DeleteProfile(c.Request().Context(), c.Param("id")); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
