package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"CampusPortal/internal/helper"
)

type AuthHandler struct {
	service *UserService
}

func NewAuthHandler(service *UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.service.RegisterUser(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var cred Credential
	if err := helper.BindAndValidate(c, &cred); err != nil {
		return err
	}

	resp, err := h.service.AuthenticateUser(c.Request().Context(), cred)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Profile(c echo.Context) error {
	caller, err := PrincipalFrom(c)
	if err != nil {
		return err
	}

	user, err := h.service.Profile(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
