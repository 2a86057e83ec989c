package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authentiscan/identity-service/internal/core/domain"
	"github.com/authentiscan/identity-service/internal/core/ports"
)

type UserHandler struct {
	service ports.CredentialService
}

func NewUserHandler(service ports.CredentialService) *UserHandler {
	return &UserHandler{service: service}
}

type userData struct {
	Name              string `json:"name"`
	IsAccountVerified bool   `json:"isAccountVerified"`
}

// Data returns the profile of the authenticated account: display name and
// verification status only, never credential material.
func (h *UserHandler) Data(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	user, err := h.service.Profile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusOK, response{Message: "User not found"})
		}
		return err
	}

	return c.JSON(http.StatusOK, response{
		Success: true,
		Data:    userData{Name: user.Name, IsAccountVerified: user.Verified},
	})
}
