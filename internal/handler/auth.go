package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/minjae/membership/internal/domain"
	"github.com/minjae/membership/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler handles federated login and token endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Redirect sends the user to the provider's consent page.
func (h *AuthHandler) Redirect(c echo.Context) error {
	registrationID := c.Param("provider")

	state := uuid.NewString()
	authURL, err := h.auth.AuthCodeURL(registrationID, state)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback completes the OAuth handshake and returns the member and a session
// token pair.
func (h *AuthHandler) Callback(c echo.Context) error {
	if err := validateState(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	code := c.QueryParam("code")
	if code == "" {
		return fmt.Errorf("%w: missing code parameter", domain.ErrInvalidInput)
	}

	principal, tokens, err := h.auth.Callback(c.Request().Context(), c.Param("provider"), code)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, map[string]any{
		"member": principal.Member(),
		"tokens": tokens,
	})
}

// Refresh generates a new token pair from a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	tokens, err := h.auth.RefreshAccessToken(body.RefreshToken)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, tokens)
}

func validateState(c echo.Context) error {
	cookie, err := c.Cookie(stateCookieName)
	if err != nil {
		return fmt.Errorf("missing %s cookie", stateCookieName)
	}

	queryState := c.QueryParam("state")
	if queryState == "" || queryState != cookie.Value {
		return fmt.Errorf("state mismatch")
	}
	return nil
}
