package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minjae/membership/internal/domain"
	"github.com/minjae/membership/internal/service"
)

// MemberHandler handles local registration and profile endpoints.
type MemberHandler struct {
	members *service.MemberService
	auth    *service.AuthService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(members *service.MemberService, auth *service.AuthService) *MemberHandler {
	return &MemberHandler{members: members, auth: auth}
}

// JoinRequest is the local registration form.
type JoinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

// Join registers a new local member.
func (h *MemberHandler) Join(c echo.Context) error {
	var req JoinRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	member, err := h.members.Join(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusCreated, member)
}

// LoginRequest is the local login form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a local member and returns a session token pair.
func (h *MemberHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	member, err := h.members.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	tokens, err := h.auth.GenerateTokenPair(member.ID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, map[string]any{
		"member": member,
		"tokens": tokens,
	})
}

// Me returns the currently authenticated member's profile.
func (h *MemberHandler) Me(c echo.Context) error {
	memberID, ok := GetMemberID(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	member, err := h.members.Get(c.Request().Context(), memberID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, member)
}

// ModifyRequest is the profile-modify form. Username is the only editable
// field.
type ModifyRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
}

// Modify updates the authenticated member's display name.
func (h *MemberHandler) Modify(c echo.Context) error {
	memberID, ok := GetMemberID(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req ModifyRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	member, err := h.members.Modify(c.Request().Context(), memberID, req.Username)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, member)
}
