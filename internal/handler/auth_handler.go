package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"meditrip-api/internal/auth"
	"meditrip-api/internal/middleware"
	"meditrip-api/internal/model"
)

const refreshTokenTTL = 30 * 24 * time.Hour

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and name are required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}
	role := model.Role(req.Role)
	if req.Role == "" {
		role = model.RolePatient
	}
	// admin accounts are provisioned out of band, never self-registered
	if role != model.RolePatient && role != model.RoleDoctor {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be patient or doctor")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return writeErr(c, err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
	}
	if err := h.users.CreateUser(c.Request().Context(), u); err != nil {
		// unique violation = dup email, but don't reveal that
		return writeErr(c, err)
	}

	return h.issueTokens(c, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	u, err := h.users.UserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	return h.issueTokens(c, http.StatusOK, u)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the refresh token and issues a fresh access token. A
// replayed (already-rotated) token revokes the whole family.
func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}
	ctx := c.Request().Context()

	rt, err := h.users.RefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if rt.Revoked {
		// replay after rotation: treat the family as stolen
		_ = h.users.RevokeAllRefreshTokens(ctx, rt.UserID)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if time.Now().After(rt.ExpiresAt) {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token expired")
	}

	u, err := h.users.UserByID(ctx, rt.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return writeErr(c, err)
	}
	newID := uuid.New().String()
	if err := h.users.RotateRefreshToken(ctx, rt.ID, newID, rt.UserID, hash, time.Now().Add(refreshTokenTTL)); err != nil {
		return writeErr(c, err)
	}

	tok, err := auth.MakeToken(u.ID, u.Role, h.secret)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse{
		UserID: u.ID, Role: string(u.Role), Token: tok, RefreshToken: raw,
	})
}

// Logout revokes every refresh token for the authenticated user.
func (h *Handler) Logout(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	if err := h.users.RevokeAllRefreshTokens(c.Request().Context(), id.UserID); err != nil {
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) issueTokens(c echo.Context, status int, u *model.User) error {
	tok, err := auth.MakeToken(u.ID, u.Role, h.secret)
	if err != nil {
		return writeErr(c, err)
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return writeErr(c, err)
	}
	if _, err := h.users.CreateRefreshToken(c.Request().Context(), u.ID, hash, time.Now().Add(refreshTokenTTL)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(status, tokenResponse{
		UserID: u.ID, Name: u.Name, Role: string(u.Role), Token: tok, RefreshToken: raw,
	})
}
