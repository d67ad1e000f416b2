// Package handler is the HTTP face of the scheduling core: it authenticates,
// parses, delegates, and translates typed errors to status codes. Business
// rules live below it.
package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"meditrip-api/internal/model"
	"meditrip-api/internal/payment"
	"meditrip-api/internal/scheduling"
	"meditrip-api/internal/store"
)

// UserStore is the identity slice of the store the auth endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	RefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type Handler struct {
	engine *scheduling.Engine
	linker *payment.Linker
	users  UserStore
	secret string
	log    zerolog.Logger
}

func New(engine *scheduling.Engine, linker *payment.Linker, users UserStore, secret string, log zerolog.Logger) *Handler {
	return &Handler{engine: engine, linker: linker, users: users, secret: secret, log: log}
}
