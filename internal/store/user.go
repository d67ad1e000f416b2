package store

import (
	"context"

	"meditrip-api/internal/apperr"
	"meditrip-api/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, role) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role,
	)
	if pe, ok := pgErr(err); ok && pe.Code == codeUniqueViolation {
		// duplicate email; callers decide how much to reveal
		return apperr.Wrap(apperr.Validation, "registration failed", err)
	}
	return err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.user(ctx, `email`, email)
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return s.user(ctx, `id`, id)
}

func (s *Store) user(ctx context.Context, col, val string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, name, role, created_at, updated_at
		 FROM users WHERE `+col+` = $1`, val,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if isNoRows(err) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
