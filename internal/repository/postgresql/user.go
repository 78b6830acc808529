package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type UserRepo struct {
	db db.DB
}

func NewUserRepo(db db.DB) storage.UserRepository {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, username, password, userID string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
        INSERT INTO users (username, password, user_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (username) DO NOTHING
    `, username, string(hashedPassword), userID)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return nil
}

// ResolveIdentity maps basic-auth credentials to the caller's opaque user id.
func (r *UserRepo) ResolveIdentity(ctx context.Context, username, password string) (string, error) {
	var hashedPassword, userID string
	err := r.db.ExecQueryRow(ctx,
		`SELECT password, user_id FROM users WHERE username = $1`, username).Scan(&hashedPassword, &userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrObjectNotFound
		}
		return "", fmt.Errorf("failed to look up user %s: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return "", repository.ErrObjectNotFound
	}
	return userID, nil
}
