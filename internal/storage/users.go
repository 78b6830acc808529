//go:generate mockgen -source ./users.go -destination=./mocks/users.go -package=mock_storage
package storage

import "context"

// UserRepository resolves caller credentials to an opaque user id.
type UserRepository interface {
	CreateUser(ctx context.Context, username, password, userID string) error
	ResolveIdentity(ctx context.Context, username, password string) (string, error)
}
