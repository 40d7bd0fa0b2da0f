package userRepo

import (
	"context"
	"errors"

	"sportevents/database/stream"
	"sportevents/models"
)

// UsersCollection holds player profiles keyed by auth uid.
const UsersCollection = "users"

// ErrNotFound is returned when no profile exists for a uid.
var ErrNotFound = errors.New("user not found")

// UserRepository defines methods for user data access.
type UserRepository interface {
	// GetByID retrieves a user by its uid or returns ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Create inserts a new profile. It fails if the uid already exists.
	Create(ctx context.Context, user *models.User) error
	// UpdateFields sets the given stored fields on a profile or returns ErrNotFound.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	// Watch streams the profile, starting with its current state, until closed or failed.
	Watch(ctx context.Context, id string) (stream.Subscription[models.User], error)
}
