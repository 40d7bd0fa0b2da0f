package user

import (
	"context"
	"image"
	"io"

	userRepo "sportevents/database/repository/user"
	"sportevents/database/stream"
	"sportevents/models"
	"sportevents/services/storage"
	"sportevents/utils/clock"

	"go.uber.org/zap"
)

// UserService manages player profiles and their images.
type UserService interface {
	GetProfile(ctx context.Context, uid string) (*models.User, error)
	// EnsureProfile returns the profile of uid, creating an empty one on first sign-in.
	EnsureProfile(ctx context.Context, uid, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, uid string, req models.UserUpdateRequest) (*models.User, error)
	UpdateFCMToken(ctx context.Context, uid, token string) error
	WatchProfile(ctx context.Context, uid string) (stream.Subscription[models.User], error)

	UploadProfileImage(ctx context.Context, uid string, r io.Reader) error
	LoadProfileImage(uid string, maxWidth, maxHeight int) (image.Image, error)
}

// DefaultUserService is the production implementation. Mirror may be nil.
type DefaultUserService struct {
	Repo   userRepo.UserRepository
	Images storage.ImageCache
	Mirror storage.StorageService
	Clock  clock.Clock
	Logger *zap.Logger
}

func NewUserService(repo userRepo.UserRepository, images storage.ImageCache, mirror storage.StorageService, logger *zap.Logger) *DefaultUserService {
	return &DefaultUserService{
		Repo:   repo,
		Images: images,
		Mirror: mirror,
		Clock:  clock.NewSystem(),
		Logger: logger,
	}
}
