package user

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"go.uber.org/zap"
)

const (
	maxImageBytes = 5 << 20
	imageFolder   = "profile_images"
)

// UploadProfileImage stores the image locally and mirrors it to remote
// storage when one is configured. A failed mirror is logged only.
func (s *DefaultUserService) UploadProfileImage(ctx context.Context, uid string, r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxImageBytes {
		return ErrImageTooLarge
	}

	if err := s.Images.SaveEncoded(uid, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to store profile image: %w", err)
	}

	if s.Mirror == nil {
		return nil
	}
	publicID, err := s.Mirror.UploadFile(ctx, bytes.NewReader(data), imageFolder, uid)
	if err != nil {
		s.Logger.Warn("profile image mirror failed", zap.String("userId", uid), zap.Error(err))
		return nil
	}
	if err := s.Repo.UpdateFields(ctx, uid, map[string]any{
		"profile_image": publicID,
		"updated_at":    s.Clock.Now(),
	}); err != nil {
		s.Logger.Warn("failed to record mirrored profile image", zap.String("userId", uid), zap.Error(err))
	}
	return nil
}

func (s *DefaultUserService) LoadProfileImage(uid string, maxWidth, maxHeight int) (image.Image, error) {
	return s.Images.Load(uid, maxWidth, maxHeight)
}
