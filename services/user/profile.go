package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	userRepo "sportevents/database/repository/user"
	"sportevents/database/stream"
	"sportevents/models"

	"go.uber.org/zap"
)

const defaultRole = "player"

func (s *DefaultUserService) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	u, err := s.Repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, userRepo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return u, nil
}

func (s *DefaultUserService) EnsureProfile(ctx context.Context, uid, email string) (*models.User, error) {
	u, err := s.GetProfile(ctx, uid)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	now := s.Clock.Now()
	u = &models.User{
		ID:        uid,
		Email:     email,
		Username:  usernameFromEmail(email),
		SportList: []string{},
		Role:      defaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		// A concurrent first request may have created it.
		if existing, getErr := s.GetProfile(ctx, uid); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	s.Logger.Info("profile created", zap.String("userId", uid))
	return u, nil
}

func usernameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

// UpdateProfile applies the non-nil fields of req as one partial update.
func (s *DefaultUserService) UpdateProfile(ctx context.Context, uid string, req models.UserUpdateRequest) (*models.User, error) {
	s.Logger.Debug("UpdateProfile called", zap.String("userId", uid), zap.Any("updateRequest", req))

	fields := map[string]any{
		"updated_at": s.Clock.Now(),
	}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return nil, InvalidFieldError{Field: "username", Reason: "must not be blank"}
		}
		fields["username"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.SportList != nil {
		fields["sport_list"] = normalizeSports(req.SportList)
	}
	if req.ProfileImage != nil {
		fields["profile_image"] = *req.ProfileImage
	}
	if len(fields) == 1 {
		return nil, InvalidFieldError{Field: "body", Reason: "no fields to update"}
	}

	if err := s.Repo.UpdateFields(ctx, uid, fields); err != nil {
		if errors.Is(err, userRepo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetProfile(ctx, uid)
}

// normalizeSports trims entries and drops blanks and duplicates, keeping order.
func normalizeSports(sports []string) []string {
	seen := make(map[string]bool, len(sports))
	out := make([]string, 0, len(sports))
	for _, sport := range sports {
		sport = strings.TrimSpace(sport)
		if sport == "" || seen[sport] {
			continue
		}
		seen[sport] = true
		out = append(out, sport)
	}
	return out
}

func (s *DefaultUserService) UpdateFCMToken(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return InvalidFieldError{Field: "token", Reason: "must not be blank"}
	}
	err := s.Repo.UpdateFields(ctx, uid, map[string]any{
		"fcm_token":  token,
		"updated_at": s.Clock.Now(),
	})
	if err != nil {
		if errors.Is(err, userRepo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to store FCM token: %w", err)
	}
	return nil
}

// WatchProfile streams the profile until the subscription is closed.
func (s *DefaultUserService) WatchProfile(ctx context.Context, uid string) (stream.Subscription[models.User], error) {
	sub, err := s.Repo.Watch(ctx, uid)
	if err != nil {
		if errors.Is(err, userRepo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to watch profile: %w", err)
	}
	return sub, nil
}
