package notification

import (
	"context"
	"errors"
	"fmt"

	"sportevents/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// ErrNoToken is returned when the user never registered a device.
var ErrNoToken = errors.New("user has no FCM token")

// NotificationService defines methods for sending FCM pushes.
type NotificationService interface {
	SendUserPushNotification(ctx context.Context, userID, title, body string, data map[string]string) error
}

// Sender delivers one FCM message. *messaging.Client implements it.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// UserLookup resolves the profile holding the FCM token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	users  UserLookup
	sender Sender
	logger *zap.Logger
}

func NewDefaultNotificationService(users UserLookup, sender Sender, logger *zap.Logger) (*DefaultNotificationService, error) {
	if users == nil || sender == nil {
		return nil, fmt.Errorf("notification service initialization error: user lookup or sender is nil")
	}
	return &DefaultNotificationService{users: users, sender: sender, logger: logger}, nil
}

// SendUserPushNotification looks up a user's FCM token and sends a push.
func (s *DefaultNotificationService) SendUserPushNotification(
	ctx context.Context,
	userID, title, body string,
	data map[string]string,
) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("could not find user %s: %w", userID, err)
	}
	if u.FCMToken == "" {
		return fmt.Errorf("user %s: %w", userID, ErrNoToken)
	}

	payload := make(map[string]string, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	if _, ok := payload["role"]; !ok {
		payload["role"] = "user"
	}

	msg := &messaging.Message{
		Token: u.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: payload,
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				ChannelID: "recommendation_channel",
			},
		},
	}

	response, err := s.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	s.logger.Debug("push notification sent", zap.String("userId", userID), zap.String("messageId", response))
	return nil
}
