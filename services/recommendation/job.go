package recommendation

import (
	"context"
	"errors"
	"fmt"

	"sportevents/models"
	"sportevents/services/connectivity"
	"sportevents/services/notification"
	"sportevents/services/preferences"
	"sportevents/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	recommendationLimit = 4
	titlePrefix         = "Recommended event: "
	fallbackTitle       = "Don't miss it"
	fallbackBody        = "Other players like you enjoyed this event."
)

// ErrOffline makes asynq retry a user task once the store is reachable again.
var ErrOffline = errors.New("event store unreachable, retrying later")

// Recommender returns events in the given sports.
type Recommender interface {
	GetRecommendedEvents(ctx context.Context, sports []string, limit int) ([]models.Event, error)
}

// Enqueuer is the part of *asynq.Client the sweep needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Job pushes one recommended event to every user with a favourite sport.
type Job struct {
	gate     connectivity.Gate
	prefs    preferences.Store
	events   Recommender
	notifier notification.NotificationService
	queue    Enqueuer
	logger   *zap.Logger
}

func NewJob(
	gate connectivity.Gate,
	prefs preferences.Store,
	events Recommender,
	notifier notification.NotificationService,
	queue Enqueuer,
	logger *zap.Logger,
) *Job {
	return &Job{
		gate:     gate,
		prefs:    prefs,
		events:   events,
		notifier: notifier,
		queue:    queue,
		logger:   logger,
	}
}

// HandleSweep enqueues one user task per known user. It is skipped while
// the store is unreachable; the next trigger tries again.
func (j *Job) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	if !j.gate.IsOnline() {
		j.logger.Info("event store unreachable, skipping recommendation sweep")
		return nil
	}

	users, err := j.prefs.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for recommendations: %w", err)
	}

	enqueued := 0
	for _, uid := range users {
		task, opts, err := tasks.NewRecommendationUserTask(uid)
		if err != nil {
			j.logger.Error("failed to build recommendation task", zap.String("userId", uid), zap.Error(err))
			continue
		}
		if _, err := j.queue.EnqueueContext(ctx, task, opts...); err != nil {
			if errors.Is(err, asynq.ErrDuplicateTask) {
				continue
			}
			j.logger.Error("failed to enqueue recommendation task", zap.String("userId", uid), zap.Error(err))
			continue
		}
		enqueued++
	}
	j.logger.Info("recommendation sweep finished", zap.Int("users", len(users)), zap.Int("enqueued", enqueued))
	return nil
}

// HandleUser is the asynq handler for one user's recommendation.
func (j *Job) HandleUser(ctx context.Context, task *asynq.Task) error {
	p, err := tasks.ParseRecommendationPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return j.RecommendForUser(ctx, p.UserID)
}

// RecommendForUser sends the first event of the user's most viewed sport.
// Users without a favourite sport or without a matching event get nothing.
func (j *Job) RecommendForUser(ctx context.Context, uid string) error {
	if !j.gate.IsOnline() {
		return ErrOffline
	}

	sport, ok, err := j.prefs.MostViewedSport(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to read preferences of %s: %w", uid, err)
	}
	if !ok {
		return nil
	}

	events, err := j.events.GetRecommendedEvents(ctx, []string{sport}, recommendationLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch recommendations for %s: %w", uid, err)
	}
	if len(events) == 0 {
		return nil
	}

	event := events[0]
	title, body := Compose(event)
	data := map[string]string{"eventId": event.ID, "sport": sport}
	if err := j.notifier.SendUserPushNotification(ctx, uid, title, body, data); err != nil {
		if errors.Is(err, notification.ErrNoToken) {
			j.logger.Debug("user has no device for recommendations", zap.String("userId", uid))
			return nil
		}
		return fmt.Errorf("failed to notify %s: %w", uid, err)
	}
	return nil
}

// Compose returns the notification title and body for a recommended event.
func Compose(event models.Event) (string, string) {
	name := event.Name
	if name == "" {
		name = fallbackTitle
	}
	body := event.Description
	if body == "" {
		body = fallbackBody
	}
	return titlePrefix + name, body
}
