package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeRecommendationSweep = "recommendation:sweep"
	TypeRecommendationUser  = "recommendation:user"
)

// RecommendationPayload names the user a recommendation is computed for.
type RecommendationPayload struct {
	UserID string `json:"userId"`
}

// NewRecommendationSweepTask builds the periodic task that fans out one
// recommendation task per user. Unique keeps a trigger from running twice.
func NewRecommendationSweepTask() (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypeRecommendationSweep, nil)
	opts := []asynq.Option{
		asynq.Unique(23 * time.Hour),
		asynq.MaxRetry(0),
	}
	return task, opts
}

func NewRecommendationUserTask(userID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(RecommendationPayload{UserID: userID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeRecommendationUser, b)
	opts := []asynq.Option{
		asynq.Unique(23 * time.Hour),
		asynq.MaxRetry(3),
		asynq.Timeout(30 * time.Second),
	}
	return task, opts, nil
}

func ParseRecommendationPayload(task *asynq.Task) (RecommendationPayload, error) {
	var p RecommendationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid recommendation payload: %w", err)
	}
	if p.UserID == "" {
		return p, fmt.Errorf("invalid recommendation payload: missing userId")
	}
	return p, nil
}
