package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sportevents/models"
	"sportevents/utils"

	"github.com/go-redis/redis/v8"
)

// SnapshotStore keeps the last good event list outside the process.
type SnapshotStore interface {
	SaveEvents(ctx context.Context, events []models.Event) error
	// LoadEvents returns false when no snapshot has been saved yet.
	LoadEvents(ctx context.Context) ([]models.Event, bool, error)
}

// RedisSnapshotStore stores the list as one JSON value without expiry.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, key: utils.SnapshotPrefix + "events"}
}

func (s *RedisSnapshotStore) SaveEvents(ctx context.Context, events []models.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal event snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store event snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) LoadEvents(ctx context.Context) ([]models.Event, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read event snapshot: %w", err)
	}
	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false, fmt.Errorf("failed to parse event snapshot: %w", err)
	}
	return events, true, nil
}
