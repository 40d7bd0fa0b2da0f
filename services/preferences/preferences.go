package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sportevents/utils"

	"github.com/go-redis/redis/v8"
)

// Store tracks how often each user opens events of each sport.
type Store interface {
	// IncrementSportView counts one view and returns the user's most viewed sport.
	IncrementSportView(ctx context.Context, uid, sport string) (string, error)
	MostViewedSport(ctx context.Context, uid string) (string, bool, error)
	// Users lists every user that has a most viewed sport.
	Users(ctx context.Context) ([]string, error)
}

// RedisStore keeps per-user counters in a hash and the derived favourite in a plain key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IncrementSportView(ctx context.Context, uid, sport string) (string, error) {
	sport = strings.TrimSpace(sport)
	if uid == "" || sport == "" {
		return "", fmt.Errorf("user id and sport are required")
	}

	countsKey := utils.SportViewsPrefix + uid
	if err := s.client.HIncrBy(ctx, countsKey, sport, 1).Err(); err != nil {
		return "", fmt.Errorf("failed to count sport view: %w", err)
	}

	raw, err := s.client.HGetAll(ctx, countsKey).Result()
	if err != nil {
		return "", fmt.Errorf("failed to read sport views: %w", err)
	}
	counts := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[k] = n
	}

	favourite, ok := MostViewed(counts)
	if !ok {
		return "", nil
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, utils.MostViewedPrefix+uid, favourite, 0)
		pipe.SAdd(ctx, utils.PreferenceUserSet, uid)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store most viewed sport: %w", err)
	}
	return favourite, nil
}

func (s *RedisStore) MostViewedSport(ctx context.Context, uid string) (string, bool, error) {
	sport, err := s.client.Get(ctx, utils.MostViewedPrefix+uid).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read most viewed sport: %w", err)
	}
	return sport, true, nil
}

func (s *RedisStore) Users(ctx context.Context) ([]string, error) {
	users, err := s.client.SMembers(ctx, utils.PreferenceUserSet).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list preference users: %w", err)
	}
	return users, nil
}

// MostViewed returns the sport with the highest count. Ties go to the
// alphabetically first sport.
func MostViewed(counts map[string]int64) (string, bool) {
	best := ""
	var bestCount int64 = -1
	for sport, n := range counts {
		if n > bestCount || (n == bestCount && sport < best) {
			best, bestCount = sport, n
		}
	}
	return best, bestCount >= 0
}
