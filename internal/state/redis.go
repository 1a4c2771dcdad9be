package state

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	happinessKey        = "support:happiness"
	staffActivityPrefix = "support:staff-activity:"
)

// redisService shares state across instances through Redis.
type redisService struct {
	client *redis.Client
}

// NewRedisService builds the Redis backing. The happiness gauge is seeded to
// its default only when the key does not exist yet.
func NewRedisService(ctx context.Context, client *redis.Client) (Service, error) {
	if err := client.SetNX(ctx, happinessKey, DefaultHappiness, 0).Err(); err != nil {
		return nil, err
	}
	return &redisService{client: client}, nil
}

func (s *redisService) Happiness(ctx context.Context) (int, error) {
	val, err := s.client.Get(ctx, happinessKey).Int()
	if err == redis.Nil {
		return DefaultHappiness, nil
	}
	return val, err
}

func (s *redisService) AdjustHappiness(ctx context.Context, delta int) (int, error) {
	val, err := s.client.IncrBy(ctx, happinessKey, int64(delta)).Result()
	if err != nil {
		return 0, err
	}
	if val < 0 {
		if err := s.client.Set(ctx, happinessKey, 0, 0).Err(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return int(val), nil
}

func (s *redisService) TouchStaffActivity(ctx context.Context, ticketID string, at time.Time) error {
	return s.client.Set(ctx, staffActivityPrefix+ticketID, at.UnixMilli(), 0).Err()
}

func (s *redisService) StaffActiveWithin(ctx context.Context, ticketID string, window time.Duration) (bool, error) {
	raw, err := s.client.Get(ctx, staffActivityPrefix+ticketID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, nil
	}
	last := time.UnixMilli(millis)
	return time.Since(last) < window, nil
}

func (s *redisService) ClearStaffActivity(ctx context.Context, ticketID string) error {
	return s.client.Del(ctx, staffActivityPrefix+ticketID).Err()
}
