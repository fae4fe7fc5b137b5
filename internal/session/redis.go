package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	userKeyPrefix    = "user-sessions:"
	opTimeout        = 3 * time.Second
)

// Redis keeps sessions in Redis with TTL, plus a per-user set so that
// logout can revoke all of a user's sessions.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (r *Redis) Add(jti, userID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, sessionKeyPrefix+jti, userID, ttl).Err(); err != nil {
		return err
	}
	if err := r.client.SAdd(ctx, userKeyPrefix+userID, jti).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, userKeyPrefix+userID, ttl).Err()
}

func (r *Redis) Alive(jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.client.Get(ctx, sessionKeyPrefix+jti).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) Revoke(jti string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	userID, err := r.client.Get(ctx, sessionKeyPrefix+jti).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.client.Del(ctx, sessionKeyPrefix+jti).Err(); err != nil {
		return err
	}
	return r.client.SRem(ctx, userKeyPrefix+userID, jti).Err()
}

func (r *Redis) RevokeUser(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	jtis, err := r.client.SMembers(ctx, userKeyPrefix+userID).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, jti := range jtis {
		if err := r.client.Del(ctx, sessionKeyPrefix+jti).Err(); err != nil {
			return err
		}
	}
	if err := r.client.Del(ctx, userKeyPrefix+userID).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
