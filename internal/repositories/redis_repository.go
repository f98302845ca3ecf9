package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

const sessionKeyPrefix = "session:"

// RedisSessionRepository keeps sessions in Redis so several API processes
// can share them. Keys expire with the session.
type RedisSessionRepository struct {
	rdb *redis.Client
}

func NewRedisSessionRepository(rdb *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb}
}

func (r *RedisSessionRepository) Store(ctx context.Context, session models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperrors.New(apperrors.Validation, "session already expired")
	}

	if err := r.rdb.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.StoreUnavailable, err, "session store unavailable")
	}
	return nil
}

// Find returns nil, nil for unknown or expired sessions.
func (r *RedisSessionRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	payload, err := r.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.StoreUnavailable, err, "session store unavailable")
	}

	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return apperrors.Wrap(apperrors.StoreUnavailable, err, "session store unavailable")
	}
	return nil
}
