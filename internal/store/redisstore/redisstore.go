package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetTokenTTL = 15 * time.Minute

var ErrTokenNotFound = errors.New("reset token not found")

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// SetResetToken maps token -> user id for the reset window.
func (s *Store) SetResetToken(ctx context.Context, token, userID string) error {
	return s.rdb.Set(ctx, "pwreset:"+token, userID, resetTokenTTL).Err()
}

// ConsumeResetToken returns the user id for token and deletes it, so a token
// can only be used once.
func (s *Store) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	key := "pwreset:" + token
	uid, err := s.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
