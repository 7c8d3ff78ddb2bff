package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quizboard-service/internal/domain"
)

// TokenStore keeps bearer tokens in Redis:
//
//	auth:token:{token} -> user id
//	auth:user:{userID} -> token
//
// A zero ttl keeps tokens until logout.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue returns the user's live token or stores the given one. SETNX on the
// user key keeps a single token per user when logins race.
func (s *TokenStore) Issue(ctx context.Context, userID int64, token string) (string, error) {
	userKey := s.userKey(userID)
	ok, err := s.client.SetNX(ctx, userKey, token, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	if !ok {
		existing, err := s.client.Get(ctx, userKey).Result()
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("load token: %w", err)
		}
		// expired between SETNX and GET
		if err := s.client.Set(ctx, userKey, token, s.ttl).Err(); err != nil {
			return "", fmt.Errorf("store token: %w", err)
		}
	}
	if err := s.client.Set(ctx, s.tokenKey(token), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

func (s *TokenStore) Lookup(ctx context.Context, token string) (int64, error) {
	raw, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrUnauthenticated
	}
	if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthenticated
	}
	return userID, nil
}

func (s *TokenStore) Revoke(ctx context.Context, userID int64) error {
	userKey := s.userKey(userID)
	token, err := s.client.Get(ctx, userKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, userKey)
	pipe.Del(ctx, s.tokenKey(token))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *TokenStore) tokenKey(token string) string {
	return "auth:token:" + token
}

func (s *TokenStore) userKey(userID int64) string {
	return "auth:user:" + strconv.FormatInt(userID, 10)
}
