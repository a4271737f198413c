// Package auth issues and resolves bearer tokens backed by Redis.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/facturio/facturio/internal/users"
)

// ErrInvalidToken covers missing, expired and revoked tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

const tokenKeyPrefix = "auth:token:"

// Authenticator verifies credentials. The users service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*users.User, error)
	Get(ctx context.Context, id int64) (*users.User, error)
}

type Service struct {
	users Authenticator
	redis *redis.Client
	ttl   time.Duration
}

func NewService(authenticator Authenticator, redisClient *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	return &Service{users: authenticator, redis: redisClient, ttl: ttl}
}

// Login verifies credentials and mints a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *users.User, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.redis.Set(ctx, tokenKeyPrefix+token, user.ID, s.ttl).Err(); err != nil {
		return "", nil, fmt.Errorf("store token: %w", err)
	}
	return token, user, nil
}

// Resolve returns the user id a token belongs to and slides its expiry.
func (s *Service) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	value, err := s.redis.Get(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, fmt.Errorf("resolve token: %w", err)
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	s.redis.Expire(ctx, tokenKeyPrefix+token, s.ttl)
	return userID, nil
}

// Logout revokes a token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.redis.Del(ctx, tokenKeyPrefix+token).Err()
}

// User loads the account behind an id, for the /auth/me endpoint.
func (s *Service) User(ctx context.Context, id int64) (*users.User, error) {
	return s.users.Get(ctx, id)
}
