package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"foodgram/internal/http-api/models"

	"github.com/redis/go-redis/v9"
)

// RefreshTokenRepository handles storage of refresh tokens
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

// refreshTokenRepository keeps one Redis string per token. The key TTL is set
// to the token's remaining lifetime so expired tokens disappear on their own.
type refreshTokenRepository struct {
	client *redis.Client
}

func NewRefreshTokenRepository(client *redis.Client) RefreshTokenRepository {
	return &refreshTokenRepository{client: client}
}

// NewRedisClient parses a redis:// URL and verifies the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func refreshTokenKey(token string) string {
	return "refresh_token:" + token
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("store refresh token: already expired")
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode refresh token: %w", err)
	}
	if err := r.client.Set(ctx, refreshTokenKey(token.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	raw, err := r.client.Get(ctx, refreshTokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	var out models.RefreshToken
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode refresh token: %w", err)
	}
	return &out, nil
}

func (r *refreshTokenRepository) Delete(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, refreshTokenKey(token)).Result()
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
