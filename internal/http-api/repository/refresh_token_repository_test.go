package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"foodgram/internal/http-api/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

// RefreshTokenTestSuite needs a live Redis. It uses DB 1 so a local
// development instance is left alone.
type RefreshTokenTestSuite struct {
	suite.Suite
	client *redis.Client
	repo   RefreshTokenRepository
	ctx    context.Context
}

func TestRefreshTokenSuite(t *testing.T) {
	suite.Run(t, new(RefreshTokenTestSuite))
}

func (s *RefreshTokenTestSuite) SetupSuite() {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/1"
	}
	s.ctx = context.Background()

	client, err := NewRedisClient(s.ctx, url)
	if err != nil {
		s.T().Skip("Redis not available, skipping refresh token tests")
		return
	}
	s.client = client
	s.repo = NewRefreshTokenRepository(client)
	s.client.FlushDB(s.ctx)
}

func (s *RefreshTokenTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.FlushDB(s.ctx)
		s.client.Close()
	}
}

func (s *RefreshTokenTestSuite) token(ttl time.Duration) *models.RefreshToken {
	return &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func (s *RefreshTokenTestSuite) TestCreateAndFind() {
	tok := s.token(time.Hour)
	s.Require().NoError(s.repo.Create(s.ctx, tok))

	got, err := s.repo.FindByToken(s.ctx, tok.Token)
	s.Require().NoError(err)
	s.Equal(tok.UserID, got.UserID)
	s.True(tok.ExpiresAt.Equal(got.ExpiresAt))

	ttl := s.client.TTL(s.ctx, refreshTokenKey(tok.Token)).Val()
	s.Greater(ttl, 59*time.Minute)
	s.LessOrEqual(ttl, time.Hour)
}

func (s *RefreshTokenTestSuite) TestCreateExpired() {
	s.Error(s.repo.Create(s.ctx, s.token(-time.Minute)))
}

func (s *RefreshTokenTestSuite) TestFindUnknown() {
	_, err := s.repo.FindByToken(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RefreshTokenTestSuite) TestDeleteOnce() {
	tok := s.token(time.Hour)
	s.Require().NoError(s.repo.Create(s.ctx, tok))

	s.NoError(s.repo.Delete(s.ctx, tok.Token))
	s.ErrorIs(s.repo.Delete(s.ctx, tok.Token), ErrNotFound)

	_, err := s.repo.FindByToken(s.ctx, tok.Token)
	s.ErrorIs(err, ErrNotFound)
}
