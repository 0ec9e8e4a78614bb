package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"foodgram/internal/config"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNameInUse           = errors.New("username already in use")
	ErrEmailInUse          = errors.New("email already in use")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const (
	tokenTypeAccess = "access"
	issuer          = "foodgram"
)

// Claims carried by access tokens.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type AuthService interface {
	Register(ctx context.Context, user *models.User, password string) error
	Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error)
	// Refresh rotates the refresh token: the old one stops working.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtSecret        []byte
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
	log              *slog.Logger
	now              func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	cfg *config.Config,
	log *slog.Logger,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtSecret:        []byte(cfg.JWTSecret),
		accessTokenTTL:   cfg.AccessTokenTTL,
		refreshTokenTTL:  cfg.RefreshTokenTTL,
		log:              log,
		now:              time.Now,
	}
}

// Register stores a new user with a hashed password. Email is compared lowercased.
func (s *authService) Register(ctx context.Context, user *models.User, password string) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if _, err := s.userRepo.FindByUsername(ctx, user.Username); err == nil {
		return ErrNameInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if _, err := s.userRepo.FindByEmail(ctx, user.Email); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.ID = uuid.New().String()
	user.Password = hashed
	if user.Role == "" {
		user.Role = "user"
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrNameInUse
		}
		return err
	}
	s.log.Info("user_registered", "user_id", user.ID, "username", user.Username)
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, err
		}
		auth.BurnCompare(password)
		return nil, nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("user_logged_in", "user_id", user.ID)
	return pair, user, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.refreshTokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if s.now().After(stored.ExpiresAt) {
		_ = s.refreshTokenRepo.Delete(ctx, stored.Token)
		return nil, ErrExpiredToken
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	// a concurrent refresh with the same token loses here
	if err := s.refreshTokenRepo.Delete(ctx, stored.Token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		return err
	}
	return nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Type != tokenTypeAccess || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.accessTokenTTL}, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Type:     tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	now := s.now()
	refreshToken := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(s.refreshTokenTTL),
		CreatedAt: now,
	}
	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", err
	}
	return refreshToken.Token, nil
}
