package service

import (
	"context"
	"errors"
	"log/slog"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/middleware/auth"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSelfSubscription  = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed = errors.New("already subscribed to this user")
	ErrNotSubscribed     = errors.New("not subscribed to this user")
	ErrWrongPassword     = errors.New("current password is incorrect")
)

// UserProfile is a user as seen by a (possibly anonymous) viewer.
type UserProfile struct {
	User         *models.User
	IsSubscribed bool
}

// AuthorSummary is one followed author with a preview of their recipes.
type AuthorSummary struct {
	Author       models.User
	IsSubscribed bool
	Recipes      []models.Recipe
	RecipesCount int64
}

type UserService interface {
	Me(ctx context.Context, userID string) (*models.User, error)
	// List pages through all users; viewerID may be empty.
	List(ctx context.Context, viewerID string, page Page) ([]UserProfile, int64, error)
	// Get resolves a profile; viewerID may be empty for anonymous callers.
	Get(ctx context.Context, viewerID, userID string) (*UserProfile, error)
	Subscriptions(ctx context.Context, userID string, page Page, recipesLimit int) ([]AuthorSummary, int64, error)
	Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*AuthorSummary, error)
	Unsubscribe(ctx context.Context, userID, authorID string) error
	SetPassword(ctx context.Context, userID, current, next string) error
}

type userService struct {
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	recipes       repository.RecipeRepository
	log           *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	subscriptions repository.SubscriptionRepository,
	recipes repository.RecipeRepository,
	log *slog.Logger,
) UserService {
	return &userService{
		users:         users,
		subscriptions: subscriptions,
		recipes:       recipes,
		log:           log,
	}
}

func (s *userService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.findUser(ctx, userID)
}

func (s *userService) List(ctx context.Context, viewerID string, page Page) ([]UserProfile, int64, error) {
	page = page.normalize()
	users, total, err := s.users.List(ctx, page.Number, page.Size)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := s.subscriptions.SubscribedTo(ctx, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]UserProfile, 0, len(users))
	for i := range users {
		out = append(out, UserProfile{User: &users[i], IsSubscribed: subscribed[users[i].ID]})
	}
	return out, total, nil
}

func (s *userService) Get(ctx context.Context, viewerID, userID string) (*UserProfile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := &UserProfile{User: user}
	if viewerID != "" && viewerID != userID {
		subscribed, err := s.subscriptions.Exists(ctx, viewerID, userID)
		if err != nil {
			return nil, err
		}
		profile.IsSubscribed = subscribed
	}
	return profile, nil
}

func (s *userService) Subscriptions(ctx context.Context, userID string, page Page, recipesLimit int) ([]AuthorSummary, int64, error) {
	page = page.normalize()
	authors, total, err := s.subscriptions.ListAuthors(ctx, userID, page.Number, page.Size)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.recipes.CountByAuthor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]AuthorSummary, 0, len(authors))
	for _, a := range authors {
		recipes, err := s.recipes.ListByAuthor(ctx, a.ID, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, AuthorSummary{
			Author:       a,
			IsSubscribed: true,
			Recipes:      recipes,
			RecipesCount: counts[a.ID],
		})
	}
	return out, total, nil
}

func (s *userService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*AuthorSummary, error) {
	if userID == authorID {
		return nil, ErrSelfSubscription
	}
	author, err := s.findUser(ctx, authorID)
	if err != nil {
		return nil, err
	}

	if err := s.subscriptions.Add(ctx, userID, authorID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}
	s.log.Info("subscription_created", "subscriber_id", userID, "author_id", authorID)

	counts, err := s.recipes.CountByAuthor(ctx, []string{authorID})
	if err != nil {
		return nil, err
	}
	recipes, err := s.recipes.ListByAuthor(ctx, authorID, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &AuthorSummary{
		Author:       *author,
		IsSubscribed: true,
		Recipes:      recipes,
		RecipesCount: counts[authorID],
	}, nil
}

func (s *userService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := s.findUser(ctx, authorID); err != nil {
		return err
	}
	removed, err := s.subscriptions.Remove(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotSubscribed
	}
	s.log.Info("subscription_removed", "subscriber_id", userID, "author_id", authorID)
	return nil
}

// SetPassword replaces the password after checking the current one.
// Refresh tokens already issued stay valid until they expire.
func (s *userService) SetPassword(ctx context.Context, userID, current, next string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(user.Password, current); err != nil {
		return ErrWrongPassword
	}
	hashed, err := auth.HashPassword(next)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return invalid("new_password", "password must be at most 72 bytes")
		}
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.log.Info("password_changed", "user_id", userID)
	return nil
}

func (s *userService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
