package service

import (
	"context"
	"io"
	"log/slog"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"

	"github.com/stretchr/testify/mock"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockRefreshTokenRepository mocks the RefreshTokenRepository interface
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Add(ctx context.Context, subscriberID, authorID string) error {
	args := m.Called(ctx, subscriberID, authorID)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Remove(ctx context.Context, subscriberID, authorID string) (bool, error) {
	args := m.Called(ctx, subscriberID, authorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) Exists(ctx context.Context, subscriberID, authorID string) (bool, error) {
	args := m.Called(ctx, subscriberID, authorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) SubscribedTo(ctx context.Context, subscriberID string, authorIDs []string) (map[string]bool, error) {
	args := m.Called(ctx, subscriberID, authorIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockSubscriptionRepository) ListAuthors(ctx context.Context, subscriberID string, page, pageSize int) ([]models.User, int64, error) {
	args := m.Called(ctx, subscriberID, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, filter repository.RecipeFilter) ([]models.Recipe, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Recipe), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Recipe, error) {
	args := m.Called(ctx, authorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) CountByAuthor(ctx context.Context, authorIDs []string) (map[string]int64, error) {
	args := m.Called(ctx, authorIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockRecipeRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecipeRepository) FindByShortCode(ctx context.Context, code string) (*models.Recipe, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) SetShortCode(ctx context.Context, id int64, code string) error {
	args := m.Called(ctx, id, code)
	return args.Error(0)
}

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) List(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockTagRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Tag, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockTagRepository) Upsert(ctx context.Context, tags []models.Tag) (int64, error) {
	args := m.Called(ctx, tags)
	return args.Get(0).(int64), args.Error(1)
}

type MockIngredientRepository struct {
	mock.Mock
}

func (m *MockIngredientRepository) List(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

func (m *MockIngredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ingredient), args.Error(1)
}

func (m *MockIngredientRepository) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIngredientRepository) Import(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	args := m.Called(ctx, ingredients)
	return args.Get(0).(int64), args.Error(1)
}

// MockCollectionRepository serves both favorites and the cart.
type MockCollectionRepository struct {
	mock.Mock
}

func (m *MockCollectionRepository) Add(ctx context.Context, userID string, recipeID int64) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

func (m *MockCollectionRepository) Remove(ctx context.Context, userID string, recipeID int64) (bool, error) {
	args := m.Called(ctx, userID, recipeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCollectionRepository) Marked(ctx context.Context, userID string, recipeIDs []int64) (map[int64]bool, error) {
	args := m.Called(ctx, userID, recipeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]bool), args.Error(1)
}

type MockCartRepository struct {
	MockCollectionRepository
}

func (m *MockCartRepository) ShoppingList(ctx context.Context, userID string) ([]models.ShoppingListLine, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ShoppingListLine), args.Error(1)
}
