package handler_test

import (
	"context"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/service"

	"github.com/stretchr/testify/mock"
)

// --- MOCK SERVICES ---

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, user *models.User, password string) error {
	args := m.Called(ctx, user, password)
	return args.Error(0)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.TokenPair, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Me(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, viewerID string, page service.Page) ([]service.UserProfile, int64, error) {
	args := m.Called(ctx, viewerID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]service.UserProfile), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) SetPassword(ctx context.Context, userID, current, next string) error {
	args := m.Called(ctx, userID, current, next)
	return args.Error(0)
}

func (m *MockUserService) Get(ctx context.Context, viewerID, userID string) (*service.UserProfile, error) {
	args := m.Called(ctx, viewerID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserProfile), args.Error(1)
}

func (m *MockUserService) Subscriptions(ctx context.Context, userID string, page service.Page, recipesLimit int) ([]service.AuthorSummary, int64, error) {
	args := m.Called(ctx, userID, page, recipesLimit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]service.AuthorSummary), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*service.AuthorSummary, error) {
	args := m.Called(ctx, userID, authorID, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthorSummary), args.Error(1)
}

func (m *MockUserService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	args := m.Called(ctx, userID, authorID)
	return args.Error(0)
}

type MockCatalogueService struct {
	mock.Mock
}

func (m *MockCatalogueService) ListTags(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockCatalogueService) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockCatalogueService) SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

func (m *MockCatalogueService) GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ingredient), args.Error(1)
}

type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) List(ctx context.Context, viewerID string, query service.RecipeQuery) ([]service.RecipeDetail, int64, error) {
	args := m.Called(ctx, viewerID, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]service.RecipeDetail), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeService) Get(ctx context.Context, viewerID string, id int64) (*service.RecipeDetail, error) {
	args := m.Called(ctx, viewerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeDetail), args.Error(1)
}

func (m *MockRecipeService) Create(ctx context.Context, authorID string, recipe *models.Recipe) (*service.RecipeDetail, error) {
	args := m.Called(ctx, authorID, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeDetail), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, userID string, id int64, recipe *models.Recipe) (*service.RecipeDetail, error) {
	args := m.Called(ctx, userID, id, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeDetail), args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, userID string, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockRecipeService) AddFavorite(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) RemoveFavorite(ctx context.Context, userID string, recipeID int64) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

func (m *MockRecipeService) AddToCart(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) RemoveFromCart(ctx context.Context, userID string, recipeID int64) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

type MockShortLinkService struct {
	mock.Mock
}

func (m *MockShortLinkService) Resolve(ctx context.Context, code string) (int64, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShortLinkService) Code(ctx context.Context, recipeID int64) (string, error) {
	args := m.Called(ctx, recipeID)
	return args.String(0), args.Error(1)
}

type MockShoppingListService struct {
	mock.Mock
}

func (m *MockShoppingListService) Build(ctx context.Context, userID string) (*service.Document, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Document), args.Error(1)
}
