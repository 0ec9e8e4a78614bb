package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/pkg/shortcode"
)

var (
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrForbidden          = errors.New("only the author can change this recipe")
	ErrAlreadyFavorited   = errors.New("recipe already in favorites")
	ErrNotFavorited       = errors.New("recipe not in favorites")
	ErrAlreadyInCart      = errors.New("recipe already in shopping cart")
	ErrNotInCart          = errors.New("recipe not in shopping cart")
	ErrShortCodeExhausted = errors.New("could not allocate a short link code")
)

// ValidationError reports a rejected recipe field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RecipeDetail is a recipe plus the viewer's marks on it.
type RecipeDetail struct {
	Recipe           *models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeQuery filters a listing. Favorited and InCart only apply when the
// viewer is authenticated.
type RecipeQuery struct {
	AuthorID  string
	TagSlugs  []string
	Favorited bool
	InCart    bool
	Page      Page
}

type RecipeService interface {
	List(ctx context.Context, viewerID string, query RecipeQuery) ([]RecipeDetail, int64, error)
	Get(ctx context.Context, viewerID string, id int64) (*RecipeDetail, error)
	// Create persists a new recipe and gives it a short code in the same insert.
	Create(ctx context.Context, authorID string, recipe *models.Recipe) (*RecipeDetail, error)
	Update(ctx context.Context, userID string, id int64, recipe *models.Recipe) (*RecipeDetail, error)
	Delete(ctx context.Context, userID string, id int64) error

	AddFavorite(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error)
	RemoveFavorite(ctx context.Context, userID string, recipeID int64) error
	AddToCart(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error)
	RemoveFromCart(ctx context.Context, userID string, recipeID int64) error
}

type recipeService struct {
	recipes       repository.RecipeRepository
	tags          repository.TagRepository
	ingredients   repository.IngredientRepository
	favorites     repository.RecipeCollectionRepository
	cart          repository.RecipeCollectionRepository
	subscriptions repository.SubscriptionRepository
	codes         *shortcode.Generator
	log           *slog.Logger
}

// RecipeRepositories groups the stores the recipe service reads and writes.
type RecipeRepositories struct {
	Recipes       repository.RecipeRepository
	Tags          repository.TagRepository
	Ingredients   repository.IngredientRepository
	Favorites     repository.RecipeCollectionRepository
	Cart          repository.RecipeCollectionRepository
	Subscriptions repository.SubscriptionRepository
}

func NewRecipeService(repos RecipeRepositories, codes *shortcode.Generator, log *slog.Logger) RecipeService {
	return &recipeService{
		recipes:       repos.Recipes,
		tags:          repos.Tags,
		ingredients:   repos.Ingredients,
		favorites:     repos.Favorites,
		cart:          repos.Cart,
		subscriptions: repos.Subscriptions,
		codes:         codes,
		log:           log,
	}
}

func (s *recipeService) List(ctx context.Context, viewerID string, query RecipeQuery) ([]RecipeDetail, int64, error) {
	page := query.Page.normalize()
	filter := repository.RecipeFilter{
		AuthorID: query.AuthorID,
		TagSlugs: query.TagSlugs,
		Page:     page.Number,
		PageSize: page.Size,
	}
	if viewerID != "" {
		if query.Favorited {
			filter.FavoritedBy = viewerID
		}
		if query.InCart {
			filter.InCartOf = viewerID
		}
	}

	list, total, err := s.recipes.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	recipes := make([]*models.Recipe, 0, len(list))
	for i := range list {
		recipes = append(recipes, &list[i])
	}
	out, err := s.annotate(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *recipeService) Get(ctx context.Context, viewerID string, id int64) (*RecipeDetail, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, viewerID, recipe)
}

func (s *recipeService) Create(ctx context.Context, authorID string, recipe *models.Recipe) (*RecipeDetail, error) {
	if err := s.validate(ctx, recipe); err != nil {
		return nil, err
	}
	recipe.AuthorID = authorID

	code, err := s.codes.Assign(ctx, s.recipes.ShortCodeExists, func(ctx context.Context, code string) error {
		recipe.ShortCode = &code
		err := s.recipes.Create(ctx, recipe)
		if errors.Is(err, repository.ErrShortCodeTaken) {
			s.log.Debug("short_code_collision", "code", code)
			return shortcode.ErrCollision
		}
		return err
	})
	if err != nil {
		if errors.Is(err, shortcode.ErrExhausted) {
			s.log.Error("short_code_exhausted", "author_id", authorID, "error", err)
			return nil, ErrShortCodeExhausted
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("ingredients", "ingredients must be unique")
		}
		return nil, err
	}
	s.log.Info("recipe_created", "recipe_id", recipe.ID, "author_id", authorID, "short_code", code)

	return s.Get(ctx, authorID, recipe.ID)
}

func (s *recipeService) Update(ctx context.Context, userID string, id int64, recipe *models.Recipe) (*RecipeDetail, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != userID {
		return nil, ErrForbidden
	}
	if err := s.validate(ctx, recipe); err != nil {
		return nil, err
	}

	recipe.ID = id
	recipe.AuthorID = existing.AuthorID
	if err := s.recipes.Update(ctx, recipe); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("ingredients", "ingredients must be unique")
		}
		return nil, err
	}
	s.log.Info("recipe_updated", "recipe_id", id, "author_id", userID)

	return s.Get(ctx, userID, id)
}

func (s *recipeService) Delete(ctx context.Context, userID string, id int64) error {
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != userID {
		return ErrForbidden
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	s.log.Info("recipe_deleted", "recipe_id", id, "author_id", userID)
	return nil
}

func (s *recipeService) AddFavorite(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error) {
	return s.mark(ctx, s.favorites, userID, recipeID, ErrAlreadyFavorited)
}

func (s *recipeService) RemoveFavorite(ctx context.Context, userID string, recipeID int64) error {
	return s.unmark(ctx, s.favorites, userID, recipeID, ErrNotFavorited)
}

func (s *recipeService) AddToCart(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error) {
	return s.mark(ctx, s.cart, userID, recipeID, ErrAlreadyInCart)
}

func (s *recipeService) RemoveFromCart(ctx context.Context, userID string, recipeID int64) error {
	return s.unmark(ctx, s.cart, userID, recipeID, ErrNotInCart)
}

func (s *recipeService) mark(ctx context.Context, c repository.RecipeCollectionRepository, userID string, recipeID int64, dup error) (*models.Recipe, error) {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := c.Add(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, dup
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) unmark(ctx context.Context, c repository.RecipeCollectionRepository, userID string, recipeID int64, absent error) error {
	if _, err := s.load(ctx, recipeID); err != nil {
		return err
	}
	removed, err := c.Remove(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if !removed {
		return absent
	}
	return nil
}

func (s *recipeService) load(ctx context.Context, id int64) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) detail(ctx context.Context, viewerID string, recipe *models.Recipe) (*RecipeDetail, error) {
	out, err := s.annotate(ctx, viewerID, []*models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// annotate attaches the viewer's favorite, cart and subscription marks.
func (s *recipeService) annotate(ctx context.Context, viewerID string, recipes []*models.Recipe) ([]RecipeDetail, error) {
	out := make([]RecipeDetail, 0, len(recipes))
	if viewerID == "" || len(recipes) == 0 {
		for _, r := range recipes {
			out = append(out, RecipeDetail{Recipe: r})
		}
		return out, nil
	}

	ids := make([]int64, 0, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	seenAuthors := make(map[string]struct{}, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
		if _, ok := seenAuthors[r.AuthorID]; !ok && r.AuthorID != viewerID {
			seenAuthors[r.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	favorited, err := s.favorites.Marked(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := s.cart.Marked(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.subscriptions.SubscribedTo(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	for _, r := range recipes {
		out = append(out, RecipeDetail{
			Recipe:           r,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			AuthorSubscribed: subscribed[r.AuthorID],
		})
	}
	return out, nil
}

// validate checks the recipe fields and that every referenced tag and
// ingredient exists.
func (s *recipeService) validate(ctx context.Context, recipe *models.Recipe) error {
	recipe.Name = strings.TrimSpace(recipe.Name)
	if recipe.Name == "" {
		return invalid("name", "this field is required")
	}
	if len(recipe.Name) > 200 {
		return invalid("name", "must be at most 200 characters")
	}
	if strings.TrimSpace(recipe.Text) == "" {
		return invalid("text", "this field is required")
	}
	if recipe.CookingTime < models.MinCookingTime || recipe.CookingTime > models.MaxCookingTime {
		return invalid("cooking_time", "must be between %d and %d", models.MinCookingTime, models.MaxCookingTime)
	}

	if len(recipe.Tags) == 0 {
		return invalid("tags", "at least one tag is required")
	}
	tagIDs := make([]int64, 0, len(recipe.Tags))
	seenTags := make(map[int64]struct{}, len(recipe.Tags))
	for _, t := range recipe.Tags {
		if _, dup := seenTags[t.ID]; dup {
			return invalid("tags", "tag %d is listed twice", t.ID)
		}
		seenTags[t.ID] = struct{}{}
		tagIDs = append(tagIDs, t.ID)
	}

	if len(recipe.Ingredients) == 0 {
		return invalid("ingredients", "at least one ingredient is required")
	}
	ingredientIDs := make([]int64, 0, len(recipe.Ingredients))
	seenIngredients := make(map[int64]struct{}, len(recipe.Ingredients))
	for _, it := range recipe.Ingredients {
		if _, dup := seenIngredients[it.IngredientID]; dup {
			return invalid("ingredients", "ingredient %d is listed twice", it.IngredientID)
		}
		if it.Amount < 1 {
			return invalid("ingredients", "amount must be at least 1")
		}
		seenIngredients[it.IngredientID] = struct{}{}
		ingredientIDs = append(ingredientIDs, it.IngredientID)
	}

	tags, err := s.tags.FindByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if len(tags) != len(tagIDs) {
		return invalid("tags", "unknown tag")
	}
	recipe.Tags = tags

	count, err := s.ingredients.CountByIDs(ctx, ingredientIDs)
	if err != nil {
		return err
	}
	if count != int64(len(ingredientIDs)) {
		return invalid("ingredients", "unknown ingredient")
	}
	return nil
}
