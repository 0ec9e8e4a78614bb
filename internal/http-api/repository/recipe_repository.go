package repository

import (
	"context"
	"errors"
	"fmt"

	"foodgram/internal/http-api/models"

	"gorm.io/gorm"
)

// RecipeFilter narrows a recipe listing. Empty fields are ignored.
type RecipeFilter struct {
	AuthorID    string
	TagSlugs    []string
	FavoritedBy string
	InCartOf    string
	Page        int
	PageSize    int
}

type RecipeRepository interface {
	// Create inserts the recipe with its ingredient rows and tags. A clash on
	// short_code returns ErrShortCodeTaken and leaves nothing behind.
	Create(ctx context.Context, recipe *models.Recipe) error
	// Update rewrites name, text, cooking time, ingredients and tags. The
	// short code is never part of the update.
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Recipe, error)
	CountByAuthor(ctx context.Context, authorIDs []string) (map[string]int64, error)

	ShortCodeExists(ctx context.Context, code string) (bool, error)
	FindByShortCode(ctx context.Context, code string) (*models.Recipe, error)
	// SetShortCode assigns a code to a recipe that has none yet.
	SetShortCode(ctx context.Context, id int64, code string) error
}

// recipeTag is the many2many join row behind Recipe.Tags.
type recipeTag struct {
	RecipeID int64
	TagID    int64
}

func (recipeTag) TableName() string {
	return "recipe_tags"
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	ingredients := recipe.Ingredients
	tags := recipe.Tags

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Recipe{
			AuthorID:    recipe.AuthorID,
			Name:        recipe.Name,
			Text:        recipe.Text,
			CookingTime: recipe.CookingTime,
			ShortCode:   recipe.ShortCode,
		}
		if err := tx.Create(&row).Error; err != nil {
			// short_code is the only unique column on recipes
			if isUniqueViolation(err) {
				return ErrShortCodeTaken
			}
			return fmt.Errorf("insert recipe: %w", err)
		}
		if err := writeIngredients(tx, row.ID, ingredients); err != nil {
			return err
		}
		if err := writeTags(tx, row.ID, tags); err != nil {
			return err
		}
		recipe.ID = row.ID
		recipe.CreatedAt = row.CreatedAt
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrShortCodeTaken) || errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("create recipe: %w", err)
	}
	return nil
}

func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Recipe{}).
			Where("id = ?", recipe.ID).
			Select("name", "text", "cooking_time").
			Updates(map[string]interface{}{
				"name":         recipe.Name,
				"text":         recipe.Text,
				"cooking_time": recipe.CookingTime,
			})
		if result.Error != nil {
			return fmt.Errorf("update recipe: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&recipeTag{}).Error; err != nil {
			return fmt.Errorf("clear recipe tags: %w", err)
		}
		if err := writeIngredients(tx, recipe.ID, recipe.Ingredients); err != nil {
			return err
		}
		return writeTags(tx, recipe.ID, recipe.Tags)
	})
	return err
}

func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// dependents first so the delete also works where FK cascades are off
		for _, dep := range []interface{}{
			&models.Favorite{},
			&models.ShoppingCartEntry{},
			&models.RecipeIngredient{},
			&recipeTag{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(dep).Error; err != nil {
				return fmt.Errorf("delete recipe dependents: %w", err)
			}
		}
		result := tx.Delete(&models.Recipe{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete recipe: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.withDetails(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error) {
	var total int64
	var list []models.Recipe

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.AuthorID != "" {
			db = db.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if len(filter.TagSlugs) > 0 {
			db = db.Where("recipes.id IN (?)", r.db.
				Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs))
		}
		if filter.FavoritedBy != "" {
			db = db.Where("recipes.id IN (?)", r.db.
				Model(&models.Favorite{}).
				Select("recipe_id").
				Where("user_id = ?", filter.FavoritedBy))
		}
		if filter.InCartOf != "" {
			db = db.Where("recipes.id IN (?)", r.db.
				Model(&models.ShoppingCartEntry{}).
				Select("recipe_id").
				Where("user_id = ?", filter.InCartOf))
		}
		return db
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Scopes(scope).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	if err := r.withDetails(r.db.WithContext(ctx)).
		Scopes(scope).
		Order("recipes.id DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	return list, total, nil
}

func (r *recipeRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Recipe, error) {
	var list []models.Recipe
	q := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list author recipes: %w", err)
	}
	return list, nil
}

func (r *recipeRepository) CountByAuthor(ctx context.Context, authorIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AuthorID string
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count author recipes: %w", err)
	}
	for _, row := range rows {
		out[row.AuthorID] = row.Total
	}
	return out, nil
}

func (r *recipeRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("short_code = ?", code).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check short code: %w", err)
	}
	return count > 0, nil
}

func (r *recipeRepository) FindByShortCode(ctx context.Context, code string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).
		Select("id", "short_code").
		Where("short_code = ?", code).
		First(&recipe).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find recipe by short code: %w", err)
	}
	return &recipe, nil
}

func (r *recipeRepository) SetShortCode(ctx context.Context, id int64, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ? AND short_code IS NULL", id).
		Update("short_code", code)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrShortCodeTaken
		}
		return fmt.Errorf("set short code: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// nothing updated: either the recipe is gone or someone else set a code first
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("set short code: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrShortCodeAlreadySet
}

func (r *recipeRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func writeIngredients(tx *gorm.DB, recipeID int64, items []models.RecipeIngredient) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, it := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: it.IngredientID,
			Amount:       it.Amount,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert recipe ingredients: %w", err)
	}
	return nil
}

func writeTags(tx *gorm.DB, recipeID int64, tags []models.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	rows := make([]recipeTag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, recipeTag{RecipeID: recipeID, TagID: t.ID})
	}
	if err := tx.Create(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert recipe tags: %w", err)
	}
	return nil
}
