package repository

import (
	"context"
	"fmt"

	"foodgram/internal/http-api/models"

	"gorm.io/gorm"
)

// RecipeCollectionRepository stores per-user recipe marks (favorites, cart).
type RecipeCollectionRepository interface {
	Add(ctx context.Context, userID string, recipeID int64) error
	Remove(ctx context.Context, userID string, recipeID int64) (bool, error)
	// Marked returns which of recipeIDs the user has in this collection.
	Marked(ctx context.Context, userID string, recipeIDs []int64) (map[int64]bool, error)
}

type CartRepository interface {
	RecipeCollectionRepository
	// ShoppingList sums ingredient amounts over every recipe in the user's
	// cart, one row per (name, measurement unit).
	ShoppingList(ctx context.Context, userID string) ([]models.ShoppingListLine, error)
}

type collectionRepository struct {
	db    *gorm.DB
	model func(userID string, recipeID int64) interface{}
	what  string
}

func NewFavoriteRepository(db *gorm.DB) RecipeCollectionRepository {
	return &collectionRepository{
		db: db,
		model: func(userID string, recipeID int64) interface{} {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		what: "favorite",
	}
}

type cartRepository struct {
	*collectionRepository
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{
		collectionRepository: &collectionRepository{
			db: db,
			model: func(userID string, recipeID int64) interface{} {
				return &models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
			},
			what: "cart entry",
		},
	}
}

func (r *collectionRepository) Add(ctx context.Context, userID string, recipeID int64) error {
	if err := r.db.WithContext(ctx).Create(r.model(userID, recipeID)).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("add %s: %w", r.what, err)
	}
	return nil
}

func (r *collectionRepository) Remove(ctx context.Context, userID string, recipeID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(r.model("", 0))
	if result.Error != nil {
		return false, fmt.Errorf("remove %s: %w", r.what, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *collectionRepository) Marked(ctx context.Context, userID string, recipeIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(recipeIDs))
	if userID == "" || len(recipeIDs) == 0 {
		return out, nil
	}
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(r.model("", 0)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", r.what, err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *cartRepository) ShoppingList(ctx context.Context, userID string) ([]models.ShoppingListLine, error) {
	var lines []models.ShoppingListLine
	if err := r.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_entries ON shopping_cart_entries.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&lines).Error; err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	return lines, nil
}
