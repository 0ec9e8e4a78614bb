package repository

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Tag, error)
	Upsert(ctx context.Context, tags []models.Tag) (int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &tag, nil
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	return tags, nil
}

// Upsert inserts tags, skipping those whose slug already exists.
func (r *tagRepository) Upsert(ctx context.Context, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tags)
	if result.Error != nil {
		return 0, fmt.Errorf("upsert tags: %w", result.Error)
	}
	return result.RowsAffected, nil
}

type IngredientRepository interface {
	// List returns ingredients whose name starts with prefix, case-insensitively.
	List(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*models.Ingredient, error)
	CountByIDs(ctx context.Context, ids []int64) (int64, error)
	Import(ctx context.Context, ingredients []models.Ingredient) (int64, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) List(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	var list []models.Ingredient
	q := r.db.WithContext(ctx)
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		// LOWER() on both sides works on postgres and sqlite alike
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(prefix))+"%")
	}
	if err := q.Order("name").Order("measurement_unit").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return list, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := r.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return &ing, nil
}

func (r *ingredientRepository) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id IN ?", ids).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count ingredients: %w", err)
	}
	return count, nil
}

// Import inserts ingredients inside one transaction, skipping (name, unit)
// pairs that are already present. Returns the number of rows created.
func (r *ingredientRepository) Import(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	var created int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ing := range ingredients {
			var existing int64
			if err := tx.Model(&models.Ingredient{}).
				Where("name = ? AND measurement_unit = ?", ing.Name, ing.MeasurementUnit).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			row := models.Ingredient{Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import ingredients: %w", err)
	}
	return created, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
