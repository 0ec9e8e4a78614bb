package service

import (
	"context"
	"errors"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
)

var (
	ErrTagNotFound        = errors.New("tag not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
)

// CatalogueService serves the read-only tag and ingredient lists.
type CatalogueService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error)
}

type catalogueService struct {
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
}

func NewCatalogueService(tags repository.TagRepository, ingredients repository.IngredientRepository) CatalogueService {
	return &catalogueService{tags: tags, ingredients: ingredients}
}

func (s *catalogueService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.tags.List(ctx)
}

func (s *catalogueService) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	return tag, err
}

func (s *catalogueService) SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	return s.ingredients.List(ctx, prefix)
}

func (s *catalogueService) GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	ing, err := s.ingredients.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrIngredientNotFound
	}
	return ing, err
}
