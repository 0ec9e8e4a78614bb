package service

import (
	"context"
	"errors"
	"log/slog"

	"foodgram/internal/http-api/repository"
	"foodgram/pkg/shortcode"
)

var ErrShortLinkNotFound = errors.New("short link not found")

// errCodeAlreadySet stops Assign when another request assigned a code first.
var errCodeAlreadySet = errors.New("code assigned concurrently")

// ShortLinkService maps recipes to their short codes and back.
type ShortLinkService interface {
	// Resolve returns the recipe id behind a code. Read-only.
	Resolve(ctx context.Context, code string) (int64, error)
	// Code returns the recipe's short code, assigning one on first request.
	Code(ctx context.Context, recipeID int64) (string, error)
}

type shortLinkService struct {
	recipes repository.RecipeRepository
	codes   *shortcode.Generator
	log     *slog.Logger
}

func NewShortLinkService(recipes repository.RecipeRepository, codes *shortcode.Generator, log *slog.Logger) ShortLinkService {
	return &shortLinkService{recipes: recipes, codes: codes, log: log}
}

func (s *shortLinkService) Resolve(ctx context.Context, code string) (int64, error) {
	if !shortcode.Valid(code) {
		return 0, ErrShortLinkNotFound
	}
	recipe, err := s.recipes.FindByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrShortLinkNotFound
		}
		return 0, err
	}
	return recipe.ID, nil
}

func (s *shortLinkService) Code(ctx context.Context, recipeID int64) (string, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrRecipeNotFound
		}
		return "", err
	}
	if recipe.ShortCode != nil && *recipe.ShortCode != "" {
		return *recipe.ShortCode, nil
	}

	code, err := s.codes.Assign(ctx, s.recipes.ShortCodeExists, func(ctx context.Context, code string) error {
		err := s.recipes.SetShortCode(ctx, recipeID, code)
		switch {
		case errors.Is(err, repository.ErrShortCodeTaken):
			return shortcode.ErrCollision
		case errors.Is(err, repository.ErrShortCodeAlreadySet):
			return errCodeAlreadySet
		}
		return err
	})
	switch {
	case err == nil:
		s.log.Info("short_code_assigned", "recipe_id", recipeID, "code", code)
		return code, nil
	case errors.Is(err, errCodeAlreadySet):
		return s.reload(ctx, recipeID)
	case errors.Is(err, repository.ErrNotFound):
		return "", ErrRecipeNotFound
	case errors.Is(err, shortcode.ErrExhausted):
		s.log.Error("short_code_exhausted", "recipe_id", recipeID, "error", err)
		return "", ErrShortCodeExhausted
	}
	return "", err
}

func (s *shortLinkService) reload(ctx context.Context, recipeID int64) (string, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrRecipeNotFound
		}
		return "", err
	}
	if recipe.ShortCode == nil {
		return "", errors.New("short code vanished after concurrent assignment")
	}
	return *recipe.ShortCode, nil
}
