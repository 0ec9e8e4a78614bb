package service

import (
	"context"
	"errors"
	"testing"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/pkg/shortcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestShortLinkService(source func(int) int) (ShortLinkService, *MockRecipeRepository) {
	recipes := new(MockRecipeRepository)
	codes := shortcode.New(4, 3).WithSource(source)
	return NewShortLinkService(recipes, codes, discardLogger), recipes
}

func strPtr(s string) *string { return &s }

func TestResolve(t *testing.T) {
	svc, recipes := newTestShortLinkService(indexes(1))
	ctx := context.Background()
	recipes.On("FindByShortCode", ctx, "aB3x").Return(&models.Recipe{ID: 42}, nil)
	recipes.On("FindByShortCode", ctx, "AB3x").Return(nil, repository.ErrNotFound)

	id, err := svc.Resolve(ctx, "aB3x")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	// codes are case-sensitive
	_, err = svc.Resolve(ctx, "AB3x")
	assert.ErrorIs(t, err, ErrShortLinkNotFound)
}

func TestResolve_MalformedCodeSkipsLookup(t *testing.T) {
	svc, recipes := newTestShortLinkService(indexes(1))

	for _, code := range []string{"", "a-b", "ab cd", "abcdefghijklmnopqrstuvwxyz"} {
		_, err := svc.Resolve(context.Background(), code)
		assert.ErrorIs(t, err, ErrShortLinkNotFound, code)
	}
	recipes.AssertNotCalled(t, "FindByShortCode", mock.Anything, mock.Anything)
}

func TestCode_ReturnsExisting(t *testing.T) {
	svc, recipes := newTestShortLinkService(indexes(1))
	ctx := context.Background()
	recipes.On("GetByID", ctx, int64(1)).Return(&models.Recipe{ID: 1, ShortCode: strPtr("Zz9a")}, nil)

	first, err := svc.Code(ctx, 1)
	require.NoError(t, err)
	second, err := svc.Code(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, "Zz9a", first)
	assert.Equal(t, first, second)
	recipes.AssertNotCalled(t, "SetShortCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestCode_AssignsLazily(t *testing.T) {
	svc, recipes := newTestShortLinkService(indexes(0, 0, 0, 0, 1, 1, 1, 1))
	ctx := context.Background()
	recipes.On("GetByID", ctx, int64(1)).Return(&models.Recipe{ID: 1}, nil)
	recipes.On("ShortCodeExists", ctx, "AAAA").Return(true, nil)
	recipes.On("ShortCodeExists", ctx, "BBBB").Return(false, nil)
	recipes.On("SetShortCode", ctx, int64(1), "BBBB").Return(nil)

	code, err := svc.Code(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "BBBB", code)
	recipes.AssertNotCalled(t, "SetShortCode", ctx, int64(1), "AAAA")
}

func TestCode_ConcurrentAssignmentWins(t *testing.T) {
	svc, recipes := newTestShortLinkService(indexes(1))
	ctx := context.Background()
	recipes.On("GetByID", ctx, int64(1)).Return(&models.Recipe{ID: 1}, nil).Once()
	recipes.On("ShortCodeExists", ctx, "BBBB").Return(false, nil)
	recipes.On("SetShortCode", ctx, int64(1), "BBBB").Return(repository.ErrShortCodeAlreadySet)
	recipes.On("GetByID", ctx, int64(1)).Return(&models.Recipe{ID: 1, ShortCode: strPtr("Won1")}, nil).Once()

	code, err := svc.Code(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Won1", code)
}

func TestCode_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown recipe", func(t *testing.T) {
		svc, recipes := newTestShortLinkService(indexes(1))
		recipes.On("GetByID", ctx, int64(9)).Return(nil, repository.ErrNotFound)
		_, err := svc.Code(ctx, 9)
		assert.ErrorIs(t, err, ErrRecipeNotFound)
	})

	t.Run("exhausted", func(t *testing.T) {
		svc, recipes := newTestShortLinkService(indexes(1))
		recipes.On("GetByID", ctx, int64(1)).Return(&models.Recipe{ID: 1}, nil)
		recipes.On("ShortCodeExists", ctx, "BBBB").Return(false, nil)
		recipes.On("SetShortCode", ctx, int64(1), "BBBB").Return(repository.ErrShortCodeTaken)

		_, err := svc.Code(ctx, 1)
		assert.ErrorIs(t, err, ErrShortCodeExhausted)
		recipes.AssertNumberOfCalls(t, "SetShortCode", 3)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, recipes := newTestShortLinkService(indexes(1))
		boom := errors.New("timeout")
		recipes.On("GetByID", ctx, int64(1)).Return(&models.Recipe{ID: 1}, nil)
		recipes.On("ShortCodeExists", ctx, "BBBB").Return(false, boom)

		_, err := svc.Code(ctx, 1)
		assert.ErrorIs(t, err, boom)
	})
}
