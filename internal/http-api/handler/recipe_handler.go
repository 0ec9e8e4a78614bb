package handler

import (
	"context"
	"mime"
	"net/http"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecipeHandler struct {
	svc      service.RecipeService
	shopping service.ShoppingListService
}

func NewRecipeHandler(svc service.RecipeService, shopping service.ShoppingListService) *RecipeHandler {
	return &RecipeHandler{svc: svc, shopping: shopping}
}

func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup, required, optional gin.HandlerFunc) {
	rg.GET("", optional, h.List)
	rg.POST("", required, h.Create)
	rg.GET("/download_shopping_cart", required, h.DownloadShoppingCart)
	rg.GET("/:id", optional, h.Get)
	rg.PATCH("/:id", required, h.Update)
	rg.DELETE("/:id", required, h.Delete)
	rg.POST("/:id/favorite", required, h.AddFavorite)
	rg.DELETE("/:id/favorite", required, h.RemoveFavorite)
	rg.POST("/:id/shopping_cart", required, h.AddToCart)
	rg.DELETE("/:id/shopping_cart", required, h.RemoveFromCart)
}

// List supports page, limit, author, tags (repeated slug), is_favorited and
// is_in_shopping_cart.
func (h *RecipeHandler) List(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", service.DefaultPageSize)
	if !ok {
		return
	}
	query := service.RecipeQuery{
		TagSlugs:  c.QueryArray("tags"),
		Favorited: queryFlag(c, "is_favorited"),
		InCart:    queryFlag(c, "is_in_shopping_cart"),
		Page:      service.Page{Number: page, Size: limit},
	}
	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author"})
			return
		}
		query.AuthorID = id.String()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, total, err := h.svc.List(ctx, middleware.UserID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dto.RecipeResponse, 0, len(list))
	for _, d := range list {
		items = append(items, dto.FromRecipeDetail(d))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(items, page, min(limit, service.MaxPageSize), total))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	detail, err := h.svc.Get(ctx, middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecipeDetail(*detail))
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var req dto.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	detail, err := h.svc.Create(ctx, middleware.UserID(c), req.ToModel())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRecipeDetail(*detail))
}

// Update replaces the recipe's fields, tags and ingredients. The short code
// is not part of the payload and never changes.
func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	detail, err := h.svc.Update(ctx, middleware.UserID(c), id, req.ToModel())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecipeDetail(*detail))
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMark(c, h.svc.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMark(c, h.svc.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addMark(c, h.svc.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeMark(c, h.svc.RemoveFromCart)
}

// DownloadShoppingCart serves the aggregated ingredient list as a text attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	doc, err := h.shopping.Build(ctx, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

func (h *RecipeHandler) addMark(c *gin.Context, add func(context.Context, string, int64) (*models.Recipe, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	recipe, err := add(ctx, middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRecipeShort(recipe))
}

func (h *RecipeHandler) removeMark(c *gin.Context, remove func(context.Context, string, int64) error) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := remove(ctx, middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
