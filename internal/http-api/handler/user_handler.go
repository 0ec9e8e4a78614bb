package handler

import (
	"context"
	"net/http"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultRecipesLimit = 3

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// RegisterRoutes mounts the user routes. required rejects anonymous callers,
// optional only identifies them.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, required, optional gin.HandlerFunc) {
	rg.GET("", optional, h.List)
	rg.GET("/me", required, h.Me)
	rg.POST("/set_password", required, h.SetPassword)
	rg.GET("/subscriptions", required, h.Subscriptions)
	rg.GET("/:id", optional, h.Get)
	rg.POST("/:id/subscribe", required, h.Subscribe)
	rg.DELETE("/:id/subscribe", required, h.Unsubscribe)
}

func (h *UserHandler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.svc.Me(ctx, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user, false))
}

// List supports page and limit. is_subscribed is relative to the caller.
func (h *UserHandler) List(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", service.DefaultPageSize)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	profiles, total, err := h.svc.List(ctx, middleware.UserID(c), service.Page{Number: page, Size: limit})
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]dto.UserResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, dto.FromUser(p.User, p.IsSubscribed))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(items, page, min(limit, service.MaxPageSize), total))
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req dto.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.SetPassword(ctx, middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	profile, err := h.svc.Get(ctx, middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(profile.User, profile.IsSubscribed))
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", service.DefaultPageSize)
	if !ok {
		return
	}
	recipesLimit, ok := queryInt(c, "recipes_limit", defaultRecipesLimit)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	authors, total, err := h.svc.Subscriptions(ctx, middleware.UserID(c), service.Page{Number: page, Size: limit}, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]dto.SubscriptionResponse, 0, len(authors))
	for i := range authors {
		a := &authors[i]
		items = append(items, dto.NewSubscriptionResponse(&a.Author, a.Recipes, a.RecipesCount))
	}
	c.JSON(http.StatusOK, dto.NewPaginated(items, page, min(limit, service.MaxPageSize), total))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}
	recipesLimit, ok := queryInt(c, "recipes_limit", defaultRecipesLimit)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	summary, err := h.svc.Subscribe(ctx, middleware.UserID(c), id, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSubscriptionResponse(&summary.Author, summary.Recipes, summary.RecipesCount))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Unsubscribe(ctx, middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// userParam reads :id as a uuid; anything else cannot name a user.
func userParam(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrUserNotFound.Error()})
		return "", false
	}
	return id.String(), true
}
