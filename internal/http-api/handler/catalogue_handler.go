package handler

import (
	"context"
	"net/http"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

// CatalogueHandler serves tags and ingredients. All routes are public.
type CatalogueHandler struct {
	svc service.CatalogueService
}

func NewCatalogueHandler(svc service.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{svc: svc}
}

func (h *CatalogueHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.ListTags)
	rg.GET("/tags/:id", h.GetTag)
	rg.GET("/ingredients", h.ListIngredients)
	rg.GET("/ingredients/:id", h.GetIngredient)
}

func (h *CatalogueHandler) ListTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	tags, err := h.svc.ListTags(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, dto.FromTag(t))
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogueHandler) GetTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	tag, err := h.svc.GetTag(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTag(*tag))
}

// ListIngredients supports ?name= as a case-insensitive prefix filter.
func (h *CatalogueHandler) ListIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, err := h.svc.SearchIngredients(ctx, c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.IngredientResponse, 0, len(list))
	for _, i := range list {
		out = append(out, dto.FromIngredient(i))
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogueHandler) GetIngredient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ing, err := h.svc.GetIngredient(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIngredient(*ing))
}
