package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"foodgram/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 5 * time.Second

// respondError maps service errors to a status and a {"error": ...} body.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}

	switch {
	case errors.Is(err, service.ErrRecipeNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTagNotFound),
		errors.Is(err, service.ErrIngredientNotFound),
		errors.Is(err, service.ErrShortLinkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyFavorited),
		errors.Is(err, service.ErrNotFavorited),
		errors.Is(err, service.ErrAlreadyInCart),
		errors.Is(err, service.ErrNotInCart),
		errors.Is(err, service.ErrSelfSubscription),
		errors.Is(err, service.ErrAlreadySubscribed),
		errors.Is(err, service.ErrNotSubscribed),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrNameInUse),
		errors.Is(err, service.ErrEmailInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrExpiredToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrShortCodeExhausted):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		slog.Error("request_failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// pathID parses a numeric path parameter. Anything else is a 404, as no
// such resource can exist.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}

// queryInt reads an optional positive integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func queryFlag(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true":
		return true
	}
	return false
}
