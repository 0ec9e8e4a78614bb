// Package httpapi wires the REST handlers, middleware and the short link
// redirect into one http.Handler.
package httpapi

import (
	"fmt"
	"net/http"

	"foodgram/internal/config"
	"foodgram/internal/http-api/handler"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

type Services struct {
	Auth         service.AuthService
	Users        service.UserService
	Catalogue    service.CatalogueService
	Recipes      service.RecipeService
	ShortLinks   service.ShortLinkService
	ShoppingList service.ShoppingListService
}

// NewRouter builds the gin engine with every route mounted. Forwarding
// headers are only honoured from cfg.TrustedProxies, so the redirect limiter
// keys on the real peer address unless a proxy is configured.
func NewRouter(cfg *config.Config, svc Services, limiter *middleware.RateLimiter) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/check-conn", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is alive"})
	})

	required := middleware.AuthMiddleware(svc.Auth)
	optional := middleware.OptionalAuth(svc.Auth)

	shortLinks := handler.NewShortLinkHandler(svc.ShortLinks, cfg.PublicBaseURL, cfg.TrustedProxies)
	shortLinks.RegisterRoutes(r, limiter.Middleware())

	api := r.Group("/api")
	{
		handler.NewAuthHandler(svc.Auth).RegisterRoutes(api.Group("/auth"))
		handler.NewUserHandler(svc.Users).RegisterRoutes(api.Group("/users"), required, optional)
		handler.NewCatalogueHandler(svc.Catalogue).RegisterRoutes(api)

		recipes := api.Group("/recipes")
		handler.NewRecipeHandler(svc.Recipes, svc.ShoppingList).RegisterRoutes(recipes, required, optional)
		shortLinks.RegisterAPIRoutes(recipes)
	}
	return r, nil
}

// WithCORS wraps the router so browsers on the configured origins can call it.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})(h)
}
