package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodgram/database"
	"foodgram/internal/config"
	httpapi "foodgram/internal/http-api"
	"foodgram/internal/http-api/middleware"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/http-api/service"
	"foodgram/pkg/shortcode"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	rdb, err := repository.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := middleware.RegisterValidators(); err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	subscriptions := repository.NewSubscriptionRepository(db)
	tags := repository.NewTagRepository(db)
	ingredients := repository.NewIngredientRepository(db)
	recipes := repository.NewRecipeRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	cart := repository.NewCartRepository(db)
	refreshTokens := repository.NewRefreshTokenRepository(rdb)

	codes := shortcode.New(cfg.ShortCodeLength, cfg.ShortCodeMaxAttempts)

	recipeService := service.NewRecipeService(service.RecipeRepositories{
		Recipes:       recipes,
		Tags:          tags,
		Ingredients:   ingredients,
		Favorites:     favorites,
		Cart:          cart,
		Subscriptions: subscriptions,
	}, codes, logger)

	services := httpapi.Services{
		Auth:         service.NewAuthService(users, refreshTokens, cfg, logger),
		Users:        service.NewUserService(users, subscriptions, recipes, logger),
		Catalogue:    service.NewCatalogueService(tags, ingredients),
		Recipes:      recipeService,
		ShortLinks:   service.NewShortLinkService(recipes, codes, logger),
		ShoppingList: service.NewShoppingListService(cart, cfg.ShoppingListFilename, cfg.ShoppingListHeader, logger),
	}

	limiter := middleware.NewRateLimiter(cfg.RedirectRateLimit, cfg.RedirectRateBurst)
	go limiter.Run(ctx, 5*time.Minute)

	router, err := httpapi.NewRouter(cfg, services, limiter)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpapi.WithCORS(router, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_api_server", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped_gracefully")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
