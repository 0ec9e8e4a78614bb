package command

import (
	"fmt"
	"net/url"
	"strings"

	"foodgram/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Check and print the effective configuration",
	Long:  `Config loads .env and the environment the same way the API server does, validates it and prints the result with secrets masked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		color.Green("✓ Configuration is valid")
		printConfig(cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func printConfig(cfg *config.Config) {
	rows := []struct {
		key   string
		value any
	}{
		{"GO_ENV", cfg.GoEnv},
		{"HTTP_PORT", cfg.HTTPPort},
		{"DATABASE_URL", maskURL(cfg.DatabaseURL)},
		{"JWT_SECRET", strings.Repeat("*", 8)},
		{"ACCESS_TOKEN_TTL", cfg.AccessTokenTTL},
		{"REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL},
		{"REDIS_URL", maskURL(cfg.RedisURL)},
		{"LOG_LEVEL", cfg.LogLevel},
		{"LOG_FORMAT", cfg.LogFormat},
		{"CORS_ORIGINS", strings.Join(cfg.CORSOrigins, ",")},
		{"TRUSTED_PROXIES", strings.Join(cfg.TrustedProxies, ",")},
		{"PUBLIC_BASE_URL", cfg.PublicBaseURL},
		{"SHORT_CODE_LENGTH", cfg.ShortCodeLength},
		{"SHORT_CODE_MAX_ATTEMPTS", cfg.ShortCodeMaxAttempts},
		{"REDIRECT_RATE_LIMIT", cfg.RedirectRateLimit},
		{"REDIRECT_RATE_BURST", cfg.RedirectRateBurst},
		{"SHOPPING_LIST_FILENAME", cfg.ShoppingListFilename},
		{"SHOPPING_LIST_HEADER", cfg.ShoppingListHeader},
	}
	for _, r := range rows {
		fmt.Printf("%-24s %v\n", r.key, r.value)
	}
}

// maskURL hides the password of a connection URL.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}
