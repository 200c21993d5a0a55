package main

import (
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clinicgrid/internal/clinicapi"
	"clinicgrid/internal/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinicgrid",
		Short:        "Clinic schedule grid service",
		Long:         `Serves the clinic schedule API and runs schedule maintenance tasks.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CLINICGRID_CONFIG_PATH"), "path to config.yaml")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(seriesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}

// newClient builds the schedule API client with the optional Redis cache
// and rate limit from cfg. The returned Redis client may be nil.
func newClient(cfg *config.Config) (*clinicapi.Client, *redis.Client) {
	client := clinicapi.NewClient(cfg.Client.BaseURL, cfg.Client.APIKey, cfg.ClientTimeout())
	client.UseRateLimit(cfg.Client.RatePerSecond, cfg.Client.Burst)
	client.SetScopedMove(!cfg.Client.DisableScopedMove)

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}
	return client, rdb
}
