package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"clinicgrid/internal/interaction"
)

type Config struct {
	Server struct {
		Address         string `yaml:"address"`
		ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
		WriteTimeoutSec int    `yaml:"write_timeout_sec"`
		APIKey          string `yaml:"api_key"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	// Archive exports each finished month to Path and prunes older days.
	Archive struct {
		Enabled       bool   `yaml:"enabled"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
		ExportOnStart bool   `yaml:"export_on_start"`
	} `yaml:"archive"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	// Client configures the schedule API client used by the grid store.
	Client struct {
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		TimeoutSec      int     `yaml:"timeout_sec"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
		Burst           int     `yaml:"burst"`
		// DisableScopedMove forces read-modify-write moves against APIs
		// without PATCH /api/visits/{id}.
		DisableScopedMove bool `yaml:"disable_scoped_move"`
	} `yaml:"client"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Grid struct {
		LongPressMillis    int     `yaml:"long_press_ms"`
		LongPressThreshold float64 `yaml:"long_press_threshold_px"`
	} `yaml:"grid"`

	ClinicConfigPath string `yaml:"clinic_config_path"`
}

// Load reads the service config. Values of a .env file next to the working
// directory are exported first so ${VAR} placeholders can reference them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/clinicgrid.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Archive.Path == "" {
		c.Archive.Path = "data/archive"
	}
	if c.ClinicConfigPath == "" {
		c.ClinicConfigPath = "configs/clinic.yaml"
	}
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = "http://localhost:8080"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

func (c *Config) ReadTimeout() time.Duration {
	if c.Server.ReadTimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.ReadTimeoutSec) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	if c.Server.WriteTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Server.WriteTimeoutSec) * time.Second
}

func (c *Config) ClientTimeout() time.Duration {
	if c.Client.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Client.TimeoutSec) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Client.CacheTTLSeconds) * time.Second
}

// LongPress returns the touch disambiguation settings; zero values fall
// back to the detector defaults.
func (c *Config) LongPress() interaction.LongPressConfig {
	return interaction.LongPressConfig{
		Delay:         time.Duration(c.Grid.LongPressMillis) * time.Millisecond,
		MoveThreshold: c.Grid.LongPressThreshold,
	}
}
