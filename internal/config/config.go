// Package config loads and validates application configuration from a
// yaml file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/fetcher"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/scan"
)

// envPrefix namespaces the environment variables read by viper.
const envPrefix = "PRICEWATCH"

// RefreshConfig holds auto-refresh settings.
type RefreshConfig struct {
	// Enabled turns the cron-driven rescan loop on.
	Enabled bool `yaml:"enabled"`
	// Schedule is a cron expression; empty selects the default.
	Schedule string `yaml:"schedule"`
}

// Config is the root application configuration.
type Config struct {
	App      AppConfig       `yaml:"app"`
	Logger   logger.Config   `yaml:"logger"`
	Database database.Config `yaml:"database"`
	Fetcher  fetcher.Config  `yaml:"fetcher"`
	Scan     scan.Config     `yaml:"scan"`
	Refresh  RefreshConfig   `yaml:"refresh"`
	// DumpDir is where no-match content dumps are written.
	DumpDir string `yaml:"dump_dir"`
	// UseMemoryStore keeps all state in memory instead of PostgreSQL.
	UseMemoryStore bool `yaml:"use_memory_store"`
}

// Load reads configuration from the given file (or the default search
// paths when empty) with environment variable overrides applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	// Struct fields carry yaml tags; tell the decoder to use them.
	tagOption := func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }
	if err := v.Unmarshal(&cfg, tagOption); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app config: %w", err)
	}
	if !c.UseMemoryStore && c.Database.Host == "" {
		return fmt.Errorf("database host must be specified")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pricewatch")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("refresh.enabled", true)
	v.SetDefault("dump_dir", "dumps")
}
