package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const envPrefix = "GRIDLAYOUT"

// Config is the merged result of defaults, the config file and
// GRIDLAYOUT_* environment variables.
type Config struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
	// EventsAddr serves SSE and WebSocket change streams on a plain net/http
	// listener; empty disables it.
	EventsAddr string      `mapstructure:"events_addr"`
	Manifest   string      `mapstructure:"manifest"`
	UndoDepth  int         `mapstructure:"undo_depth"`
	Store      StoreConfig `mapstructure:"store"`
	Log        LogConfig   `mapstructure:"log"`
}

// StoreConfig selects and configures the layout repository.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	DSN        string `mapstructure:"dsn"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	Path       string `mapstructure:"path"`
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	// CacheTTL memoizes reads in serve; zero disables it.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig configures the slog handler and optional rotating file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":9876")
	v.SetDefault("base_path", "/api/layouts")
	v.SetDefault("events_addr", "")
	v.SetDefault("manifest", "")
	v.SetDefault("undo_depth", 20)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.database", "gridlayout")
	v.SetDefault("store.collection", "page_layouts")
	v.SetDefault("store.path", "~/.gridlayout/layouts")
	v.SetDefault("store.url", "")
	v.SetDefault("store.api_key", "")
	v.SetDefault("store.cache_ttl", "0s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", true)
}

// loadConfig reads an explicit file when path is set, otherwise looks for
// .gridlayout.yaml in the working directory and then the home directory.
func loadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return Config{}, err
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName(".gridlayout")
		v.SetConfigType("yaml")
		if override := os.Getenv(envPrefix + "_CONFIG_PATH"); override != "" {
			v.AddConfigPath(override)
		}
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("layoutctl: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("layoutctl: decode config: %w", err)
	}
	return cfg.resolvePaths()
}

func (c Config) resolvePaths() (Config, error) {
	var err error
	if c.Manifest, err = expandPath(c.Manifest); err != nil {
		return c, err
	}
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return c, err
	}
	if c.Log.File, err = expandPath(c.Log.File); err != nil {
		return c, err
	}
	return c, nil
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("layoutctl: expand %s: %w", path, err)
	}
	return filepath.Clean(expanded), nil
}
