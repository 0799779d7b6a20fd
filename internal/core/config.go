// Package core holds the service configuration shared by the CLI and the
// HTTP server.
package core

import (
	"time"

	"locres/internal/i18n"
)

// Configuration constants.
const (
	DefaultCatalogSource      = "./strings"
	DefaultCatalogLocale      = "en"
	DefaultCacheSize          = 1024
	DefaultServerPort         = 8080
	DefaultReadTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 10 * time.Second
	DefaultRateLimitPerMinute = 120
	DefaultWatchDebounce      = 250 * time.Millisecond
)

type Config struct {
	Catalog CatalogConfig
	Format  FormatConfig
	Server  ServerConfig
	Log     LogConfig
	App     AppConfig
}

// CatalogConfig selects where templates come from. Source is a directory,
// sqlite://path or a postgres:// DSN.
type CatalogConfig struct {
	Source        string
	DefaultLocale string
	Strict        bool
	Watch         bool
	WatchDebounce time.Duration
}

type FormatConfig struct {
	CacheSize int
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	Language string // language of the CLI's own messages
	// RateLimitPerMinute caps resolve requests per client; 0 disables the limit
	RateLimitPerMinute int
}

func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source:        DefaultCatalogSource,
			DefaultLocale: DefaultCatalogLocale,
			WatchDebounce: DefaultWatchDebounce,
		},
		Format: FormatConfig{
			CacheSize: DefaultCacheSize,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         DefaultServerPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language:           i18n.DefaultLanguage,
			RateLimitPerMinute: DefaultRateLimitPerMinute,
		},
	}
}
