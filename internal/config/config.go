// Package config loads settings from the environment, an optional .env file
// and an optional pulse.yaml, in increasing order of precedence for the
// environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/cache"
	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/repository"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	RemoteGist  = "gist"
	RemoteCouch = "couch"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    cache.Options
	JWT      JWTConfig
	Remote   RemoteConfig
	Tracker  TrackerConfig
	Sync     SyncConfig

	RateLimitPerMinute int
	BundleDir          string
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == repository.DriverSQLite {
		return d.Path
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type JWTConfig struct {
	Secret           string
	Issuer           string
	SessionDuration  time.Duration
	RememberDuration time.Duration
}

type RemoteConfig struct {
	Backend   string
	GistAPI   string
	CouchURL  string
	CouchUser string
	CouchDB   string
	Timeout   time.Duration
}

type TrackerConfig struct {
	Location      *time.Location
	RotationStart time.Time
	DateRange     domain.DateRange
}

type SyncConfig struct {
	AutoSyncDelay time.Duration
	Device        string
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("HOST", "127.0.0.1")
	v.SetDefault("ENV", "development")

	v.SetDefault("DB_DRIVER", repository.DriverSQLite)
	v.SetDefault("DB_PATH", "pulse.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "syllabus_pulse")

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev-secret-change-in-production")
	v.SetDefault("SESSION_DURATION", "12h")
	v.SetDefault("REMEMBER_DURATION", "720h")

	v.SetDefault("REMOTE_BACKEND", RemoteGist)
	v.SetDefault("GIST_API_URL", "https://api.github.com")
	v.SetDefault("COUCH_URL", "http://localhost:5984")
	v.SetDefault("COUCH_USER", "admin")
	v.SetDefault("COUCH_DB", "syllabus_pulse")
	v.SetDefault("REMOTE_TIMEOUT", "15s")

	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("ROTATION_START", "2025-09-15")
	v.SetDefault("RANGE_START", "2025-09-15")
	v.SetDefault("RANGE_END", "2026-09-30")

	v.SetDefault("AUTO_SYNC_DELAY", "2s")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("BUNDLE_DIR", "")
	v.SetDefault("DEVICE_NAME", domain.DeviceDesktop)
}

// Load reads .env (if present), then pulse.yaml from the working directory or
// configDir, then the process environment.
func Load(configDir string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	v.SetConfigName("pulse")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read pulse.yaml: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Host: v.GetString("HOST"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Path:     v.GetString("DB_PATH"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		Redis: cache.Options{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: "syllabus-pulse",
		},
		Remote: RemoteConfig{
			Backend:   strings.ToLower(v.GetString("REMOTE_BACKEND")),
			GistAPI:   v.GetString("GIST_API_URL"),
			CouchURL:  v.GetString("COUCH_URL"),
			CouchUser: v.GetString("COUCH_USER"),
			CouchDB:   v.GetString("COUCH_DB"),
		},
		Sync: SyncConfig{
			Device: v.GetString("DEVICE_NAME"),
		},
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		BundleDir:          v.GetString("BUNDLE_DIR"),
	}

	switch cfg.Database.Driver {
	case repository.DriverSQLite, repository.DriverPgx, repository.DriverPostgres:
	default:
		return nil, fmt.Errorf("config: unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == repository.DriverSQLite && cfg.Database.Path != ":memory:" {
		cfg.Database.Path = filepath.Clean(cfg.Database.Path)
	}

	switch cfg.Remote.Backend {
	case RemoteGist, RemoteCouch:
	default:
		return nil, fmt.Errorf("config: unsupported REMOTE_BACKEND %q", cfg.Remote.Backend)
	}

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_DURATION", &cfg.JWT.SessionDuration},
		{"REMEMBER_DURATION", &cfg.JWT.RememberDuration},
		{"REMOTE_TIMEOUT", &cfg.Remote.Timeout},
		{"AUTO_SYNC_DELAY", &cfg.Sync.AutoSyncDelay},
	}
	for _, d := range durations {
		if *d.dst, err = time.ParseDuration(v.GetString(d.key)); err != nil {
			return nil, fmt.Errorf("config: invalid %s: %w", d.key, err)
		}
	}

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid TIMEZONE: %w", err)
	}
	cfg.Tracker.Location = loc

	dates := []struct {
		key string
		dst *time.Time
	}{
		{"ROTATION_START", &cfg.Tracker.RotationStart},
		{"RANGE_START", &cfg.Tracker.DateRange.Start},
		{"RANGE_END", &cfg.Tracker.DateRange.End},
	}
	for _, d := range dates {
		if *d.dst, err = domain.ParseDate(v.GetString(d.key), loc); err != nil {
			return nil, fmt.Errorf("config: invalid %s: %w", d.key, err)
		}
	}
	if !cfg.Tracker.DateRange.Start.Before(cfg.Tracker.DateRange.End) {
		return nil, fmt.Errorf("config: RANGE_START must be before RANGE_END")
	}

	return cfg, nil
}
