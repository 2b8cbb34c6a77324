// Package app assembles the tracker from configuration. The API server and the
// CLI build the same graph so both read and write one local store.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/cache"
	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/remote"
	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/repository"
	"github.com/comitanigiacomo/syllabus-pulse/internal/bundle"
	"github.com/comitanigiacomo/syllabus-pulse/internal/config"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/services"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/workers"
)

// StateRepository is a repository that can also report its health.
type StateRepository interface {
	domain.StateRepository
	Ping(ctx context.Context) error
}

type App struct {
	Config *config.Config
	Bundle *bundle.Bundle
	DB     *sqlx.DB
	Redis  *redis.Client
	Repo   StateRepository
	Remote domain.RemoteStore

	Events   *services.Events
	Store    *services.StateStore
	Tracker  *services.TrackerService
	Sync     *services.SyncService
	Tokens   *services.TokenService
	Auth     *services.AuthService
	Settings *services.SettingsService
	Export   *services.ExportService

	SyncWorker *workers.SyncWorker
}

// New opens the database, runs the migration and wires every service. Redis is
// optional; when it is configured but unreachable the app runs without it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	b := bundle.New(cfg.BundleDir)
	routine, err := b.Routine()
	if err != nil {
		return nil, err
	}

	log.Printf("[APP] opening %s database", cfg.Database.Driver)
	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		Config: cfg,
		Bundle: b,
		DB:     db,
		Events: services.NewEvents(),
	}

	var repo StateRepository = repository.NewSQLStateRepository(db)
	if rdb := cache.Connect(cfg.Redis); rdb != nil {
		a.Redis = rdb
		repo = repository.NewCachedStateRepository(repo, rdb, "pulse")
	}
	a.Repo = repo

	a.Remote, err = newRemote(cfg.Remote)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Store = services.NewStateStore(repo, b)
	a.Tracker = services.NewTrackerService(a.Store, routine, b, a.Events, services.TrackerConfig{
		RotationStart: cfg.Tracker.RotationStart,
		DefaultRange:  cfg.Tracker.DateRange,
		Location:      cfg.Tracker.Location,
	})
	a.Sync = services.NewSyncService(a.Store, a.Remote, a.Events, services.SyncConfig{
		Device:   cfg.Sync.Device,
		Location: cfg.Tracker.Location,
	})
	a.Tracker.SetStatusProvider(a.Sync)

	a.Tokens = services.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.SessionDuration, cfg.JWT.RememberDuration, a.Store)
	a.Auth = services.NewAuthService(a.Store, a.Tokens)
	a.Settings = services.NewSettingsService(a.Store, a.Auth, a.Tracker, b)
	a.Export = services.NewExportService(a.Tracker, a.Store)

	a.SyncWorker = workers.NewSyncWorker(a.Sync, cfg.Sync.AutoSyncDelay)
	a.Sync.SetScheduler(a.SyncWorker)

	return a, nil
}

func newRemote(cfg config.RemoteConfig) (domain.RemoteStore, error) {
	switch cfg.Backend {
	case config.RemoteGist:
		return remote.NewGistStore(cfg.GistAPI, cfg.Timeout), nil
	case config.RemoteCouch:
		return remote.NewCouchStore(cfg.CouchURL, cfg.CouchUser, cfg.CouchDB), nil
	}
	return nil, fmt.Errorf("app: unknown remote backend %q", cfg.Backend)
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("[APP] closing redis: %v", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("[APP] closing database: %v", err)
		}
	}
}
