// Package server runs the HTTP API together with its background workers.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	adapterHTTP "github.com/comitanigiacomo/syllabus-pulse/internal/adapters/handler/http"
	"github.com/comitanigiacomo/syllabus-pulse/internal/adapters/realtime"
	"github.com/comitanigiacomo/syllabus-pulse/internal/app"
	"github.com/comitanigiacomo/syllabus-pulse/internal/core/workers"
)

// Handler builds the gin engine for a, with the websocket hub attached.
func Handler(a *app.App, hub *realtime.Hub, startTime time.Time) *gin.Engine {
	if a.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	return adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(a.Auth, a.Settings),
		TrackerHandler:  adapterHTTP.NewTrackerHandler(a.Tracker, a.Export),
		SyncHandler:     adapterHTTP.NewSyncHandler(a.Sync),
		SettingsHandler: adapterHTTP.NewSettingsHandler(a.Settings, a.Auth, a.Tracker),
		Realtime:        realtime.NewHandler(hub),
		TokenService:    a.Tokens,
		Store:           a.Repo,
		Redis:           a.Redis,
		RateLimit:       a.Config.RateLimitPerMinute,
		StartTime:       startTime,
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, a *app.App) error {
	startTime := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := realtime.NewHub()
	go hub.Run(ctx)
	a.Events.Subscribe(hub.Publish)

	a.SyncWorker.Start(ctx)
	workers.NewClockWorker(a.Tracker, a.Events, time.Minute).Start(ctx)

	go a.Sync.PullOnStartup(ctx)

	srv := &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      Handler(a, hub, startTime),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Syllabus Pulse running on http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Println("Server stopped gracefully.")
	return nil
}
