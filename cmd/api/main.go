package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/comitanigiacomo/syllabus-pulse/internal/app"
	"github.com/comitanigiacomo/syllabus-pulse/internal/config"
	"github.com/comitanigiacomo/syllabus-pulse/internal/server"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Critical: Failed to start: %v", err)
	}
	defer a.Close()

	log.Println("Database ready.")

	if err := server.Run(ctx, a); err != nil {
		log.Printf("Critical server error: %v", err)
		a.Close()
		os.Exit(1)
	}
}
