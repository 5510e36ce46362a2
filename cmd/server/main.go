package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Readout/internal/api/routes"
	"Readout/internal/app"
	"Readout/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := app.NewLogger(cfg.LogLevel)
	a, err := app.Build(ctx, cfg, nil, logger)
	if err != nil {
		log.Fatal("Failed to initialize:", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}()

	log.Printf("Connected to %s database, migrations completed", cfg.DatabaseDriver)

	// Validate already rejected a malformed list
	proxies, _ := cfg.Proxies()

	handler, limiter := routes.NewRouter(a.Reader, routes.Options{
		AllowedOrigins:    cfg.Origins(),
		APIToken:          cfg.APIToken,
		TrustedProxies:    proxies,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if limiter != nil {
		go limiter.Cleanup(ctx.Done())
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end on shutdown, which also closes observe streams
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Readout starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Readout stopped")
}
