package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sankeertg21/traffic-wait-timer/internal/api"
	"github.com/sankeertg21/traffic-wait-timer/internal/db"
	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
)

// serve exposes the recorded runs until ctx is cancelled.
func serve(ctx context.Context, dbPath, addr string) error {
	database, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	mux := api.NewServer(database).ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    addr,
		Handler: api.LoggingMiddleware(mux),
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("Serving %s on %s", dbPath, addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		return server.Close()
	}
	return nil
}
