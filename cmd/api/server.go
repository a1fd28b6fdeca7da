// cmd/api/server.go
// This file contains the serve() method which starts the HTTP server and
// handles graceful shutdown when the run context is cancelled.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 20 * time.Second

// serve builds the HTTP server, starts it in a background goroutine, then
// blocks until ctx is cancelled (SIGINT, SIGTERM, or a failing sibling in
// the errgroup). It then shuts down gracefully: in-flight requests are
// given 20 seconds to complete before the server is forcefully stopped.
func (app *applicationDependencies) serve(ctx context.Context) error {
	// Configure the HTTP server.
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.port),
		Handler:      app.routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	// shutdownErr receives any error returned by Shutdown().
	shutdownErr := make(chan error, 1)

	// Background goroutine: wait for cancellation then gracefully stop.
	go func() {
		<-ctx.Done()
		app.logger.Info("shutting down server", slog.String("cause", context.Cause(ctx).Error()))

		// Active requests must complete within this window or they will be abandoned.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Shutdown stops accepting new connections and waits for active
		// requests to finish, respecting the context deadline.
		shutdownErr <- apiServer.Shutdown(shutdownCtx)
	}()

	// Start the server. ListenAndServe always returns a non-nil error; we
	// treat ErrServerClosed as normal (it means Shutdown was called).
	app.logger.Info("starting server", slog.String("address", apiServer.Addr), slog.String("environment", app.config.environment))

	err := apiServer.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// Wait for the shutdown goroutine to finish and collect its error.
	err = <-shutdownErr
	if err != nil {
		return err
	}

	app.logger.Info("server stopped", slog.String("address", apiServer.Addr))
	return nil
}
