// Package main is the entry point for the people API server.
// It wires together configuration, the database connection, the roster
// controller and the HTTP router.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/heptiolabs/healthcheck"
	"github.com/united-manufacturing-hub/umh-utils/env"
	"golang.org/x/sync/errgroup"

	"github.com/aoideee/peopleview/internal/config"
	"github.com/aoideee/peopleview/internal/data"
	"github.com/aoideee/peopleview/internal/database"
	"github.com/aoideee/peopleview/internal/logger"
	"github.com/aoideee/peopleview/internal/roster"
)

// appVersion is the current version of the API, shown in logs.
const appVersion = "1.0.0"

// serverConfig holds all the values that can be tweaked at startup via command-line flags.
type serverConfig struct {
	port        int    // TCP port the HTTP server listens on (default 4000)
	environment string // Runtime environment: development, staging, or production
	configFile  string // Path of the database .properties file
	seed        bool   // Restore the basic data when the table is empty
	limiter     struct {
		rps     float64 // Requests per second allowed per client IP
		burst   int     // Maximum burst per client IP
		enabled bool    // Turns rate limiting on or off
	}
}

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config serverConfig       // Server configuration loaded from flags
	logger *slog.Logger       // Structured logger backed by zap
	roster *roster.Controller // Owns the list of people shown to clients
	health healthcheck.Handler
}

// main is the application entry point.
// It parses flags, opens the database, wires up dependencies, and starts the HTTP server.
func main() {
	var settings serverConfig

	// Register command-line flags so operators can override defaults at runtime.
	flag.IntVar(&settings.port, "port", 4000, "Server port")
	flag.StringVar(&settings.environment, "env", "development", "Environment(development|staging|production)")
	flag.StringVar(&settings.configFile, "config", "configuration.properties", "Database configuration file")
	flag.BoolVar(&settings.seed, "seed", true, "Restore the basic data into an empty table at startup")
	flag.Float64Var(&settings.limiter.rps, "limiter-rps", 2, "Rate limiter maximum requests per second")
	flag.IntVar(&settings.limiter.burst, "limiter-burst", 4, "Rate limiter maximum burst")
	flag.BoolVar(&settings.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")

	flag.Parse()

	logLevel, _ := env.GetAsString("LOGGING_LEVEL", false, "info") //nolint:errcheck
	log := logger.New(settings.environment, logLevel)

	if err := run(settings, log); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

// run opens every dependency in order and blocks until the server and the
// controller loop have stopped.
func run(settings serverConfig, log *slog.Logger) error {
	// A missing or malformed configuration is fatal.
	cfg, err := config.LoadFile(settings.configFile)
	if err != nil {
		return err
	}

	dialect, err := data.DialectFor(cfg.Driver)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open and verify the database connection pool.
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close() // Close the pool cleanly when run() returns.

	log.Info("database connection pool established", slog.String("database", cfg.String()))

	models := data.NewModels(db, dialect, log)
	if err := models.People.EnsureSchema(ctx); err != nil {
		return err
	}
	if settings.seed {
		seeded, err := models.People.Bootstrap(ctx)
		if err != nil {
			return err
		}
		if seeded {
			log.Info("empty table seeded with basic data")
		}
	}

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	health.AddReadinessCheck("database", database.HealthCheck(db))

	// Bundle all shared dependencies into a single struct.
	appInstance := &applicationDependencies{
		config: settings,
		logger: log,
		roster: roster.New(models.People, data.NewSequence(), log),
		health: health,
	}

	log.Info("starting", slog.String("version", appVersion), slog.String("environment", settings.environment))

	g, ctx := errgroup.WithContext(ctx)

	// The loop outlives the signal so requests still draining during the
	// graceful shutdown can complete; it stops once the server has.
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	defer stopLoop()
	g.Go(func() error {
		return appInstance.roster.Run(loopCtx)
	})
	g.Go(func() error {
		// The first load runs alongside startup; a failure is logged by the
		// controller and the list starts empty.
		_, _ = appInstance.roster.Load(ctx).Wait(ctx)
		return nil
	})
	g.Go(func() error {
		defer stopLoop()
		return appInstance.serve(ctx)
	})

	return g.Wait()
}
