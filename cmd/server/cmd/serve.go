package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/afyalink/health-registry/internal/api"
	"github.com/afyalink/health-registry/internal/api/handler"
	"github.com/afyalink/health-registry/internal/core/ports"
	"github.com/afyalink/health-registry/internal/core/service"
	"github.com/afyalink/health-registry/internal/infrastructure/config"
	"github.com/afyalink/health-registry/internal/infrastructure/db/mongo"
	"github.com/afyalink/health-registry/internal/infrastructure/db/postgres"
	"github.com/afyalink/health-registry/internal/infrastructure/db/redis"
	"github.com/afyalink/health-registry/internal/infrastructure/queue"
	"github.com/afyalink/health-registry/pkg/logger"
)

var serverPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Apply pending database migrations
- Create the bootstrap admin account when no admin exists
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific port with debug logging
  server serve --port 9090 --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverPort, "port", "", "server port (default: PORT or 8000)")
}

// closer releases one resource on shutdown.
type closer struct {
	name string
	fn   func(ctx context.Context) error
}

func runServer() error {
	cfg, err := loadConfig(context.Background())
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverPort != "" {
		cfg.Port = serverPort
	}

	log := initLogger(cfg)
	log.Info().Str("version", Version).Str("env", cfg.Env).Msg("starting health registry")

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var closers []closer
	defer func() {
		// Release in reverse order of acquisition.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].fn(ctx); err != nil {
				log.Error().Err(err).Str("resource", closers[i].name).Msg("shutdown error")
			}
		}
	}()

	db, err := postgres.Open(startCtx, postgres.Config{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	closers = append(closers, closer{"postgres", func(context.Context) error { return db.Close() }})

	if err := postgres.MigrateUp(db); err != nil {
		return err
	}
	log.Info().Msg("database schema up to date")

	pingers := map[string]handler.Pinger{"postgres": postgres.Pinger{DB: db}}

	auditStore, err := buildAuditStore(startCtx, cfg, db, pingers, &closers, log)
	if err != nil {
		return err
	}

	var cache ports.ProfileCache
	if cfg.CacheEnabled() {
		client, err := redis.Connect(startCtx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		closers = append(closers, closer{"redis", func(context.Context) error { return client.Close() }})
		pingers["redis"] = redis.Pinger{Client: client}
		cache = redis.NewProfileCache(client, cfg.Redis.ProfileTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("profile cache enabled")
	}

	recorder := service.NewAuditRecorder(auditStore, logger.Component("audit"))
	authService := service.NewAuthService(
		postgres.NewUserRepository(db),
		recorder,
		cfg.Auth.JWTSecret,
		cfg.Auth.JWTTTL,
		logger.Component("auth"),
		service.WithInitAdmin(cfg.Auth.InitAdminEnabled),
	)
	registryService := service.NewRegistryService(
		postgres.NewStore(db),
		cache,
		recorder,
		service.NewContactHasher(cfg.Auth.ContactHashKey),
		logger.Component("registry"),
	)

	if err := bootstrapAdmin(startCtx, cfg, authService, log); err != nil {
		return err
	}
	if cfg.Auth.InitAdminEnabled {
		log.Warn().Msg("POST /api/init-admin is enabled; set INIT_ADMIN_ENABLED=false once an admin exists")
	}

	router := api.NewRouter(api.Dependencies{
		Auth:     authService,
		Registry: registryService,
		Tables: func(ctx context.Context) ([]string, error) {
			return postgres.Tables(ctx, db)
		},
		Pingers:       pingers,
		Log:           logger.Component("http"),
		AuthRateLimit: cfg.Auth.RateLimit,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	return gracefulShutdown(server, serveErr, log)
}

// buildAuditStore selects the audit backend and, when AUDIT_WORKERS is set,
// wraps it in the asynchronous dispatcher.
func buildAuditStore(ctx context.Context, cfg *config.Config, db *sql.DB, pingers map[string]handler.Pinger, closers *[]closer, log zerolog.Logger) (ports.AuditStore, error) {
	var store ports.AuditStore

	switch cfg.Database.AuditStore {
	case config.AuditStoreMongo:
		client, mdb, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "health-registry",
		})
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, closer{"mongo", client.Disconnect})
		pingers["mongo"] = mongo.Pinger{Client: client}

		repo := mongo.NewAuditRepository(mdb)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		store = repo
	default:
		store = postgres.NewAuditRepository(db)
	}
	log.Info().Str("backend", cfg.Database.AuditStore).Msg("audit store ready")

	if cfg.Database.AuditWorkers > 0 {
		dispatcher := queue.NewAuditDispatcher(cfg.Database.AuditWorkers, store, logger.Component("audit-dispatcher"))
		dispatcher.Start()
		// Drain queued entries before the backing store closes.
		*closers = append(*closers, closer{"audit-dispatcher", dispatcher.Stop})
		return dispatcher, nil
	}
	return store, nil
}

func bootstrapAdmin(ctx context.Context, cfg *config.Config, auth ports.AuthService, log zerolog.Logger) error {
	created, err := auth.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}
	if created && cfg.Auth.BootstrapAdminPassword == "admin123" {
		log.Warn().Str("email", cfg.Auth.BootstrapAdminEmail).Msg("bootstrap admin uses the default password; change it")
	}
	return nil
}

func gracefulShutdown(server *http.Server, serveErr <-chan error, log zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
