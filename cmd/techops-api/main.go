package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/api"
	"github.com/budgetguard/techops/internal/config"
	"github.com/budgetguard/techops/internal/db"
	"github.com/budgetguard/techops/internal/dispatch"
	"github.com/budgetguard/techops/internal/export"
	"github.com/budgetguard/techops/internal/logging"
	"github.com/budgetguard/techops/internal/matrix"
	"github.com/budgetguard/techops/internal/metrics"
	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/provider"
	"github.com/budgetguard/techops/internal/store"
	"github.com/budgetguard/techops/internal/vault"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("techops-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	deployments := store.NewDeploymentStore(pool)
	credentials := store.NewCredentialStore(pool)

	mat := matrix.New(deployments, logger)
	records, err := deployments.List(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load deployment records")
	}
	mat.Load(records)
	logger.Info().Int("records", len(records)).Msg("deployment matrix loaded")

	registry := buildRegistry(cfg, logger)

	var engineOpts []dispatch.Option
	if cfg.DispatchConcurrency > 0 {
		engineOpts = append(engineOpts, dispatch.WithConcurrencyLimit(cfg.DispatchConcurrency))
	}
	if cfg.ProviderCallTimeout > 0 {
		engineOpts = append(engineOpts, dispatch.WithCallTimeout(cfg.ProviderCallTimeout))
	}
	engine := dispatch.NewEngine(mat, registry, model.DefaultCatalog(), logger, engineOpts...)

	deps := api.Deps{
		Matrix:      mat,
		Engine:      engine,
		Vault:       vault.New(cfg.VaultPassphrase, logger),
		Credentials: credentials,
	}
	if cfg.ExportS3Bucket != "" {
		deps.Publisher = export.NewS3Publisher(logger,
			cfg.ExportS3Endpoint, cfg.ExportS3Region,
			cfg.ExportS3AccessKey, cfg.ExportS3SecretKey,
			cfg.ExportS3Bucket)
	}

	srv := api.NewServer(logger, pool, cfg, deps)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // dispatch batches block until every cell resolves
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting techops API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

// buildRegistry wires the local provider plus every cloud provider with a
// configured control-plane bridge.
func buildRegistry(cfg *config.Config, logger zerolog.Logger) *provider.Registry {
	providers := []provider.CapabilityProvider{
		provider.NewLocal(cfg.DockerHost, logger),
	}
	if cfg.AWSControlPlaneURL != "" {
		plane := provider.NewHTTPControlPlane(cfg.AWSControlPlaneURL)
		providers = append(providers, provider.NewAWS(cfg.AWSRegion, plane, logger))
	}
	if cfg.AzureControlPlaneURL != "" {
		plane := provider.NewHTTPControlPlane(cfg.AzureControlPlaneURL)
		providers = append(providers, provider.NewAzure(cfg.AzureRegion, plane, logger))
	}
	if cfg.GCPControlPlaneURL != "" {
		plane := provider.NewHTTPControlPlane(cfg.GCPControlPlaneURL)
		providers = append(providers, provider.NewGCP(cfg.GCPRegion, plane, logger))
	}
	return provider.NewRegistry(providers...)
}
