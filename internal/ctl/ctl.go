// Package ctl implements the techopsctl subcommands. Unlike the API server
// the CLI talks to the store and dispatch engine directly, so it works with
// nothing but database access and provider reachability.
package ctl

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/config"
	"github.com/budgetguard/techops/internal/db"
	"github.com/budgetguard/techops/internal/logging"
	"github.com/budgetguard/techops/internal/matrix"
	"github.com/budgetguard/techops/internal/provider"
	"github.com/budgetguard/techops/internal/store"
	"github.com/budgetguard/techops/internal/vault"
)

// runtime bundles the collaborators every subcommand operates on.
type runtime struct {
	cfg         *config.Config
	logger      zerolog.Logger
	pool        *pgxpool.Pool
	deployments *store.DeploymentStore
	credentials *store.CredentialStore
	mat         *matrix.Matrix
	vault       *vault.Vault
}

// setup loads config, connects, and seeds the matrix from persisted records.
func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate("techopsctl"); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	deployments := store.NewDeploymentStore(pool)
	credentials := store.NewCredentialStore(pool)

	mat := matrix.New(deployments, logger)
	records, err := deployments.List(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("load deployment records: %w", err)
	}
	mat.Load(records)

	return &runtime{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		deployments: deployments,
		credentials: credentials,
		mat:         mat,
		vault:       vault.New(cfg.VaultPassphrase, logger),
	}, nil
}

func (rt *runtime) close() {
	rt.pool.Close()
}

// registry wires up every provider the config enables.
func (rt *runtime) registry() *provider.Registry {
	providers := []provider.CapabilityProvider{
		provider.NewLocal(rt.cfg.DockerHost, rt.logger),
	}
	if rt.cfg.AWSControlPlaneURL != "" {
		plane := provider.NewHTTPControlPlane(rt.cfg.AWSControlPlaneURL)
		providers = append(providers, provider.NewAWS(rt.cfg.AWSRegion, plane, rt.logger))
	}
	if rt.cfg.AzureControlPlaneURL != "" {
		plane := provider.NewHTTPControlPlane(rt.cfg.AzureControlPlaneURL)
		providers = append(providers, provider.NewAzure(rt.cfg.AzureRegion, plane, rt.logger))
	}
	if rt.cfg.GCPControlPlaneURL != "" {
		plane := provider.NewHTTPControlPlane(rt.cfg.GCPControlPlaneURL)
		providers = append(providers, provider.NewGCP(rt.cfg.GCPRegion, plane, rt.logger))
	}
	return provider.NewRegistry(providers...)
}
