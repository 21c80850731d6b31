package store

import (
	"context"
	"fmt"

	"github.com/budgetguard/techops/internal/model"
)

// DeploymentStore persists one row per matrix cell. It implements
// matrix.Persister.
type DeploymentStore struct {
	db DB
}

// NewDeploymentStore creates a DeploymentStore.
func NewDeploymentStore(db DB) *DeploymentStore {
	return &DeploymentStore{db: db}
}

// SaveDeployment upserts the record for its cell. One record per cell;
// prior attempts are overwritten.
func (s *DeploymentStore) SaveDeployment(ctx context.Context, rec model.DeploymentRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO deployment_records (node_type, provider, gpu_tier, status, instance_name, endpoint, last_error, deployed_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (node_type, provider, gpu_tier) DO UPDATE SET
		   status = EXCLUDED.status,
		   instance_name = EXCLUDED.instance_name,
		   endpoint = EXCLUDED.endpoint,
		   last_error = EXCLUDED.last_error,
		   deployed_at = EXCLUDED.deployed_at,
		   updated_at = EXCLUDED.updated_at`,
		rec.Cell.NodeType, string(rec.Cell.Provider), string(rec.Cell.GpuTier),
		rec.Status, rec.InstanceName, rec.Endpoint, rec.LastError, rec.DeployedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save deployment record for %s: %w", rec.Cell, err)
	}
	return nil
}

// List returns every persisted deployment record.
func (s *DeploymentStore) List(ctx context.Context) ([]model.DeploymentRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT node_type, provider, gpu_tier, status, instance_name, endpoint, last_error, deployed_at, updated_at
		 FROM deployment_records ORDER BY node_type, provider, gpu_tier`,
	)
	if err != nil {
		return nil, fmt.Errorf("list deployment records: %w", err)
	}
	defer rows.Close()

	var records []model.DeploymentRecord
	for rows.Next() {
		var rec model.DeploymentRecord
		var providerStr, tierStr string
		if err := rows.Scan(&rec.Cell.NodeType, &providerStr, &tierStr, &rec.Status, &rec.InstanceName, &rec.Endpoint, &rec.LastError, &rec.DeployedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan deployment record: %w", err)
		}
		rec.Cell.Provider = model.Provider(providerStr)
		rec.Cell.GpuTier = model.GpuTier(tierStr)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployment records: %w", err)
	}
	return records, nil
}
