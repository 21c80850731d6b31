package model

import "time"

// Deployment status constants.
const (
	StatusNotDeployed = "not_deployed"
	StatusPending     = "pending"
	StatusDeployed    = "deployed"
	StatusFailed      = "failed"
)

// DeploymentRecord is the matrix's view of one cell. Exactly one record
// exists per cell; re-deploying overwrites it (history is not retained).
type DeploymentRecord struct {
	Cell         Cell       `json:"cell"`
	Status       string     `json:"status"`
	InstanceName string     `json:"instance_name,omitempty"`
	Endpoint     string     `json:"endpoint,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	DeployedAt   *time.Time `json:"deployed_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
