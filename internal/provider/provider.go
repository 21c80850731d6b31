// Package provider defines the capability-provider contract the dispatch
// engine deploys through, plus the four implementations: AWS, Azure, GCP
// (thin adapters over their control planes) and local Docker.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/budgetguard/techops/internal/gputier"
	"github.com/budgetguard/techops/internal/model"
)

// DeploySpec is everything a capability provider needs to create one NIM
// instance.
type DeploySpec struct {
	Cell     model.Cell
	NodeType model.NodeType
	Resource gputier.ResourceSpec
}

// Deployment is the provider's handle on a created instance.
type Deployment struct {
	InstanceName string
	Handle       string
	Endpoint     string
}

// Status is the provider-side view of a deployment.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
)

// CapabilityProvider is the single contract the engine depends on. The four
// implementations differ completely underneath it.
type CapabilityProvider interface {
	Name() model.Provider
	Create(ctx context.Context, spec DeploySpec) (*Deployment, error)
	Status(ctx context.Context, handle string) (Status, error)
	Stop(ctx context.Context, handle string) error
	Endpoint(ctx context.Context, handle string) (string, error)
}

// CallError wraps any underlying provider failure. It is recorded as a
// failed cell and surfaced to the operator with the provider's message,
// never silently swallowed.
type CallError struct {
	Provider model.Provider
	Op       string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Registry selects a capability provider by tag.
type Registry struct {
	providers map[model.Provider]CapabilityProvider
}

// NewRegistry builds a registry from the given providers.
func NewRegistry(providers ...CapabilityProvider) *Registry {
	r := &Registry{providers: make(map[model.Provider]CapabilityProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider registered under the tag.
func (r *Registry) Get(name model.Provider) (CapabilityProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("no capability provider registered for %q", name)
	}
	return p, nil
}

// InstanceName builds the deterministic instance name for a deploy attempt:
// {node}-{tier}-{provider}-{timestamp} for cloud cells and
// {node}-local-{timestamp} for local ones. Each attempt gets a fresh
// timestamp; names are never reused across attempts.
func InstanceName(cell model.Cell, now time.Time) string {
	node := model.SanitizeNodeName(cell.NodeType)
	if cell.Provider == model.ProviderLocal {
		return fmt.Sprintf("%s-local-%d", node, now.Unix())
	}
	return fmt.Sprintf("%s-%s-%s-%d", node, cell.GpuTier, cell.Provider, now.Unix())
}
