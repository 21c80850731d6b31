package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/model"
)

// cloudProvider adapts one cloud control plane to the capability contract.
// It owns instance naming and the fallback endpoint format; everything
// cloud-specific beyond that lives behind the ControlPlane.
type cloudProvider struct {
	name     model.Provider
	region   string
	plane    ControlPlane
	logger   zerolog.Logger
	endpoint func(instanceName, region string) string
	now      func() time.Time
}

func newCloudProvider(name model.Provider, region string, plane ControlPlane, logger zerolog.Logger, endpoint func(instanceName, region string) string) *cloudProvider {
	return &cloudProvider{
		name:     name,
		region:   region,
		plane:    plane,
		logger:   logger.With().Str("component", "provider").Str("provider", string(name)).Logger(),
		endpoint: endpoint,
		now:      time.Now,
	}
}

// NewAWS creates the AWS capability provider (ECS-backed control plane).
// The fallback endpoint format matches the managed NIM ingress.
func NewAWS(region string, plane ControlPlane, logger zerolog.Logger) CapabilityProvider {
	return newCloudProvider(model.ProviderAWS, region, plane, logger, func(instance, region string) string {
		return fmt.Sprintf("https://nim-%s.%s.aws.nim.api.nvidia.com", instance, region)
	})
}

// NewAzure creates the Azure capability provider (AKS-backed control plane).
func NewAzure(region string, plane ControlPlane, logger zerolog.Logger) CapabilityProvider {
	return newCloudProvider(model.ProviderAzure, region, plane, logger, func(instance, region string) string {
		return fmt.Sprintf("http://%s.%s.cloudapp.azure.com:8000", instance, region)
	})
}

// NewGCP creates the GCP capability provider (GKE-backed control plane).
func NewGCP(region string, plane ControlPlane, logger zerolog.Logger) CapabilityProvider {
	return newCloudProvider(model.ProviderGCP, region, plane, logger, func(instance, region string) string {
		return fmt.Sprintf("http://%s.%s.cloudapp.gcp.com:8000", instance, region)
	})
}

func (p *cloudProvider) Name() model.Provider { return p.name }

func (p *cloudProvider) Create(ctx context.Context, spec DeploySpec) (*Deployment, error) {
	instance := InstanceName(spec.Cell, p.now())

	p.logger.Info().
		Str("instance", instance).
		Str("node", spec.NodeType.Name).
		Str("instance_type", spec.Resource.InstanceType).
		Msg("creating cloud deployment")

	state, err := p.plane.CreateService(ctx, ServiceRequest{
		Name:        instance,
		Image:       spec.NodeType.Image,
		Resource:    spec.Resource,
		ScaleToZero: true,
	})
	if err != nil {
		return nil, &CallError{Provider: p.name, Op: "create", Err: err}
	}

	endpoint := state.Endpoint
	if endpoint == "" {
		// Load balancer address not assigned yet; the ingress hostname is
		// deterministic, so hand that out.
		endpoint = p.endpoint(instance, p.region)
	}

	return &Deployment{
		InstanceName: instance,
		Handle:       state.Name,
		Endpoint:     endpoint,
	}, nil
}

func (p *cloudProvider) Status(ctx context.Context, handle string) (Status, error) {
	state, err := p.plane.ServiceStatus(ctx, handle)
	if err != nil {
		return StatusError, &CallError{Provider: p.name, Op: "status", Err: err}
	}
	switch state.State {
	case "running":
		return StatusRunning, nil
	case "pending", "provisioning":
		return StatusPending, nil
	case "stopped":
		return StatusStopped, nil
	default:
		return StatusError, nil
	}
}

func (p *cloudProvider) Stop(ctx context.Context, handle string) error {
	if err := p.plane.StopService(ctx, handle); err != nil {
		return &CallError{Provider: p.name, Op: "stop", Err: err}
	}
	p.logger.Info().Str("instance", handle).Msg("stopped cloud deployment")
	return nil
}

func (p *cloudProvider) Endpoint(ctx context.Context, handle string) (string, error) {
	state, err := p.plane.ServiceStatus(ctx, handle)
	if err != nil {
		return "", &CallError{Provider: p.name, Op: "endpoint", Err: err}
	}
	if state.Endpoint != "" {
		return state.Endpoint, nil
	}
	return p.endpoint(handle, p.region), nil
}
