// Package gputier maps (provider, GPU tier) pairs to concrete provider
// resource specs. The mapping is a static table of operator-chosen defaults
// so it can be audited and extended without touching dispatch logic.
package gputier

import (
	"fmt"

	"github.com/budgetguard/techops/internal/model"
)

// ResourceSpec is the provider-specific compute shape for one tier.
// InstanceType carries the AWS instance type, Azure VM size, or GCP machine
// type; Accelerator is the attached GPU type where the provider models GPUs
// separately from the machine (GCP).
type ResourceSpec struct {
	Provider     model.Provider `json:"provider"`
	Tier         model.GpuTier  `json:"tier"`
	InstanceType string         `json:"instance_type"`
	Accelerator  string         `json:"accelerator,omitempty"`
	GPUCount     int            `json:"gpu_count"`
}

// UnsupportedTierError reports a (provider, tier) combination with no
// mapping. It indicates a caller bug and is never retryable.
type UnsupportedTierError struct {
	Provider model.Provider
	Tier     model.GpuTier
}

func (e *UnsupportedTierError) Error() string {
	if e.Tier == model.GpuTierNone {
		return fmt.Sprintf("provider %s requires an explicit gpu tier", e.Provider)
	}
	return fmt.Sprintf("gpu tier %s is not supported on provider %s", e.Tier, e.Provider)
}

// specs encodes the full resolution table.
//
// AWS sizes follow the single-GPU-per-node default except a100, which maps
// to the 8x A100 p4d. Azure NC/ND sizes mirror the studio's accepted
// defaults. GCP pairs an N1/A2 machine type with an explicit accelerator.
var specs = map[model.Provider]map[model.GpuTier]ResourceSpec{
	model.ProviderAWS: {
		model.GpuTierT4:   {InstanceType: "g4dn.xlarge", GPUCount: 1},
		model.GpuTierA10G: {InstanceType: "g5.xlarge", GPUCount: 1},
		model.GpuTierA100: {InstanceType: "p4d.24xlarge", GPUCount: 8},
	},
	model.ProviderAzure: {
		model.GpuTierT4:   {InstanceType: "Standard_NC6s_v3", GPUCount: 1},
		model.GpuTierA10G: {InstanceType: "Standard_NC24s_v3", GPUCount: 4},
		model.GpuTierA100: {InstanceType: "Standard_ND96asr_v4", GPUCount: 8},
	},
	model.ProviderGCP: {
		model.GpuTierT4:   {InstanceType: "n1-standard-4", Accelerator: "nvidia-tesla-t4", GPUCount: 1},
		model.GpuTierA10G: {InstanceType: "a2-highgpu-1g", Accelerator: "nvidia-a10", GPUCount: 1},
		model.GpuTierA100: {InstanceType: "a2-highgpu-4g", Accelerator: "nvidia-a100", GPUCount: 4},
	},
	model.ProviderLocal: {
		// Local deployments use whatever GPU the host exposes.
		model.GpuTierNone: {InstanceType: "host", GPUCount: 1},
	},
}

// Resolve returns the resource spec for a provider/tier pair. It is pure
// and total over the documented table; anything outside it yields an
// *UnsupportedTierError.
func Resolve(provider model.Provider, tier model.GpuTier) (ResourceSpec, error) {
	tiers, ok := specs[provider]
	if !ok {
		return ResourceSpec{}, &UnsupportedTierError{Provider: provider, Tier: tier}
	}
	spec, ok := tiers[tier]
	if !ok {
		return ResourceSpec{}, &UnsupportedTierError{Provider: provider, Tier: tier}
	}
	spec.Provider = provider
	spec.Tier = tier
	return spec, nil
}

// Tiers lists the tiers supported by a provider, for front-end collaborators
// rendering tier selectors.
func Tiers(provider model.Provider) []model.GpuTier {
	var tiers []model.GpuTier
	for _, t := range model.CloudGpuTiers {
		if _, ok := specs[provider][t]; ok {
			tiers = append(tiers, t)
		}
	}
	return tiers
}
