package model

import "fmt"

// GpuTier selects a GPU class for cloud deployments. The zero value
// (GpuTierNone) means "host GPU" and is only valid for the local provider;
// it is never rendered to operators or serialized into exports.
type GpuTier string

const (
	GpuTierNone GpuTier = ""
	GpuTierT4   GpuTier = "t4"
	GpuTierA10G GpuTier = "a10g"
	GpuTierA100 GpuTier = "a100"
)

// CloudGpuTiers lists the tiers selectable for cloud providers.
var CloudGpuTiers = []GpuTier{GpuTierT4, GpuTierA10G, GpuTierA100}

// ParseGpuTier converts a wire value into a GpuTier. The empty string parses
// to GpuTierNone.
func ParseGpuTier(s string) (GpuTier, error) {
	switch GpuTier(s) {
	case GpuTierNone, GpuTierT4, GpuTierA10G, GpuTierA100:
		return GpuTier(s), nil
	}
	return "", fmt.Errorf("unknown gpu tier %q", s)
}
