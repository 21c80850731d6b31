package model

import "fmt"

// Cell addresses one unit of the deployment matrix: a node type on a
// provider at a GPU tier. Local cells always carry GpuTierNone.
type Cell struct {
	NodeType string   `json:"node_type"`
	Provider Provider `json:"provider"`
	GpuTier  GpuTier  `json:"gpu_tier,omitempty"`
}

// Normalize forces the tier invariant: local cells use the none tier.
func (c Cell) Normalize() Cell {
	if c.Provider == ProviderLocal {
		c.GpuTier = GpuTierNone
	}
	return c
}

// Key returns the unique map key for this cell.
func (c Cell) Key() string {
	return fmt.Sprintf("%s|%s|%s", c.NodeType, c.Provider, c.GpuTier)
}

func (c Cell) String() string {
	if c.GpuTier == GpuTierNone {
		return fmt.Sprintf("%s on %s", c.NodeType, c.Provider)
	}
	return fmt.Sprintf("%s on %s (%s)", c.NodeType, c.Provider, c.GpuTier)
}
