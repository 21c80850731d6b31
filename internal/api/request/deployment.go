package request

import (
	"fmt"

	"github.com/budgetguard/techops/internal/model"
)

// DeployBatch selects the cells for one dispatch batch: the cross product of
// node types and providers, with one GPU tier applied to every cloud cell.
type DeployBatch struct {
	Nodes     []string `json:"nodes" validate:"required,min=1,dive,required"`
	Providers []string `json:"providers" validate:"required,min=1,dive,provider"`
	GpuTier   string   `json:"gpu_tier" validate:"omitempty,gputier"`
}

// Cells expands the batch into matrix cells. The tier is returned separately
// because the dispatch engine applies it to cloud cells only.
func (b DeployBatch) Cells() ([]model.Cell, model.GpuTier, error) {
	tier, err := model.ParseGpuTier(b.GpuTier)
	if err != nil {
		return nil, "", err
	}

	var cells []model.Cell
	for _, p := range b.Providers {
		provider, err := model.ParseProvider(p)
		if err != nil {
			return nil, "", err
		}
		if provider.IsCloud() && tier == model.GpuTierNone {
			return nil, "", fmt.Errorf("gpu_tier is required when deploying to %s", provider)
		}
		for _, node := range b.Nodes {
			cells = append(cells, model.Cell{NodeType: node, Provider: provider})
		}
	}
	return cells, tier, nil
}
