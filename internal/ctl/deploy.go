package ctl

import (
	"context"
	"fmt"
	"strings"

	"github.com/budgetguard/techops/internal/dispatch"
	"github.com/budgetguard/techops/internal/model"
)

// Deploy dispatches one batch: every (node, provider) combination with the
// given tier applied to cloud cells. Partial failure is a normal outcome;
// the report is printed and only infrastructure errors are returned.
func Deploy(ctx context.Context, nodes, providers []string, tierName string) error {
	tier, err := model.ParseGpuTier(tierName)
	if err != nil {
		return err
	}

	var cells []model.Cell
	for _, p := range providers {
		prov, err := model.ParseProvider(strings.TrimSpace(p))
		if err != nil {
			return err
		}
		if prov.IsCloud() && tier == model.GpuTierNone {
			return fmt.Errorf("-tier is required when deploying to %s", prov)
		}
		for _, node := range nodes {
			cells = append(cells, model.Cell{NodeType: strings.TrimSpace(node), Provider: prov})
		}
	}
	if len(cells) == 0 {
		return fmt.Errorf("nothing to deploy")
	}

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	var opts []dispatch.Option
	if rt.cfg.DispatchConcurrency > 0 {
		opts = append(opts, dispatch.WithConcurrencyLimit(rt.cfg.DispatchConcurrency))
	}
	if rt.cfg.ProviderCallTimeout > 0 {
		opts = append(opts, dispatch.WithCallTimeout(rt.cfg.ProviderCallTimeout))
	}
	engine := dispatch.NewEngine(rt.mat, rt.registry(), model.DefaultCatalog(), rt.logger, opts...)

	report := engine.Deploy(ctx, cells, tier)
	printReport(report)
	return nil
}

func printReport(report *dispatch.Report) {
	for _, cell := range report.Succeeded {
		fmt.Printf("deployed  %s\n", cell)
	}
	for _, f := range report.Failed {
		fmt.Printf("failed    %s: %s\n", f.Cell, f.Reason)
	}
	for _, cell := range report.Skipped {
		fmt.Printf("skipped   %s (already in flight)\n", cell)
	}
	fmt.Printf("\n%d deployed, %d failed, %d skipped\n",
		len(report.Succeeded), len(report.Failed), len(report.Skipped))
}
