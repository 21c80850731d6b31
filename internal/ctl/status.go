package ctl

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/budgetguard/techops/internal/model"
)

// Status prints every known matrix cell.
func Status(ctx context.Context) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	records := rt.mat.Snapshot()
	if len(records) == 0 {
		fmt.Println("no deployments recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tPROVIDER\tTIER\tSTATUS\tENDPOINT\tERROR")
	for _, rec := range records {
		tier := string(rec.Cell.GpuTier)
		if rec.Cell.Provider == model.ProviderLocal {
			tier = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Cell.NodeType, rec.Cell.Provider, tier, rec.Status, rec.Endpoint, rec.LastError)
	}
	return w.Flush()
}
