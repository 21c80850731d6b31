package ctl

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/pkgbuilder"
)

// Package assembles a local install package file set for the selected node
// types. It needs no database or provider access.
func Package(nodes []string, dir string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	builder := pkgbuilder.New(model.DefaultCatalog(), logger)
	manifest, err := builder.Build(dir, nodes)
	if err != nil {
		return err
	}

	fmt.Printf("install package assembled in %s\n", dir)
	for _, node := range manifest.Nodes {
		fmt.Printf("  %s -> %s (port %d)\n", node, manifest.Images[node], manifest.Ports[node])
	}
	return nil
}
