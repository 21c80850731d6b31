// Package pkgbuilder assembles the file set for a local NIM install
// package: per-node compose descriptors, a merged docker-compose.yml, and
// a manifest. Archiving and image export are left to the external packager.
package pkgbuilder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/budgetguard/techops/internal/model"
)

// basePort is the first host port allocated to a packaged node. 8000 is
// left free because workstations often run a NIM there already.
const basePort = 8001

// ManifestVersion identifies the package layout.
const ManifestVersion = "1.0"

// Manifest describes the contents of an install package.
type Manifest struct {
	Version string            `yaml:"version"`
	Nodes   []string          `yaml:"nodes"`
	Images  map[string]string `yaml:"images"`
	Ports   map[string]int    `yaml:"ports"`
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Image         string        `yaml:"image"`
	ContainerName string        `yaml:"container_name"`
	Ports         []string      `yaml:"ports"`
	Environment   []string      `yaml:"environment"`
	Restart       string        `yaml:"restart"`
	Deploy        composeDeploy `yaml:"deploy"`
}

type composeDeploy struct {
	Resources composeResources `yaml:"resources"`
}

type composeResources struct {
	Reservations composeReservations `yaml:"reservations"`
}

type composeReservations struct {
	Devices []composeDevice `yaml:"devices"`
}

type composeDevice struct {
	Driver       string   `yaml:"driver"`
	Count        int      `yaml:"count"`
	Capabilities []string `yaml:"capabilities"`
}

// Builder produces install-package file sets from the node catalog.
type Builder struct {
	catalog []model.NodeType
	logger  zerolog.Logger
}

// New creates a builder over the given catalog.
func New(catalog []model.NodeType, logger zerolog.Logger) *Builder {
	return &Builder{
		catalog: catalog,
		logger:  logger.With().Str("component", "pkgbuilder").Logger(),
	}
}

// Build writes the package file set for the named node types into dir:
// compose/<node>.yml per node, a merged docker-compose.yml, and
// manifest.yaml. Ports are allocated sequentially from 8001 in input
// order. Returns the manifest describing what was written.
func (b *Builder) Build(dir string, nodeNames []string) (*Manifest, error) {
	if len(nodeNames) == 0 {
		return nil, fmt.Errorf("no node types selected")
	}

	composeDir := filepath.Join(dir, "compose")
	if err := os.MkdirAll(composeDir, 0o755); err != nil {
		return nil, fmt.Errorf("create compose directory: %w", err)
	}

	manifest := &Manifest{
		Version: ManifestVersion,
		Nodes:   nodeNames,
		Images:  make(map[string]string, len(nodeNames)),
		Ports:   make(map[string]int, len(nodeNames)),
	}
	merged := composeFile{Services: make(map[string]composeService, len(nodeNames))}

	port := basePort
	for _, name := range nodeNames {
		nt := model.CatalogLookup(b.catalog, name)
		serviceName := model.SanitizeNodeName(name)

		svc := composeService{
			Image:         nt.Image,
			ContainerName: "budgetguard-" + serviceName,
			Ports:         []string{fmt.Sprintf("%d:8000", port)},
			Environment:   []string{"NIM_MODEL=" + name},
			Restart:       "unless-stopped",
			Deploy: composeDeploy{
				Resources: composeResources{
					Reservations: composeReservations{
						Devices: []composeDevice{{
							Driver:       "nvidia",
							Count:        1,
							Capabilities: []string{"gpu"},
						}},
					},
				},
			},
		}

		path := filepath.Join(composeDir, serviceName+".yml")
		if err := writeYAML(path, composeFile{Services: map[string]composeService{serviceName: svc}}); err != nil {
			return nil, fmt.Errorf("write compose descriptor for %s: %w", name, err)
		}

		merged.Services[serviceName] = svc
		manifest.Images[name] = nt.Image
		manifest.Ports[name] = port
		b.logger.Info().Str("node", name).Str("image", nt.Image).Int("port", port).Msg("node packaged")
		port++
	}

	if err := writeYAML(filepath.Join(dir, "docker-compose.yml"), merged); err != nil {
		return nil, fmt.Errorf("write merged compose file: %w", err)
	}
	if err := writeYAML(filepath.Join(dir, "manifest.yaml"), manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	b.logger.Info().Int("nodes", len(nodeNames)).Str("dir", dir).Msg("install package assembled")
	return manifest, nil
}

func writeYAML(path string, v any) error {
	payload, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
