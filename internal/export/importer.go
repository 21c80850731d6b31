package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/crypto"
	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/vault"
)

// WorkstationConfigName is the file written into the workstation's config
// directory by Install.
const WorkstationConfigName = "budgetguard_backend_config.json"

// InstallOptions selects how a workstation installation decrypts its
// credential artifact.
type InstallOptions struct {
	// Dir is the workstation configuration directory.
	Dir string
	// Mode must match the artifact's mode tag.
	Mode model.DistributionMode
	// WorkstationID identifies this workstation in per-workstation mode.
	WorkstationID string
	// Passphrase re-derives the shared key in studio-wide mode.
	Passphrase string
	// Key is the out-of-band delivered key in per-workstation mode.
	Key []byte
}

// workstationConfig is what Install writes locally. It exists only on the
// workstation itself, past the distribution boundary.
type workstationConfig struct {
	InstalledAt string                                      `json:"installed_at"`
	Mode        string                                      `json:"mode"`
	Endpoints   map[string]map[string][]model.EndpointEntry `json:"endpoints"`
	Credentials model.CredentialSet                         `json:"credentials"`
}

// Install consumes an export document plus a separately delivered credential
// artifact and writes the workstation configuration. Any decryption or mode
// mismatch halts the installation; corrupt credentials are never written.
func Install(doc *model.ExportDocument, art *vault.Artifact, opts InstallOptions) (string, error) {
	creds, err := decryptArtifact(art, opts)
	if err != nil {
		return "", err
	}

	cfg := workstationConfig{
		InstalledAt: time.Now().UTC().Format(time.RFC3339),
		Mode:        art.Mode,
		Endpoints:   doc.NIMEndpoints,
		Credentials: creds,
	}

	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal workstation config: %w", err)
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create workstation config directory: %w", err)
	}
	path := filepath.Join(opts.Dir, WorkstationConfigName)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("write workstation config: %w", err)
	}
	return path, nil
}

func decryptArtifact(art *vault.Artifact, opts InstallOptions) (model.CredentialSet, error) {
	switch opts.Mode {
	case model.ModeStudioWide:
		v := vault.New(opts.Passphrase, zerolog.Nop())
		return v.DecryptStudioWide(art)
	case model.ModePerWorkstation:
		return vault.DecryptPerWorkstation(art, opts.WorkstationID, opts.Key)
	default:
		return nil, fmt.Errorf("unknown distribution mode %q", opts.Mode)
	}
}

// ReadArtifact loads a credential artifact from its own file. It is always
// a separate file from the export document.
func ReadArtifact(path string) (*vault.Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credential artifact: %w", err)
	}
	var art vault.Artifact
	if err := json.Unmarshal(payload, &art); err != nil {
		return nil, fmt.Errorf("parse credential artifact: %w", err)
	}
	return &art, nil
}

// WriteArtifact writes a credential artifact with restricted permissions.
func WriteArtifact(art *vault.Artifact, path string) error {
	payload, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write credential artifact: %w", err)
	}
	return nil
}

// WriteWorkstationKey writes a per-workstation key for out-of-band delivery.
func WriteWorkstationKey(key []byte, path string) error {
	encoded := crypto.EncodeKey(key)
	if err := os.WriteFile(path, []byte(encoded+"\n"), 0o600); err != nil {
		return fmt.Errorf("write workstation key: %w", err)
	}
	return nil
}
