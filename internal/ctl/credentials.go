package ctl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/budgetguard/techops/internal/crypto"
	"github.com/budgetguard/techops/internal/export"
	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/vault"
)

// CredentialsSet stores one provider's credential fields, read from a JSON
// file of {"field name": "value"} pairs so secrets stay out of argv.
func CredentialsSet(ctx context.Context, provider, fieldsFile string) error {
	if provider != model.CredentialProviderNVIDIA {
		p, err := model.ParseProvider(provider)
		if err != nil {
			return err
		}
		if p == model.ProviderLocal {
			return fmt.Errorf("the local provider does not take credentials")
		}
	}

	payload, err := os.ReadFile(fieldsFile)
	if err != nil {
		return fmt.Errorf("read fields file: %w", err)
	}
	var fields map[string]string
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("parse fields file: %w", err)
	}
	if len(fields) == 0 {
		return fmt.Errorf("fields file is empty")
	}

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	art, err := rt.vault.EncryptStudioWide(model.CredentialSet{provider: fields})
	if err != nil {
		return err
	}
	sealed, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("marshal credential artifact: %w", err)
	}
	if err := rt.credentials.Save(ctx, provider, string(sealed)); err != nil {
		return err
	}

	fmt.Printf("credentials stored for %s\n", provider)
	return nil
}

// CredentialsEncrypt bundles every stored credential set into a distribution
// artifact. In per-workstation mode the one-time key is written to keyOut
// for out-of-band delivery; it is never stored server-side.
func CredentialsEncrypt(ctx context.Context, mode, workstationID, artifactOut, keyOut string) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	merged, err := openStoredCredentials(ctx, rt)
	if err != nil {
		return err
	}
	if len(merged) == 0 {
		return fmt.Errorf("no credentials stored")
	}

	var art *vault.Artifact
	switch model.DistributionMode(mode) {
	case model.ModeStudioWide:
		art, err = rt.vault.EncryptStudioWide(merged)
		if err != nil {
			return err
		}
	case model.ModePerWorkstation:
		if workstationID == "" {
			return fmt.Errorf("-workstation is required in per-workstation mode")
		}
		var key []byte
		art, key, err = rt.vault.EncryptPerWorkstation(merged, workstationID)
		if err != nil {
			return err
		}
		if keyOut == "" {
			return fmt.Errorf("-key-out is required in per-workstation mode")
		}
		if err := export.WriteWorkstationKey(key, keyOut); err != nil {
			return err
		}
		fmt.Printf("workstation key written to %s (deliver out of band, never alongside the artifact)\n", keyOut)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	if err := export.WriteArtifact(art, artifactOut); err != nil {
		return err
	}
	fmt.Printf("credential artifact written to %s\n", artifactOut)
	return nil
}

// CredentialsInstall runs the workstation side: it combines an export
// document with a separately delivered credential artifact and writes the
// local configuration. Decryption or mode-tag mismatch halts the install.
func CredentialsInstall(configPath, artifactPath, dir, mode, workstationID, keyFile, passphrase string) error {
	doc, err := export.ReadDocument(configPath)
	if err != nil {
		return err
	}
	art, err := export.ReadArtifact(artifactPath)
	if err != nil {
		return err
	}

	opts := export.InstallOptions{
		Dir:           dir,
		Mode:          model.DistributionMode(mode),
		WorkstationID: workstationID,
		Passphrase:    passphrase,
	}
	if keyFile != "" {
		encoded, err := os.ReadFile(keyFile)
		if err != nil {
			return fmt.Errorf("read key file: %w", err)
		}
		opts.Key, err = crypto.DecodeKey(strings.TrimSpace(string(encoded)))
		if err != nil {
			return err
		}
	}

	path, err := export.Install(doc, art, opts)
	if err != nil {
		return err
	}
	fmt.Printf("workstation configuration installed at %s\n", path)
	return nil
}

// openStoredCredentials decrypts every at-rest provider bundle and merges
// them into one credential set.
func openStoredCredentials(ctx context.Context, rt *runtime) (model.CredentialSet, error) {
	stored, err := rt.credentials.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(model.CredentialSet, len(stored))
	for provider, ciphertext := range stored {
		var art vault.Artifact
		if err := json.Unmarshal([]byte(ciphertext), &art); err != nil {
			return nil, fmt.Errorf("parse stored artifact for %s: %w", provider, err)
		}
		cs, err := rt.vault.DecryptStudioWide(&art)
		if err != nil {
			return nil, fmt.Errorf("decrypt stored credentials for %s: %w", provider, err)
		}
		for p, fields := range cs {
			merged[p] = fields
		}
	}
	return merged, nil
}
