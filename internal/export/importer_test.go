package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/vault"
)

func testDoc() *model.ExportDocument {
	return BuildDocument([]model.DeploymentRecord{
		deployedRecord("FLUX Dev", model.ProviderAWS, model.GpuTierA10G, "https://x.test/v1"),
	}, map[string]bool{"aws": true})
}

func testCreds() model.CredentialSet {
	return model.CredentialSet{
		"aws":           {"Access Key ID": "AKIATEST", "Secret Access Key": "shhh"},
		"nvidia-hosted": {"API Key": "nvapi-xyz"},
	}
}

func TestInstall_StudioWide(t *testing.T) {
	v := vault.New("studio-pass", zerolog.Nop())
	art, err := v.EncryptStudioWide(testCreds())
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := Install(testDoc(), art, InstallOptions{
		Dir:        dir,
		Mode:       model.ModeStudioWide,
		Passphrase: "studio-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, WorkstationConfigName), path)

	payload, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg workstationConfig
	require.NoError(t, json.Unmarshal(payload, &cfg))
	assert.Equal(t, "studio-wide", cfg.Mode)
	assert.Equal(t, testCreds(), cfg.Credentials)
	assert.Equal(t, "https://x.test/v1", cfg.Endpoints["FLUX Dev"]["aws"][0].URL)
}

func TestInstall_StudioWideWrongPassphraseHalts(t *testing.T) {
	v := vault.New("studio-pass", zerolog.Nop())
	art, err := v.EncryptStudioWide(testCreds())
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = Install(testDoc(), art, InstallOptions{
		Dir:        dir,
		Mode:       model.ModeStudioWide,
		Passphrase: "wrong-pass",
	})
	require.Error(t, err)

	var de *vault.DecryptionError
	require.ErrorAs(t, err, &de)

	// Nothing may be written on failure.
	_, statErr := os.Stat(filepath.Join(dir, WorkstationConfigName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInstall_PerWorkstation(t *testing.T) {
	v := vault.New("", zerolog.Nop())
	art, key, err := v.EncryptPerWorkstation(testCreds(), "artist-03")
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := Install(testDoc(), art, InstallOptions{
		Dir:           dir,
		Mode:          model.ModePerWorkstation,
		WorkstationID: "artist-03",
		Key:           key,
	})
	require.NoError(t, err)

	payload, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg workstationConfig
	require.NoError(t, json.Unmarshal(payload, &cfg))
	assert.Equal(t, "per-workstation:artist-03", cfg.Mode)
}

func TestInstall_PerWorkstationModeMismatchHalts(t *testing.T) {
	v := vault.New("", zerolog.Nop())
	art, key, err := v.EncryptPerWorkstation(testCreds(), "artist-03")
	require.NoError(t, err)

	_, err = Install(testDoc(), art, InstallOptions{
		Dir:           t.TempDir(),
		Mode:          model.ModePerWorkstation,
		WorkstationID: "artist-04",
		Key:           key,
	})
	var de *vault.DecryptionError
	require.ErrorAs(t, err, &de)
}

func TestArtifactRoundTripThroughDisk(t *testing.T) {
	v := vault.New("studio-pass", zerolog.Nop())
	art, err := v.EncryptStudioWide(testCreds())
	require.NoError(t, err)

	dir := t.TempDir()
	artPath := filepath.Join(dir, "credentials.artifact.json")
	require.NoError(t, WriteArtifact(art, artPath))

	loaded, err := ReadArtifact(artPath)
	require.NoError(t, err)

	creds, err := v.DecryptStudioWide(loaded)
	require.NoError(t, err)
	assert.Equal(t, testCreds(), creds)

	// The artifact file never contains plaintext secrets.
	raw, err := os.ReadFile(artPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "AKIATEST")
	assert.NotContains(t, string(raw), "nvapi-xyz")
}
