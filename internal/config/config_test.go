package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyDatabaseURL(t *testing.T) {
	// Config loads successfully even without DATABASE_URL set.
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.DatabaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("HTTP_LISTEN_ADDR")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("DISPATCH_CONCURRENCY")
	os.Unsetenv("PROVIDER_CALL_TIMEOUT")
	os.Unsetenv("AWS_REGION")
	os.Unsetenv("AZURE_REGION")
	os.Unsetenv("GCP_REGION")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.DispatchConcurrency)
	assert.Equal(t, time.Duration(0), cfg.ProviderCallTimeout)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, "eastus", cfg.AzureRegion)
	assert.Equal(t, "us-central1", cfg.GCPRegion)
}

func TestLoad_AllEnvVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/techops")
	t.Setenv("HTTP_LISTEN_ADDR", ":7071")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DISPATCH_CONCURRENCY", "4")
	t.Setenv("PROVIDER_CALL_TIMEOUT", "90s")
	t.Setenv("AWS_CONTROL_PLANE_URL", "http://aws-bridge:9000")
	t.Setenv("VAULT_PASSPHRASE", "studio-pass")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://localhost:5432/techops", cfg.DatabaseURL)
	assert.Equal(t, ":7071", cfg.HTTPListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.DispatchConcurrency)
	assert.Equal(t, 90*time.Second, cfg.ProviderCallTimeout)
	assert.Equal(t, "http://aws-bridge:9000", cfg.AWSControlPlaneURL)
	assert.Equal(t, "studio-pass", cfg.VaultPassphrase)
}

func TestLoad_BadConcurrency(t *testing.T) {
	t.Setenv("DISPATCH_CONCURRENCY", "four")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISPATCH_CONCURRENCY")
}

func TestLoad_BadCallTimeout(t *testing.T) {
	t.Setenv("PROVIDER_CALL_TIMEOUT", "ninety seconds")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER_CALL_TIMEOUT")
}

func TestValidate_API_MissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("techops-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "HTTP_LISTEN_ADDR")
}

func TestValidate_Ctl_MissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("techopsctl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_S3_MismatchedKeyPair(t *testing.T) {
	cfg := &Config{
		DatabaseURL:       "postgres://localhost/db",
		HTTPListenAddr:    ":8090",
		ExportS3AccessKey: "AKIATEST",
	}
	err := cfg.Validate("techops-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPORT_S3_ACCESS_KEY and EXPORT_S3_SECRET_KEY must both be set")
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := &Config{
		DatabaseURL:       "postgres://localhost/db",
		HTTPListenAddr:    ":8090",
		ExportS3AccessKey: "AKIATEST",
		ExportS3SecretKey: "shhh",
	}

	assert.NoError(t, cfg.Validate("techops-api"))
	assert.NoError(t, cfg.Validate("techopsctl"))
}
