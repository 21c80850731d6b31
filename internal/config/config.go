package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string

	// DispatchConcurrency caps concurrent provider calls per batch.
	// Zero means unlimited.
	DispatchConcurrency int
	// ProviderCallTimeout bounds a single provider call. Zero disables
	// the per-call deadline.
	ProviderCallTimeout time.Duration

	AWSRegion   string
	AzureRegion string
	GCPRegion   string

	// Control-plane bridge endpoints for the cloud providers. Empty
	// disables the provider.
	AWSControlPlaneURL   string
	AzureControlPlaneURL string
	GCPControlPlaneURL   string

	// DockerHost overrides the docker daemon socket for local deploys.
	DockerHost string

	// VaultPassphrase is the studio-wide credential encryption passphrase.
	VaultPassphrase string

	ExportS3Endpoint  string
	ExportS3Region    string
	ExportS3AccessKey string
	ExportS3SecretKey string
	ExportS3Bucket    string
}

func Load() (*Config, error) {
	concurrency, err := getEnvInt("DISPATCH_CONCURRENCY", 0)
	if err != nil {
		return nil, err
	}
	callTimeout, err := getEnvDuration("PROVIDER_CALL_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		HTTPListenAddr:       getEnv("HTTP_LISTEN_ADDR", ":8090"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		ServiceName:          getEnv("SERVICE_NAME", "techops-api"),
		DispatchConcurrency:  concurrency,
		ProviderCallTimeout:  callTimeout,
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AzureRegion:          getEnv("AZURE_REGION", "eastus"),
		GCPRegion:            getEnv("GCP_REGION", "us-central1"),
		AWSControlPlaneURL:   getEnv("AWS_CONTROL_PLANE_URL", ""),
		AzureControlPlaneURL: getEnv("AZURE_CONTROL_PLANE_URL", ""),
		GCPControlPlaneURL:   getEnv("GCP_CONTROL_PLANE_URL", ""),
		DockerHost:           getEnv("DOCKER_HOST", ""),
		VaultPassphrase:      getEnv("VAULT_PASSPHRASE", ""),
		ExportS3Endpoint:     getEnv("EXPORT_S3_ENDPOINT", ""),
		ExportS3Region:       getEnv("EXPORT_S3_REGION", "us-east-1"),
		ExportS3AccessKey:    getEnv("EXPORT_S3_ACCESS_KEY", ""),
		ExportS3SecretKey:    getEnv("EXPORT_S3_SECRET_KEY", ""),
		ExportS3Bucket:       getEnv("EXPORT_S3_BUCKET", ""),
	}

	return cfg, nil
}

// Validate checks that the fields the named service depends on are set.
func (c *Config) Validate(service string) error {
	var missing []string

	switch service {
	case "techops-api":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
	case "techopsctl":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required configuration: %s", service, strings.Join(missing, ", "))
	}

	if (c.ExportS3AccessKey == "") != (c.ExportS3SecretKey == "") {
		return fmt.Errorf("EXPORT_S3_ACCESS_KEY and EXPORT_S3_SECRET_KEY must both be set or both be empty")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
