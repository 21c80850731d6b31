package model

import "fmt"

// Provider identifies one deployment mechanism.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
	ProviderGCP   Provider = "gcp"
	ProviderLocal Provider = "local"
)

// CredentialProviderNVIDIA is not a deployment target; it keys the NVIDIA/NGC
// API key bundle in credential sets and export status maps.
const CredentialProviderNVIDIA = "nvidia-hosted"

// CloudProviders lists the providers that deploy to a cloud control plane.
var CloudProviders = []Provider{ProviderAWS, ProviderAzure, ProviderGCP}

// AllProviders lists every deployment target, local last.
var AllProviders = []Provider{ProviderAWS, ProviderAzure, ProviderGCP, ProviderLocal}

// ParseProvider converts a wire value into a Provider.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderAWS, ProviderAzure, ProviderGCP, ProviderLocal:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// IsCloud reports whether the provider deploys through a cloud control plane.
func (p Provider) IsCloud() bool {
	return p == ProviderAWS || p == ProviderAzure || p == ProviderGCP
}
