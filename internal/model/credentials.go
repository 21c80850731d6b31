package model

import "fmt"

// CredentialSet holds per-provider secret bundles keyed by provider
// (lowercase, plus "nvidia-hosted" for the NGC API key). Each bundle is a
// flat map of named secret fields. CredentialSets live unencrypted only
// inside the vault's working memory.
type CredentialSet map[string]map[string]string

// Status reduces the set to presence booleans, the only credential-derived
// data allowed to cross the distribution boundary.
func (cs CredentialSet) Status() map[string]bool {
	status := map[string]bool{
		CredentialProviderNVIDIA: false,
	}
	for _, p := range AllProviders {
		if p == ProviderLocal {
			continue
		}
		status[string(p)] = false
	}
	for provider, fields := range cs {
		status[provider] = len(fields) > 0
	}
	return status
}

// DistributionMode selects how credentials are encrypted for workstations.
type DistributionMode string

const (
	ModeStudioWide     DistributionMode = "studio-wide"
	ModePerWorkstation DistributionMode = "per-workstation"
)

// ParseDistributionMode converts a wire value into a DistributionMode.
func ParseDistributionMode(s string) (DistributionMode, error) {
	switch DistributionMode(s) {
	case ModeStudioWide, ModePerWorkstation:
		return DistributionMode(s), nil
	}
	return "", fmt.Errorf("unknown distribution mode %q", s)
}
