package model

// ExportDocumentVersion is the schema version stamped into every export.
const ExportDocumentVersion = "1.0"

// EndpointEntry is one deployed endpoint for a (node, provider) pair.
// GpuTier is omitted for local deployments.
type EndpointEntry struct {
	URL     string `json:"url"`
	GpuTier string `json:"gpu_tier,omitempty"`
}

// ExportDocument is the artifact handed to workstation installers. It
// carries endpoint data and credential-presence booleans only, never
// secrets, and is immutable once generated.
type ExportDocument struct {
	Version           string                               `json:"version"`
	GeneratedAt       string                               `json:"generated_at"`
	NIMEndpoints      map[string]map[string][]EndpointEntry `json:"nim_endpoints"`
	CredentialsStatus map[string]bool                      `json:"credentials_status"`
}
