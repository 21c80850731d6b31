package request

// PutCredential replaces the stored credential fields for one provider.
type PutCredential struct {
	Fields map[string]string `json:"fields" validate:"required,min=1"`
}

// CredentialBundle requests an encrypted distribution artifact covering
// every stored provider.
type CredentialBundle struct {
	Mode          string `json:"mode" validate:"required,oneof=studio-wide per-workstation"`
	WorkstationID string `json:"workstation_id" validate:"required_if=Mode per-workstation"`
}
