package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/budgetguard/techops/internal/api/request"
	"github.com/budgetguard/techops/internal/api/response"
	"github.com/budgetguard/techops/internal/crypto"
	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/vault"
)

// CredentialStore is what the credential handlers need from persistence.
// Only ciphertext crosses this boundary.
type CredentialStore interface {
	Save(ctx context.Context, provider, ciphertext string) error
	LoadAll(ctx context.Context) (map[string]string, error)
	Status(ctx context.Context) (map[string]bool, error)
	Delete(ctx context.Context, provider string) error
}

type Credential struct {
	store CredentialStore
	vault *vault.Vault
}

func NewCredential(store CredentialStore, v *vault.Vault) *Credential {
	return &Credential{store: store, vault: v}
}

// Status reports which providers have stored credentials. Booleans only.
func (h *Credential) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.Status(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, status)
}

// Put stores a provider's credential fields, encrypted at rest under the
// studio passphrase.
func (h *Credential) Put(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if err := validateCredentialProvider(provider); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.PutCredential
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ciphertext, err := h.seal(provider, req.Fields)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.Save(r.Context(), provider, ciphertext); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"provider": provider, "status": "stored"})
}

// Delete removes a provider's stored credentials.
func (h *Credential) Delete(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if err := validateCredentialProvider(provider); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Delete(r.Context(), provider); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bundleResponse carries the distribution artifact, plus the workstation key
// in per-workstation mode. The key is shown once to the operator for
// out-of-band delivery and never stored server-side.
type bundleResponse struct {
	Artifact *vault.Artifact `json:"artifact"`
	Key      string          `json:"key,omitempty"`
}

// Bundle re-encrypts every stored credential set into a single distribution
// artifact in the requested mode.
func (h *Credential) Bundle(w http.ResponseWriter, r *http.Request) {
	var req request.CredentialBundle
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	merged, err := h.openAll(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(merged) == 0 {
		response.WriteError(w, http.StatusBadRequest, "no credentials stored")
		return
	}

	resp := bundleResponse{}
	switch model.DistributionMode(req.Mode) {
	case model.ModeStudioWide:
		resp.Artifact, err = h.vault.EncryptStudioWide(merged)
	case model.ModePerWorkstation:
		var key []byte
		resp.Artifact, key, err = h.vault.EncryptPerWorkstation(merged, req.WorkstationID)
		if err == nil {
			resp.Key = crypto.EncodeKey(key)
		}
	}
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, resp)
}

// seal encrypts a single provider's fields into its at-rest artifact.
func (h *Credential) seal(provider string, fields map[string]string) (string, error) {
	art, err := h.vault.EncryptStudioWide(model.CredentialSet{provider: fields})
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(art)
	if err != nil {
		return "", fmt.Errorf("marshal credential artifact: %w", err)
	}
	return string(payload), nil
}

// openAll decrypts every stored provider bundle and merges them.
func (h *Credential) openAll(ctx context.Context) (model.CredentialSet, error) {
	stored, err := h.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(model.CredentialSet, len(stored))
	for provider, ciphertext := range stored {
		var art vault.Artifact
		if err := json.Unmarshal([]byte(ciphertext), &art); err != nil {
			return nil, fmt.Errorf("parse stored artifact for %s: %w", provider, err)
		}
		cs, err := h.vault.DecryptStudioWide(&art)
		if err != nil {
			return nil, fmt.Errorf("decrypt stored credentials for %s: %w", provider, err)
		}
		for p, fields := range cs {
			merged[p] = fields
		}
	}
	return merged, nil
}

func validateCredentialProvider(provider string) error {
	if provider == model.CredentialProviderNVIDIA {
		return nil
	}
	p, err := model.ParseProvider(provider)
	if err != nil {
		return err
	}
	if p == model.ProviderLocal {
		return fmt.Errorf("the local provider does not take credentials")
	}
	return nil
}
