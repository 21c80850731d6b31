// Package vault encrypts credential sets for distribution to workstations.
//
// Two modes exist. Studio-wide derives one symmetric key from the configured
// passphrase with a fixed salt, so every workstation can re-derive the key
// from the passphrase alone with no key-exchange step. The fixed salt is an
// accepted weakness traded for zero-touch distribution. Per-workstation
// encrypts each bundle under its own random key, returned to the caller for
// out-of-band delivery to the matching workstation only.
package vault

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/crypto"
	"github.com/budgetguard/techops/internal/model"
)

// ArtifactVersion is stamped into every credential artifact for forward
// compatibility.
const ArtifactVersion = 1

// studioSalt is deliberately fixed; see the package comment.
var studioSalt = []byte("budgetguard-techops-studio-v1")

// Artifact is the opaque credential blob delivered to installers. It is
// always shipped separately from the export document.
type Artifact struct {
	Version    int       `json:"version"`
	Mode       string    `json:"mode"` // "studio-wide" or "per-workstation:<id>"
	CreatedAt  time.Time `json:"created_at"`
	Ciphertext string    `json:"ciphertext"`
}

// ModeTag builds the artifact mode tag for a mode and optional workstation.
func ModeTag(mode model.DistributionMode, workstationID string) string {
	if mode == model.ModePerWorkstation {
		return string(model.ModePerWorkstation) + ":" + workstationID
	}
	return string(model.ModeStudioWide)
}

// DecryptionError reports a key mismatch, mode mismatch, or corrupted
// artifact. Installers must halt on it rather than proceed with corrupt
// credentials.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential decryption failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("credential decryption failed: %s", e.Reason)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// Vault encrypts and decrypts credential sets. Plaintext credentials exist
// only inside its working memory and the return values of Decrypt calls.
type Vault struct {
	passphrase []byte
	logger     zerolog.Logger
}

// New creates a Vault. The passphrase is only used by studio-wide mode.
func New(passphrase string, logger zerolog.Logger) *Vault {
	return &Vault{
		passphrase: []byte(passphrase),
		logger:     logger.With().Str("component", "vault").Logger(),
	}
}

// studioKey derives the shared studio-wide key.
func (v *Vault) studioKey() ([]byte, error) {
	if len(v.passphrase) == 0 {
		return nil, fmt.Errorf("studio-wide mode requires a configured passphrase")
	}
	return crypto.DeriveKey(v.passphrase, studioSalt), nil
}

// EncryptStudioWide seals a credential set under the shared studio key.
func (v *Vault) EncryptStudioWide(cs model.CredentialSet) (*Artifact, error) {
	key, err := v.studioKey()
	if err != nil {
		return nil, err
	}
	return v.seal(cs, ModeTag(model.ModeStudioWide, ""), key)
}

// EncryptPerWorkstation seals a credential set under a fresh random key and
// returns both. The key never touches disk here; delivering it to the
// matching workstation is the caller's responsibility.
func (v *Vault) EncryptPerWorkstation(cs model.CredentialSet, workstationID string) (*Artifact, []byte, error) {
	if workstationID == "" {
		return nil, nil, fmt.Errorf("per-workstation mode requires a workstation id")
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, nil, err
	}
	art, err := v.seal(cs, ModeTag(model.ModePerWorkstation, workstationID), key)
	if err != nil {
		return nil, nil, err
	}
	return art, key, nil
}

func (v *Vault) seal(cs model.CredentialSet, modeTag string, key []byte) (*Artifact, error) {
	plaintext, err := json.Marshal(cs)
	if err != nil {
		return nil, fmt.Errorf("marshal credential set: %w", err)
	}
	ciphertext, err := crypto.Encrypt(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt credential set: %w", err)
	}
	v.logger.Info().Str("mode", modeTag).Msg("credential artifact sealed")
	return &Artifact{
		Version:    ArtifactVersion,
		Mode:       modeTag,
		CreatedAt:  time.Now().UTC(),
		Ciphertext: ciphertext,
	}, nil
}

// DecryptStudioWide opens a studio-wide artifact with the vault passphrase.
func (v *Vault) DecryptStudioWide(art *Artifact) (model.CredentialSet, error) {
	if art.Mode != string(model.ModeStudioWide) {
		return nil, &DecryptionError{Reason: fmt.Sprintf("artifact mode %q is not studio-wide", art.Mode)}
	}
	key, err := v.studioKey()
	if err != nil {
		return nil, err
	}
	return open(art, key)
}

// DecryptPerWorkstation opens a per-workstation artifact with the key that
// was handed out alongside it. The workstation id must match the artifact's
// mode tag.
func DecryptPerWorkstation(art *Artifact, workstationID string, key []byte) (model.CredentialSet, error) {
	want := ModeTag(model.ModePerWorkstation, workstationID)
	if art.Mode != want {
		return nil, &DecryptionError{Reason: fmt.Sprintf("artifact mode %q does not match workstation %q", art.Mode, workstationID)}
	}
	return open(art, key)
}

func open(art *Artifact, key []byte) (model.CredentialSet, error) {
	if art.Version != ArtifactVersion {
		return nil, &DecryptionError{Reason: fmt.Sprintf("unsupported artifact version %d", art.Version)}
	}
	plaintext, err := crypto.Decrypt(art.Ciphertext, key)
	if err != nil {
		return nil, &DecryptionError{Reason: "key mismatch or corrupted artifact", Err: err}
	}
	var cs model.CredentialSet
	if err := json.Unmarshal(plaintext, &cs); err != nil {
		return nil, &DecryptionError{Reason: "artifact payload is not a credential set", Err: err}
	}
	return cs, nil
}

// ParseModeTag splits an artifact mode tag into mode and workstation id.
func ParseModeTag(tag string) (model.DistributionMode, string, error) {
	if tag == string(model.ModeStudioWide) {
		return model.ModeStudioWide, "", nil
	}
	if rest, ok := strings.CutPrefix(tag, string(model.ModePerWorkstation)+":"); ok && rest != "" {
		return model.ModePerWorkstation, rest, nil
	}
	return "", "", fmt.Errorf("malformed artifact mode tag %q", tag)
}
