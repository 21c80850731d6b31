package store

import (
	"context"
	"fmt"
	"time"
)

// CredentialStore persists per-provider credential bundles as ciphertext.
// Plaintext never reaches this layer; the vault encrypts before storage.
type CredentialStore struct {
	db DB
}

// NewCredentialStore creates a CredentialStore.
func NewCredentialStore(db DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Save stores the encrypted bundle for a provider, replacing any prior one.
func (s *CredentialStore) Save(ctx context.Context, provider, ciphertext string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO credential_sets (provider, ciphertext, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (provider) DO UPDATE SET
		   ciphertext = EXCLUDED.ciphertext,
		   updated_at = EXCLUDED.updated_at`,
		provider, ciphertext, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save credentials for %s: %w", provider, err)
	}
	return nil
}

// LoadAll returns every stored ciphertext keyed by provider.
func (s *CredentialStore) LoadAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `SELECT provider, ciphertext FROM credential_sets`)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var provider, ciphertext string
		if err := rows.Scan(&provider, &ciphertext); err != nil {
			return nil, fmt.Errorf("scan credential row: %w", err)
		}
		out[provider] = ciphertext
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential rows: %w", err)
	}
	return out, nil
}

// Status reports which providers have stored credentials. Booleans only;
// this is the sole credential-derived data allowed past the distribution
// boundary.
func (s *CredentialStore) Status(ctx context.Context) (map[string]bool, error) {
	stored, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	status := make(map[string]bool, len(stored))
	for provider := range stored {
		status[provider] = true
	}
	return status, nil
}

// Delete removes a provider's stored credentials.
func (s *CredentialStore) Delete(ctx context.Context, provider string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM credential_sets WHERE provider = $1`, provider)
	if err != nil {
		return fmt.Errorf("delete credentials for %s: %w", provider, err)
	}
	return nil
}
