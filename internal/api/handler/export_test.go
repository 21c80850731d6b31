package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetguard/techops/internal/model"
)

type fakePublisher struct {
	docs map[string]*model.ExportDocument
}

func (f *fakePublisher) Publish(_ context.Context, doc *model.ExportDocument, key string) error {
	if f.docs == nil {
		f.docs = make(map[string]*model.ExportDocument)
	}
	f.docs[key] = doc
	return nil
}

func TestExportCreate_WritesFile(t *testing.T) {
	store := newFakeCredentialStore()
	store.data["aws"] = "sealed"
	h := NewExport(seededMatrix(t), store, nil)

	path := filepath.Join(t.TempDir(), "budgetguard_artists_config.json")
	rec := httptest.NewRecorder()

	h.Create(rec, newRequest(http.MethodPost, "/export", map[string]any{"path": path}))

	require.Equal(t, http.StatusOK, rec.Code)

	payload, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc model.ExportDocument
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "https://aws.test/v1", doc.NIMEndpoints["FLUX Dev"]["aws"][0].URL)
	assert.Equal(t, map[string]bool{
		"aws":           true,
		"azure":         false,
		"gcp":           false,
		"nvidia-hosted": false,
	}, doc.CredentialsStatus)
}

func TestExportCreate_PublishesToS3(t *testing.T) {
	pub := &fakePublisher{}
	h := NewExport(seededMatrix(t), newFakeCredentialStore(), pub)

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/export", map[string]any{"s3_key": "exports/latest.json"}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, pub.docs, "exports/latest.json")
}

func TestExportCreate_S3NotConfigured(t *testing.T) {
	h := NewExport(seededMatrix(t), newFakeCredentialStore(), nil)

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/export", map[string]any{"s3_key": "exports/latest.json"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "s3 publishing is not configured")
}

func TestExportCreate_NoDestination(t *testing.T) {
	h := NewExport(seededMatrix(t), newFakeCredentialStore(), nil)

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/export", map[string]any{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCreate_NeverLeaksSecrets(t *testing.T) {
	store := newFakeCredentialStore()
	store.data["aws"] = "sealed-ciphertext-AKIATEST-never-appears-decrypted"
	h := NewExport(seededMatrix(t), store, nil)

	path := filepath.Join(t.TempDir(), "config.json")
	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/export", map[string]any{"path": path}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sealed-ciphertext")
}
