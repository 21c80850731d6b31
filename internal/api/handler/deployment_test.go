package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetguard/techops/internal/dispatch"
	"github.com/budgetguard/techops/internal/matrix"
	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/provider"
)

func newDeploymentHandler(providers ...provider.CapabilityProvider) *Deployment {
	mat := matrix.New(nil, zerolog.Nop())
	registry := provider.NewRegistry(providers...)
	engine := dispatch.NewEngine(mat, registry, model.DefaultCatalog(), zerolog.Nop())
	return NewDeployment(engine)
}

func TestDeploymentCreate_InvalidJSON(t *testing.T) {
	h := newDeploymentHandler()
	rec := httptest.NewRecorder()

	h.Create(rec, newRequestRaw(http.MethodPost, "/deployments", "{bad json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestDeploymentCreate_MissingFields(t *testing.T) {
	h := newDeploymentHandler()
	rec := httptest.NewRecorder()

	h.Create(rec, newRequest(http.MethodPost, "/deployments", map[string]any{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestDeploymentCreate_UnknownProvider(t *testing.T) {
	h := newDeploymentHandler()
	rec := httptest.NewRecorder()

	h.Create(rec, newRequest(http.MethodPost, "/deployments", map[string]any{
		"nodes":     []string{"FLUX Dev"},
		"providers": []string{"ibm"},
		"gpu_tier":  "t4",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeploymentCreate_CloudWithoutTier(t *testing.T) {
	h := newDeploymentHandler(&fakeProvider{name: model.ProviderAWS})
	rec := httptest.NewRecorder()

	h.Create(rec, newRequest(http.MethodPost, "/deployments", map[string]any{
		"nodes":     []string{"FLUX Dev"},
		"providers": []string{"aws"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "gpu_tier is required")
}

func TestDeploymentCreate_BatchSucceeds(t *testing.T) {
	h := newDeploymentHandler(
		&fakeProvider{name: model.ProviderAWS},
		&fakeProvider{name: model.ProviderLocal},
	)
	rec := httptest.NewRecorder()

	h.Create(rec, newRequest(http.MethodPost, "/deployments", map[string]any{
		"nodes":     []string{"FLUX Dev", "SDXL"},
		"providers": []string{"aws", "local"},
		"gpu_tier":  "a10g",
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	var report dispatch.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Succeeded, 4)
	assert.Empty(t, report.Failed)
	assert.Empty(t, report.Skipped)
}

func TestDeploymentCreate_PartialFailureStillReturns200(t *testing.T) {
	h := newDeploymentHandler(
		&fakeProvider{name: model.ProviderAWS},
		&fakeProvider{name: model.ProviderAzure, err: fmt.Errorf("quota exceeded")},
	)
	rec := httptest.NewRecorder()

	h.Create(rec, newRequest(http.MethodPost, "/deployments", map[string]any{
		"nodes":     []string{"FLUX Dev"},
		"providers": []string{"aws", "azure"},
		"gpu_tier":  "t4",
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	var report dispatch.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Succeeded, 1)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Reason, "quota exceeded")
}
