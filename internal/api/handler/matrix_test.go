package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetguard/techops/internal/matrix"
	"github.com/budgetguard/techops/internal/model"
)

func seededMatrix(t *testing.T) *matrix.Matrix {
	t.Helper()
	now := time.Now().UTC()
	mat := matrix.New(nil, zerolog.Nop())
	mat.Load([]model.DeploymentRecord{
		{
			Cell:       model.Cell{NodeType: "FLUX Dev", Provider: model.ProviderAWS, GpuTier: model.GpuTierA10G},
			Status:     model.StatusDeployed,
			Endpoint:   "https://aws.test/v1",
			DeployedAt: &now,
			UpdatedAt:  now,
		},
	})
	return mat
}

func TestMatrixSnapshot(t *testing.T) {
	h := NewMatrix(seededMatrix(t))
	rec := httptest.NewRecorder()

	h.Snapshot(rec, newRequest(http.MethodGet, "/matrix", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var records []model.DeploymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, model.StatusDeployed, records[0].Status)
}

func TestMatrixGetCell_Deployed(t *testing.T) {
	h := NewMatrix(seededMatrix(t))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/deployments/FLUX%20Dev/aws?tier=a10g", nil)
	r = withChiURLParams(r, map[string]string{"node": "FLUX Dev", "provider": "aws"})

	h.GetCell(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)

	var record model.DeploymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "https://aws.test/v1", record.Endpoint)
}

func TestMatrixGetCell_NeverDeployedIsNotAnError(t *testing.T) {
	h := NewMatrix(seededMatrix(t))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/deployments/SDXL/gcp?tier=t4", nil)
	r = withChiURLParams(r, map[string]string{"node": "SDXL", "provider": "gcp"})

	h.GetCell(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)

	var record model.DeploymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, model.StatusNotDeployed, record.Status)
}

func TestMatrixGetCell_UnknownProvider(t *testing.T) {
	h := NewMatrix(seededMatrix(t))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/deployments/SDXL/ibm", nil)
	r = withChiURLParams(r, map[string]string{"node": "SDXL", "provider": "ibm"})

	h.GetCell(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "unknown provider")
}

func TestMatrixGetCell_UnknownTier(t *testing.T) {
	h := NewMatrix(seededMatrix(t))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/deployments/SDXL/aws?tier=h100", nil)
	r = withChiURLParams(r, map[string]string{"node": "SDXL", "provider": "aws"})

	h.GetCell(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
