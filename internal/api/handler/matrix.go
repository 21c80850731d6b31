package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/budgetguard/techops/internal/api/response"
	"github.com/budgetguard/techops/internal/matrix"
	"github.com/budgetguard/techops/internal/model"
)

type Matrix struct {
	mat *matrix.Matrix
}

func NewMatrix(mat *matrix.Matrix) *Matrix {
	return &Matrix{mat: mat}
}

// Snapshot returns the full deployment matrix, sorted by cell key.
func (h *Matrix) Snapshot(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.mat.Snapshot())
}

// GetCell returns one cell's record. Cells never deployed report
// not_deployed rather than 404.
func (h *Matrix) GetCell(w http.ResponseWriter, r *http.Request) {
	provider, err := model.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	tier, err := model.ParseGpuTier(r.URL.Query().Get("tier"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cell := model.Cell{
		NodeType: chi.URLParam(r, "node"),
		Provider: provider,
		GpuTier:  tier,
	}
	response.WriteJSON(w, http.StatusOK, h.mat.Get(cell))
}
