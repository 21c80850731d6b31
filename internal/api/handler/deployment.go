package handler

import (
	"net/http"

	"github.com/budgetguard/techops/internal/api/request"
	"github.com/budgetguard/techops/internal/api/response"
	"github.com/budgetguard/techops/internal/dispatch"
)

type Deployment struct {
	engine *dispatch.Engine
}

func NewDeployment(engine *dispatch.Engine) *Deployment {
	return &Deployment{engine: engine}
}

// Create dispatches one deploy batch and returns the full report. Partial
// failure is a normal outcome, so the status is 200 whenever the batch ran;
// callers inspect the report for per-cell results.
func (h *Deployment) Create(w http.ResponseWriter, r *http.Request) {
	var req request.DeployBatch
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cells, tier, err := req.Cells()
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := h.engine.Deploy(r.Context(), cells, tier)
	response.WriteJSON(w, http.StatusOK, report)
}
