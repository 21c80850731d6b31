package handler

import (
	"context"
	"net/http"

	"github.com/budgetguard/techops/internal/api/request"
	"github.com/budgetguard/techops/internal/api/response"
	"github.com/budgetguard/techops/internal/export"
	"github.com/budgetguard/techops/internal/matrix"
	"github.com/budgetguard/techops/internal/model"
)

// Publisher pushes export documents to shared storage.
type Publisher interface {
	Publish(ctx context.Context, doc *model.ExportDocument, key string) error
}

type Export struct {
	mat       *matrix.Matrix
	creds     CredentialStore
	publisher Publisher // nil when S3 publishing is not configured
}

func NewExport(mat *matrix.Matrix, creds CredentialStore, publisher Publisher) *Export {
	return &Export{mat: mat, creds: creds, publisher: publisher}
}

// Create builds the export document from the live matrix and writes it to
// the requested destinations. The document carries endpoint URLs and
// credential presence booleans only; credential material travels separately.
func (h *Export) Create(w http.ResponseWriter, r *http.Request) {
	var req request.Export
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.creds.Status(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	doc := export.BuildDocument(h.mat.Snapshot(), status)

	if req.Path != "" {
		if err := export.WriteFile(doc, req.Path); err != nil {
			response.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.S3Key != "" {
		if h.publisher == nil {
			response.WriteError(w, http.StatusBadRequest, "s3 publishing is not configured")
			return
		}
		if err := h.publisher.Publish(r.Context(), doc, req.S3Key); err != nil {
			response.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	response.WriteJSON(w, http.StatusOK, doc)
}
