// Package export builds and distributes the workstation-facing artifacts:
// the endpoint export document (safe to broadcast) and, via the importer,
// the workstation configuration assembled from a separately delivered
// credential artifact. The two are always separate files on separate
// channels; that separation is a hard invariant of the distribution design.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/budgetguard/techops/internal/model"
)

// BuildDocument produces an export document from a matrix snapshot and a
// credential status map. Only deployed cells appear; the document carries
// endpoint URLs and presence booleans, never secrets. It is immutable once
// generated; refreshing means regenerating.
func BuildDocument(records []model.DeploymentRecord, credStatus map[string]bool) *model.ExportDocument {
	doc := &model.ExportDocument{
		Version:      model.ExportDocumentVersion,
		GeneratedAt:  time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		NIMEndpoints: make(map[string]map[string][]model.EndpointEntry),
		// Every credential-bearing provider appears, absent ones as false.
		CredentialsStatus: model.CredentialSet(nil).Status(),
	}

	for _, rec := range records {
		if rec.Status != model.StatusDeployed || rec.Endpoint == "" {
			continue
		}
		node := rec.Cell.NodeType
		provider := string(rec.Cell.Provider)
		if doc.NIMEndpoints[node] == nil {
			doc.NIMEndpoints[node] = make(map[string][]model.EndpointEntry)
		}
		doc.NIMEndpoints[node][provider] = append(doc.NIMEndpoints[node][provider], model.EndpointEntry{
			URL:     rec.Endpoint,
			GpuTier: string(rec.Cell.GpuTier), // empty for local, omitted by the codec
		})
	}

	for provider, present := range credStatus {
		doc.CredentialsStatus[provider] = present
	}

	return doc
}

// WriteFile writes the document as indented JSON, the format workstation
// installers consume.
func WriteFile(doc *model.ExportDocument, path string) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write export document: %w", err)
	}
	return nil
}

// ReadDocument loads an export document from disk.
func ReadDocument(path string) (*model.ExportDocument, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export document: %w", err)
	}
	var doc model.ExportDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("parse export document: %w", err)
	}
	if doc.Version != model.ExportDocumentVersion {
		return nil, fmt.Errorf("unsupported export document version %q", doc.Version)
	}
	return &doc, nil
}
