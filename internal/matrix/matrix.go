// Package matrix holds the authoritative deployment state: one record per
// (node type, provider, gpu tier) cell, mutated concurrently by dispatch
// workers under per-cell compare-and-swap tokens.
package matrix

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/model"
)

// ErrAlreadyPending is returned by BeginDeploy when a deploy for the same
// cell is already in flight. Duplicate requests are rejected, not queued,
// to avoid racing cloud-side resource creation for the same logical slot.
var ErrAlreadyPending = errors.New("a deployment for this cell is already in flight")

// ErrStaleToken is returned by CompleteDeploy when the completion belongs to
// a superseded attempt. The newer attempt is authoritative; the stale result
// is discarded.
var ErrStaleToken = errors.New("completion token superseded by a newer deploy")

// Token authorizes exactly one completion of the deploy attempt that issued
// it.
type Token string

// Result carries the outcome of one provider call back into the matrix.
type Result struct {
	InstanceName string
	Endpoint     string
	Err          error
}

// Persister is notified after every accepted state transition so records
// survive restarts. Persistence failures are logged and never block a
// transition; in-memory state stays authoritative during a run.
type Persister interface {
	SaveDeployment(ctx context.Context, record model.DeploymentRecord) error
}

type entry struct {
	record model.DeploymentRecord
	token  Token
}

// Matrix is safe for concurrent use. A single mutex guards the cell map;
// every critical section is an O(1) map operation, so unrelated cells never
// wait on each other in any meaningful way.
type Matrix struct {
	mu        sync.Mutex
	cells     map[string]*entry
	persister Persister
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates an empty Matrix. persister may be nil for ephemeral use.
func New(persister Persister, logger zerolog.Logger) *Matrix {
	return &Matrix{
		cells:     make(map[string]*entry),
		persister: persister,
		logger:    logger.With().Str("component", "matrix").Logger(),
		now:       time.Now,
	}
}

// Load seeds the matrix from persisted records. Records still marked pending
// were orphaned by a restart: no token holder can ever complete them, so
// they are demoted to failed with an explanatory reason. Operators reconcile
// by re-querying the capability provider before trusting the cell.
func (m *Matrix) Load(records []model.DeploymentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		rec.Cell = rec.Cell.Normalize()
		if rec.Status == model.StatusPending {
			rec.Status = model.StatusFailed
			rec.LastError = "deployment interrupted by process restart; re-check provider status"
			m.logger.Warn().Str("cell", rec.Cell.String()).Msg("demoted stale pending record to failed")
		}
		m.cells[rec.Cell.Key()] = &entry{record: rec}
	}
}

// Get returns the record for a cell. Cells never deployed report
// StatusNotDeployed; Get never fails.
func (m *Matrix) Get(cell model.Cell) model.DeploymentRecord {
	cell = cell.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.cells[cell.Key()]; ok {
		return e.record
	}
	return model.DeploymentRecord{Cell: cell, Status: model.StatusNotDeployed}
}

// BeginDeploy transitions a cell to pending and issues the token that the
// matching CompleteDeploy must present. At most one deploy per cell may be
// in flight; a second BeginDeploy without an intervening completion returns
// ErrAlreadyPending.
func (m *Matrix) BeginDeploy(ctx context.Context, cell model.Cell) (Token, error) {
	cell = cell.Normalize()

	m.mu.Lock()
	e, ok := m.cells[cell.Key()]
	if ok && e.record.Status == model.StatusPending {
		m.mu.Unlock()
		return "", ErrAlreadyPending
	}

	token := Token(uuid.NewString())
	record := model.DeploymentRecord{
		Cell:      cell,
		Status:    model.StatusPending,
		UpdatedAt: m.now().UTC(),
	}
	m.cells[cell.Key()] = &entry{record: record, token: token}
	m.mu.Unlock()

	m.logger.Info().Str("cell", cell.String()).Msg("deploy started")
	m.persist(ctx, record)
	return token, nil
}

// CompleteDeploy finishes the attempt identified by token, transitioning
// pending -> deployed or pending -> failed. Completions carrying a token
// other than the cell's current one return ErrStaleToken and leave the
// record untouched.
func (m *Matrix) CompleteDeploy(ctx context.Context, cell model.Cell, token Token, result Result) error {
	cell = cell.Normalize()

	m.mu.Lock()
	e, ok := m.cells[cell.Key()]
	if !ok || e.token != token || e.record.Status != model.StatusPending {
		m.mu.Unlock()
		m.logger.Warn().Str("cell", cell.String()).Msg("discarded completion for superseded deploy attempt")
		return ErrStaleToken
	}

	now := m.now().UTC()
	e.record.UpdatedAt = now
	e.record.InstanceName = result.InstanceName
	if result.Err != nil {
		e.record.Status = model.StatusFailed
		e.record.LastError = result.Err.Error()
		e.record.Endpoint = ""
		e.record.DeployedAt = nil
	} else {
		e.record.Status = model.StatusDeployed
		e.record.Endpoint = result.Endpoint
		e.record.LastError = ""
		e.record.DeployedAt = &now
	}
	e.token = ""
	record := e.record
	m.mu.Unlock()

	if result.Err != nil {
		m.logger.Error().Str("cell", cell.String()).Str("error", record.LastError).Msg("deploy failed")
	} else {
		m.logger.Info().Str("cell", cell.String()).Str("endpoint", record.Endpoint).Msg("deploy succeeded")
	}
	m.persist(ctx, record)
	return nil
}

// Snapshot returns a consistent point-in-time copy of every record, sorted
// by cell key so output is stable. The copy is detached from the live map.
func (m *Matrix) Snapshot() []model.DeploymentRecord {
	m.mu.Lock()
	records := make([]model.DeploymentRecord, 0, len(m.cells))
	for _, e := range m.cells {
		records = append(records, e.record)
	}
	m.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Cell.Key() < records[j].Cell.Key()
	})
	return records
}

func (m *Matrix) persist(ctx context.Context, record model.DeploymentRecord) {
	if m.persister == nil {
		return
	}
	if err := m.persister.SaveDeployment(ctx, record); err != nil {
		m.logger.Error().Err(err).Str("cell", record.Cell.String()).Msg("failed to persist deployment record")
	}
}
