// Package dispatch executes batch deploy requests against the deployment
// matrix and the capability providers.
package dispatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/budgetguard/techops/internal/gputier"
	"github.com/budgetguard/techops/internal/matrix"
	"github.com/budgetguard/techops/internal/metrics"
	"github.com/budgetguard/techops/internal/model"
	"github.com/budgetguard/techops/internal/provider"
)

// Failure pairs a cell with the reason its deploy failed.
type Failure struct {
	Cell   model.Cell `json:"cell"`
	Reason string     `json:"reason"`
}

// Report summarizes one dispatch batch. It is always producible, even when
// every cell failed, and is the single object front ends render.
type Report struct {
	Succeeded []model.Cell `json:"succeeded"`
	Failed    []Failure    `json:"failed"`
	Skipped   []model.Cell `json:"skipped"`
}

// Engine coordinates batch deploys: it begins each cell on the matrix,
// resolves resource specs, runs provider calls concurrently, and completes
// each cell with its token. Cells are causally independent; one cell's
// failure never aborts its siblings, and the engine performs no automatic
// retries (retry is an explicit operator action).
type Engine struct {
	matrix   *matrix.Matrix
	registry *provider.Registry
	catalog  []model.NodeType
	logger   zerolog.Logger

	// concurrency bounds simultaneous provider calls; 0 means unlimited.
	concurrency int
	// callTimeout, when non-zero, caps each provider call; expiry is
	// recorded as that cell's failure.
	callTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrencyLimit bounds the number of simultaneous provider calls.
func WithConcurrencyLimit(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// WithCallTimeout wraps each provider call with a deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callTimeout = d }
}

// NewEngine creates a dispatch engine.
func NewEngine(m *matrix.Matrix, registry *provider.Registry, catalog []model.NodeType, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		matrix:   m,
		registry: registry,
		catalog:  catalog,
		logger:   logger.With().Str("component", "dispatch").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// accepted is one cell that passed BeginDeploy and is ready to run.
type accepted struct {
	cell  model.Cell
	token matrix.Token
	spec  provider.DeploySpec
	prov  provider.CapabilityProvider
}

// Deploy runs one dispatch batch: the selected cells with the operator's
// tier applied to every cloud cell (local cells ignore it). It blocks until
// every accepted cell has resolved and returns the full report; no partial
// reports are produced mid-batch.
func (e *Engine) Deploy(ctx context.Context, cells []model.Cell, tier model.GpuTier) *Report {
	report := &Report{
		Succeeded: []model.Cell{},
		Failed:    []Failure{},
		Skipped:   []model.Cell{},
	}
	var reportMu sync.Mutex

	var ready []accepted
	for _, cell := range cells {
		if cell.Provider.IsCloud() {
			cell.GpuTier = tier
		}
		cell = cell.Normalize()

		token, err := e.matrix.BeginDeploy(ctx, cell)
		if err != nil {
			// Duplicate in-flight request: skipped and reported, never
			// retried automatically.
			e.logger.Warn().Str("cell", cell.String()).Err(err).Msg("cell skipped")
			report.Skipped = append(report.Skipped, cell)
			metrics.DeploymentsTotal.WithLabelValues(string(cell.Provider), "skipped").Inc()
			continue
		}

		spec, prov, err := e.resolve(cell)
		if err != nil {
			// Resolution failures consume the attempt: complete as failed.
			_ = e.matrix.CompleteDeploy(ctx, cell, token, matrix.Result{Err: err})
			report.Failed = append(report.Failed, Failure{Cell: cell, Reason: err.Error()})
			metrics.DeploymentsTotal.WithLabelValues(string(cell.Provider), "failed").Inc()
			continue
		}

		ready = append(ready, accepted{cell: cell, token: token, spec: spec, prov: prov})
	}

	g, gctx := errgroup.WithContext(ctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}

	for _, a := range ready {
		g.Go(func() error {
			outcome := e.deployOne(gctx, a)

			reportMu.Lock()
			defer reportMu.Unlock()
			if outcome.Err != nil {
				report.Failed = append(report.Failed, Failure{Cell: a.cell, Reason: outcome.Err.Error()})
				metrics.DeploymentsTotal.WithLabelValues(string(a.cell.Provider), "failed").Inc()
			} else {
				report.Succeeded = append(report.Succeeded, a.cell)
				metrics.DeploymentsTotal.WithLabelValues(string(a.cell.Provider), "deployed").Inc()
			}
			// Cells are independent: never propagate an error that would
			// cancel sibling deploys.
			return nil
		})
	}
	_ = g.Wait()

	sortCells(report.Succeeded)
	sortCells(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].Cell.Key() < report.Failed[j].Cell.Key()
	})

	e.logger.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Int("skipped", len(report.Skipped)).
		Msg("dispatch batch finished")
	return report
}

// resolve maps a cell to its deploy spec and capability provider.
func (e *Engine) resolve(cell model.Cell) (provider.DeploySpec, provider.CapabilityProvider, error) {
	resource, err := gputier.Resolve(cell.Provider, cell.GpuTier)
	if err != nil {
		return provider.DeploySpec{}, nil, err
	}
	prov, err := e.registry.Get(cell.Provider)
	if err != nil {
		return provider.DeploySpec{}, nil, err
	}
	spec := provider.DeploySpec{
		Cell:     cell,
		NodeType: model.CatalogLookup(e.catalog, cell.NodeType),
		Resource: resource,
	}
	return spec, prov, nil
}

// deployOne runs a single provider call and records its completion.
func (e *Engine) deployOne(ctx context.Context, a accepted) matrix.Result {
	metrics.DeploymentsInFlight.Inc()
	defer metrics.DeploymentsInFlight.Dec()

	callCtx := ctx
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	start := time.Now()
	dep, err := a.prov.Create(callCtx, a.spec)
	metrics.DeployDuration.WithLabelValues(string(a.cell.Provider)).Observe(time.Since(start).Seconds())

	var result matrix.Result
	if err != nil {
		result = matrix.Result{Err: err}
	} else {
		result = matrix.Result{InstanceName: dep.InstanceName, Endpoint: dep.Endpoint}
	}

	// Completion uses the batch context, not the per-call one: a timed-out
	// call must still be recorded as failed.
	if cerr := e.matrix.CompleteDeploy(ctx, a.cell, a.token, result); cerr != nil {
		e.logger.Warn().Str("cell", a.cell.String()).Err(cerr).Msg("completion discarded")
	}
	return result
}

func sortCells(cells []model.Cell) {
	sort.Slice(cells, func(i, j int) bool { return cells[i].Key() < cells[j].Key() })
}
