// Package pipeline sequences extraction, merge, analysis and report assembly
// with bounded retry and fail-closed semantics: a failed run never yields a
// partial report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelhq/ddrgen/internal/docload"
	"github.com/kestrelhq/ddrgen/internal/logging"
	"github.com/kestrelhq/ddrgen/internal/merge"
	"github.com/kestrelhq/ddrgen/internal/report"
	"github.com/kestrelhq/ddrgen/llm"
	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/types"
)

// Request names the two source documents for one property run.
type Request struct {
	PropertyID     string
	InspectionPath string
	ThermalPath    string
}

// Diagnostics is the per-run summary returned alongside the report.
type Diagnostics struct {
	ObservationsInspection int             `json:"observationsInspection"`
	ObservationsThermal    int             `json:"observationsThermal"`
	AreasMerged            int             `json:"areasMerged"`
	ConflictsFound         int             `json:"conflictsFound"`
	DuplicatesRemoved      int             `json:"duplicatesRemoved"`
	Warnings               []types.Warning `json:"warnings,omitempty"`
}

// RunResult is returned only when every stage succeeded.
type RunResult struct {
	PropertyID  string
	Report      *models.DDRReport
	Records     []models.MergedAreaRecord
	Diagnostics Diagnostics
}

// Pipeline drives one run through the stage machine. Safe to reuse across
// runs.
type Pipeline struct {
	docs        *docload.Registry
	extractor   llm.Extractor
	analyzer    llm.Analyzer
	merger      *merge.Engine
	retry       RetryPolicy
	callTimeout time.Duration

	progress   ProgressFunc
	progressMu sync.Mutex
	log        *slog.Logger
}

// Option configures optional pipeline behavior.
type Option func(*Pipeline)

// WithProgress installs a progress listener.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithCallTimeout bounds each individual collaborator attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.callTimeout = d }
}

func New(docs *docload.Registry, extractor llm.Extractor, analyzer llm.Analyzer, merger *merge.Engine, retry RetryPolicy, opts ...Option) *Pipeline {
	p := &Pipeline{
		docs:      docs,
		extractor: extractor,
		analyzer:  analyzer,
		merger:    merger,
		retry:     retry,
		log:       logging.New("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full stage sequence for one property. On any stage
// failure it returns a nil result and a structured error naming the failing
// stage; no partial report is ever handed back.
func (p *Pipeline) Run(ctx context.Context, req Request) (*RunResult, error) {
	p.log.Info("run starting", "property", req.PropertyID,
		"inspection", req.InspectionPath, "thermal", req.ThermalPath)

	// Document loading is fatal per document, never retried.
	p.emit(ProgressEvent{Stage: StageExtractInspection, Status: ProgressWorking, Message: "loading document"})
	inspectionText, err := p.docs.Load(req.InspectionPath)
	if err != nil {
		return nil, p.fail(StageExtractInspection, err)
	}
	p.emit(ProgressEvent{Stage: StageExtractThermal, Status: ProgressWorking, Message: "loading document"})
	thermalText, err := p.docs.Load(req.ThermalPath)
	if err != nil {
		return nil, p.fail(StageExtractThermal, err)
	}

	// Both extractions run concurrently; the first failure cancels the other.
	var inspectionObs, thermalObs []models.Observation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obs, err := p.extract(gctx, StageExtractInspection, inspectionText, models.SourceInspection)
		if err != nil {
			return err
		}
		inspectionObs = obs
		return nil
	})
	g.Go(func() error {
		obs, err := p.extract(gctx, StageExtractThermal, thermalText, models.SourceThermal)
		if err != nil {
			return err
		}
		thermalObs = obs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.emit(ProgressEvent{Stage: StageMerge, Status: ProgressWorking})
	combined := make([]models.Observation, 0, len(inspectionObs)+len(thermalObs))
	combined = append(combined, inspectionObs...)
	combined = append(combined, thermalObs...)
	merged, err := p.merger.Merge(combined)
	if err != nil {
		return nil, p.fail(StageMerge, err)
	}
	p.emit(ProgressEvent{Stage: StageMerge, Status: ProgressComplete,
		Message: fmt.Sprintf("%d areas, %d conflicts", len(merged.Records), merged.ConflictsFound)})

	p.emit(ProgressEvent{Stage: StageAnalyze, Status: ProgressWorking})
	analysis, err := callWithRetry(ctx, p.retry, StageAnalyze, p.emit, p.log,
		func(ctx context.Context) (*models.AnalysisResult, error) {
			ctx, cancel := p.withTimeout(ctx)
			defer cancel()
			result, err := p.analyzer.Analyze(ctx, merged.Records)
			if err != nil {
				return nil, err
			}
			if err := models.ValidateStruct(result); err != nil {
				return nil, types.NewSchemaValidationError(err.Error(), err)
			}
			return result, nil
		})
	if err != nil {
		return nil, p.fail(StageAnalyze, err)
	}
	p.emit(ProgressEvent{Stage: StageAnalyze, Status: ProgressComplete,
		Message: fmt.Sprintf("severity %s", analysis.Severity.Level)})

	p.emit(ProgressEvent{Stage: StageGenerate, Status: ProgressWorking})
	rep, err := report.Assemble(merged.Records, analysis, merged.Warnings)
	if err != nil {
		return nil, p.fail(StageGenerate, err)
	}
	p.emit(ProgressEvent{Stage: StageGenerate, Status: ProgressComplete})

	result := &RunResult{
		PropertyID: req.PropertyID,
		Report:     rep,
		Records:    merged.Records,
		Diagnostics: Diagnostics{
			ObservationsInspection: len(inspectionObs),
			ObservationsThermal:    len(thermalObs),
			AreasMerged:            len(merged.Records),
			ConflictsFound:         merged.ConflictsFound,
			DuplicatesRemoved:      merged.DuplicatesRemoved,
			Warnings:               merged.Warnings,
		},
	}
	p.emit(ProgressEvent{Stage: StageDone, Status: ProgressComplete, Message: "run complete"})
	p.log.Info("run complete", "property", req.PropertyID,
		"areas", result.Diagnostics.AreasMerged,
		"conflicts", result.Diagnostics.ConflictsFound,
		"duplicates_removed", result.Diagnostics.DuplicatesRemoved)
	return result, nil
}

// extract wraps one extraction stage with the retry policy and the envelope
// schema check.
func (p *Pipeline) extract(ctx context.Context, stage Stage, text string, source models.SourceType) ([]models.Observation, error) {
	env, err := callWithRetry(ctx, p.retry, stage, p.emit, p.log,
		func(ctx context.Context) (*models.ExtractionEnvelope, error) {
			ctx, cancel := p.withTimeout(ctx)
			defer cancel()
			env, err := p.extractor.Extract(ctx, text, source)
			if err != nil {
				return nil, err
			}
			if env == nil {
				return nil, types.NewSchemaValidationError("extractor returned no envelope", nil)
			}
			if err := env.Validate(); err != nil {
				return nil, types.NewSchemaValidationError(err.Error(), err)
			}
			return env, nil
		})
	if err != nil {
		p.emit(ProgressEvent{Stage: stage, Status: ProgressFailed, Message: err.Error()})
		p.log.Error("stage failed", "stage", stage.String(), "error", err)
		return nil, err
	}
	obs := env.ToObservations(source)
	p.emit(ProgressEvent{Stage: stage, Status: ProgressComplete,
		Message: fmt.Sprintf("%d observations", len(obs))})
	return obs, nil
}

// fail annotates err with the stage, emits the failure event and logs it.
func (p *Pipeline) fail(stage Stage, err error) error {
	staged := stageError(stage, err)
	p.emit(ProgressEvent{Stage: stage, Status: ProgressFailed, Message: staged.Error()})
	p.log.Error("stage failed", "stage", stage.String(), "error", staged)
	return staged
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout > 0 {
		return context.WithTimeout(ctx, p.callTimeout)
	}
	return ctx, func() {}
}

func (p *Pipeline) emit(ev ProgressEvent) {
	if p.progress == nil {
		return
	}
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	p.progress(ev)
}
