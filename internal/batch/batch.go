package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/kestrelhq/ddrgen/internal/logging"
	"github.com/kestrelhq/ddrgen/internal/pipeline"
	"github.com/kestrelhq/ddrgen/internal/report"
	"github.com/kestrelhq/ddrgen/types"
)

// ItemState tracks one manifest entry through the pool.
type ItemState string

const (
	ItemRunning   ItemState = "running"
	ItemSucceeded ItemState = "succeeded"
	ItemFailed    ItemState = "failed"
)

// ItemEvent reports one entry changing state; used to drive progress UIs.
type ItemEvent struct {
	PropertyID string
	State      ItemState
	Message    string
}

// ItemFunc receives item events. Calls are serialized.
type ItemFunc func(ItemEvent)

// ItemResult is the outcome for one manifest entry.
type ItemResult struct {
	PropertyID    string                `json:"propertyId"`
	Status        ItemState             `json:"status"`
	FailedStage   string                `json:"failedStage,omitempty"`
	Error         string                `json:"error,omitempty"`
	ReportPath    string                `json:"reportPath,omitempty"`
	FormattedPath string                `json:"formattedPath,omitempty"`
	Diagnostics   *pipeline.Diagnostics `json:"diagnostics,omitempty"`
	DurationMs    int64                 `json:"durationMs"`

	// Err keeps the original error for callers; the summary file carries
	// only the message.
	Err error `json:"-"`
}

// Summary aggregates one batch run; persisted as batch_summary.json.
type Summary struct {
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	StartedAt  time.Time    `json:"startedAt"`
	DurationMs int64        `json:"durationMs"`
	Results    []ItemResult `json:"results"`
}

// Runner drives the pipeline once per manifest entry.
type Runner struct {
	fs        afero.Fs
	pipe      *pipeline.Pipeline
	outputDir string
	workers   int

	onItem ItemFunc
	itemMu sync.Mutex
	log    *slog.Logger
}

// RunnerOption configures optional Runner behavior.
type RunnerOption func(*Runner)

// WithItemFunc registers a callback for per-entry state changes.
func WithItemFunc(fn ItemFunc) RunnerOption {
	return func(r *Runner) { r.onItem = fn }
}

// NewRunner builds a Runner writing reports under outputDir with at most
// workers entries in flight.
func NewRunner(fs afero.Fs, pipe *pipeline.Pipeline, outputDir string, workers int, opts ...RunnerOption) *Runner {
	if workers < 1 {
		workers = 1
	}
	r := &Runner{
		fs:        fs,
		pipe:      pipe,
		outputDir: outputDir,
		workers:   workers,
		log:       logging.New("batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every manifest entry. Per-entry failures are captured in the
// results, not returned; a non-nil error reports only batch-level problems
// such as cancellation.
func (r *Runner) Run(ctx context.Context, m *Manifest) (*Summary, error) {
	start := time.Now()
	results := make([]ItemResult, len(m.Properties))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, entry := range m.Properties {
		g.Go(func() error {
			r.emit(ItemEvent{PropertyID: entry.PropertyID, State: ItemRunning})
			res := r.runOne(gctx, entry)
			results[i] = res

			msg := res.ReportPath
			if res.Status == ItemFailed {
				msg = res.Error
			}
			r.emit(ItemEvent{PropertyID: entry.PropertyID, State: res.Status, Message: msg})
			return nil // per-entry errors live in the result
		})
	}
	_ = g.Wait()

	summary := &Summary{
		Total:      len(results),
		StartedAt:  start.UTC(),
		DurationMs: time.Since(start).Milliseconds(),
		Results:    results,
	}
	for _, res := range results {
		if res.Status == ItemSucceeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	r.log.Info("batch finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, e Entry) ItemResult {
	start := time.Now()
	item := ItemResult{PropertyID: e.PropertyID}

	runRes, err := r.pipe.Run(ctx, pipeline.Request{
		PropertyID:     e.PropertyID,
		InspectionPath: e.InspectionPath,
		ThermalPath:    e.ThermalPath,
	})
	if err != nil {
		item.Status = ItemFailed
		item.Error = err.Error()
		item.Err = err
		var perr *types.PipelineError
		if errors.As(err, &perr) {
			item.FailedStage = perr.Stage
		}
		item.DurationMs = time.Since(start).Milliseconds()
		return item
	}

	jsonPath, textPath, err := report.WriteFiles(r.fs, r.outputDir, e.PropertyID, runRes.Report)
	if err != nil {
		item.Status = ItemFailed
		item.Error = err.Error()
		item.Err = err
		item.DurationMs = time.Since(start).Milliseconds()
		return item
	}

	item.Status = ItemSucceeded
	item.ReportPath = jsonPath
	item.FormattedPath = textPath
	item.Diagnostics = &runRes.Diagnostics
	item.DurationMs = time.Since(start).Milliseconds()
	return item
}

func (r *Runner) emit(ev ItemEvent) {
	if r.onItem == nil {
		return
	}
	r.itemMu.Lock()
	defer r.itemMu.Unlock()
	r.onItem(ev)
}

// WriteSummary persists the batch summary next to the reports and returns
// its path.
func (r *Runner) WriteSummary(summary *Summary) (string, error) {
	if err := r.fs.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	path := filepath.Join(r.outputDir, "batch_summary.json")
	if err := afero.WriteFile(r.fs, path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
