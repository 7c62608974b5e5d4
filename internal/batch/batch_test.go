package batch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/ddrgen/internal/docload"
	"github.com/kestrelhq/ddrgen/internal/merge"
	"github.com/kestrelhq/ddrgen/internal/pipeline"
	"github.com/kestrelhq/ddrgen/llm"
	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/types"
)

func temp(s string) *string { return &s }

// newTestHarness wires a runner over an in-memory filesystem holding the
// documents for two properties.
func newTestHarness(t *testing.T, opts ...RunnerOption) (afero.Fs, *Runner) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, path := range []string{
		"docs/p1_inspection.txt", "docs/p1_thermal.txt",
		"docs/p2_inspection.txt", "docs/p2_thermal.txt",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte("document body"), 0o644))
	}

	extractor := &llm.StaticExtractor{
		BySource: map[models.SourceType]*models.ExtractionEnvelope{
			models.SourceInspection: {Observations: []models.RawObservation{
				{Area: "Bathroom", Description: "Damp patch behind the shower wall", Temperature: temp("20°C")},
			}},
			models.SourceThermal: {Observations: []models.RawObservation{
				{Area: "bathroom", Description: "Thermal anomaly on the shower wall", Temperature: temp("35°C")},
			}},
		},
	}
	analyzer := &llm.StaticAnalyzer{
		Result: &models.AnalysisResult{
			Summary:   "Moisture ingress concentrated around the bathroom.",
			RootCause: "Failed shower waterproofing",
			Severity: models.Severity{
				Level:     models.SeverityMedium,
				Reasoning: "Active ingress, no structural damage yet",
			},
			RecommendedActions: []string{"Open the wall and replace the membrane"},
		},
	}

	engine := merge.NewEngine(merge.Config{
		AreaSimilarityThreshold: 0.80,
		DedupThreshold:          0.85,
		TemperatureToleranceC:   5.0,
	})
	policy := pipeline.RetryPolicy{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
	pipe := pipeline.New(docload.NewRegistry(fs), extractor, analyzer, engine, policy)

	return fs, NewRunner(fs, pipe, "out", 2, opts...)
}

func twoPropertyManifest() *Manifest {
	return &Manifest{Properties: []Entry{
		{PropertyID: "P1", InspectionPath: "docs/p1_inspection.txt", ThermalPath: "docs/p1_thermal.txt"},
		{PropertyID: "P2", InspectionPath: "docs/p2_inspection.txt", ThermalPath: "docs/p2_thermal.txt"},
	}}
}

func TestRunner_AllEntriesSucceed(t *testing.T) {
	fs, runner := newTestHarness(t)

	summary, err := runner.Run(context.Background(), twoPropertyManifest())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	// Results keep manifest order regardless of completion order.
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "P1", summary.Results[0].PropertyID)
	assert.Equal(t, "P2", summary.Results[1].PropertyID)

	for _, res := range summary.Results {
		assert.Equal(t, ItemSucceeded, res.Status)
		require.NotNil(t, res.Diagnostics)
		assert.Equal(t, 1, res.Diagnostics.AreasMerged)

		exists, err := afero.Exists(fs, res.ReportPath)
		require.NoError(t, err)
		assert.True(t, exists, "report file %s should exist", res.ReportPath)
		exists, err = afero.Exists(fs, res.FormattedPath)
		require.NoError(t, err)
		assert.True(t, exists, "formatted file %s should exist", res.FormattedPath)
	}
}

func TestRunner_IsolatesEntryFailures(t *testing.T) {
	fs, runner := newTestHarness(t)

	m := twoPropertyManifest()
	m.Properties[1].ThermalPath = "docs/missing.txt"

	summary, err := runner.Run(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	good, bad := summary.Results[0], summary.Results[1]
	assert.Equal(t, ItemSucceeded, good.Status)

	assert.Equal(t, ItemFailed, bad.Status)
	assert.Equal(t, "ExtractThermal", bad.FailedStage)
	assert.NotEmpty(t, bad.Error)
	var perr *types.PipelineError
	require.ErrorAs(t, bad.Err, &perr)
	assert.Equal(t, types.ErrCodeDocumentLoad, perr.Code)

	// The failed entry leaves no report behind.
	exists, err := afero.Exists(fs, "out/ddr_P2.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunner_EmitsItemEvents(t *testing.T) {
	var mu sync.Mutex
	var events []ItemEvent
	_, runner := newTestHarness(t, WithItemFunc(func(ev ItemEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}))

	_, err := runner.Run(context.Background(), twoPropertyManifest())
	require.NoError(t, err)

	perProperty := make(map[string][]ItemState)
	for _, ev := range events {
		perProperty[ev.PropertyID] = append(perProperty[ev.PropertyID], ev.State)
	}
	for _, id := range []string{"P1", "P2"} {
		require.Len(t, perProperty[id], 2, "property %s should emit start and finish", id)
		assert.Equal(t, ItemRunning, perProperty[id][0])
		assert.Equal(t, ItemSucceeded, perProperty[id][1])
	}
}

func TestRunner_WriteSummary(t *testing.T) {
	fs, runner := newTestHarness(t)

	summary, err := runner.Run(context.Background(), twoPropertyManifest())
	require.NoError(t, err)

	path, err := runner.WriteSummary(summary)
	require.NoError(t, err)
	assert.Equal(t, "out/batch_summary.json", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	var roundTrip Summary
	require.NoError(t, json.Unmarshal(data, &roundTrip))
	assert.Equal(t, summary.Succeeded, roundTrip.Succeeded)
	assert.Len(t, roundTrip.Results, 2)
}

func TestRunner_CancelledContextSurfaces(t *testing.T) {
	_, runner := newTestHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := runner.Run(ctx, twoPropertyManifest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Failed)
}
