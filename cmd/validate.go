/*
Copyright © 2025 Kestrel Systems Inc.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kestrelhq/ddrgen/internal/docload"
	"github.com/kestrelhq/ddrgen/internal/merge"
	"github.com/kestrelhq/ddrgen/internal/pipeline"
	"github.com/kestrelhq/ddrgen/internal/report"
	"github.com/kestrelhq/ddrgen/internal/ui"
	"github.com/kestrelhq/ddrgen/llm"
	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/types"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the built-in acceptance scenarios against deterministic stubs.",
	Long: `Exercises the merge and report machinery end to end with canned extractor
and analyzer outputs: no network, no configuration needed. Checks missing-data
handling, temperature conflict detection, severity reasoning, the seven-section
report structure and that no observation is invented along the way.

Useful as a smoke test after upgrading ddrgen or editing prompt overrides.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		failed := 0
		for _, sc := range builtinScenarios() {
			err := sc.run(cmd.Context())
			if err != nil {
				failed++
				fmt.Printf(" %s %s\n", ui.StyleError.Render("✗"), sc.name)
				fmt.Printf("   %s\n", ui.StyleSubtle.Render(err.Error()))
				continue
			}
			fmt.Printf(" %s %s\n", ui.StyleSuccess.Render("✓"), sc.name)
		}

		if failed > 0 {
			fmt.Println()
			HandleError(fmt.Sprintf("%d scenario(s) failed.", failed), nil)
		}
		fmt.Println()
		fmt.Println(ui.StyleSuccess.Render("All scenarios passed."))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// scenario is one self-contained acceptance check.
type scenario struct {
	name string
	run  func(ctx context.Context) error
}

func builtinScenarios() []scenario {
	return []scenario{
		{"missing data renders Not Available and is reported", scenarioMissingData},
		{"temperature conflict is flagged once with both readings", scenarioConflictDetection},
		{"severity level carries its reasoning", scenarioSeverityReasoning},
		{"formatted report has all seven sections", scenarioSevenSections},
		{"no observation or action is invented", scenarioNoInvention},
		{"analyzer failure fails the run without a report", scenarioFailClosed},
	}
}

func strPtr(s string) *string { return &s }

// scenarioPipeline wires a pipeline over an in-memory filesystem and the
// given stubs, mirroring the production wiring with default thresholds.
func scenarioPipeline(extractor llm.Extractor, analyzer llm.Analyzer) *pipeline.Pipeline {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "inspection.txt", []byte("inspection notes"), 0o644)
	_ = afero.WriteFile(fs, "thermal.txt", []byte("thermal notes"), 0o644)

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
	return pipeline.New(docload.NewRegistry(fs), extractor, analyzer, engine, policy)
}

func scenarioRequest() pipeline.Request {
	return pipeline.Request{
		PropertyID:     "VALIDATE",
		InspectionPath: "inspection.txt",
		ThermalPath:    "thermal.txt",
	}
}

func scenarioAnalyzer() *llm.StaticAnalyzer {
	return &llm.StaticAnalyzer{
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
}

func scenarioMissingData(ctx context.Context) error {
	extractor := &llm.StaticExtractor{
		BySource: map[models.SourceType]*models.ExtractionEnvelope{
			models.SourceInspection: {Observations: []models.RawObservation{
				{Area: "Kitchen", Description: "Sealant gap around the sink"},
			}},
			models.SourceThermal: {Observations: []models.RawObservation{}},
		},
	}

	res, err := scenarioPipeline(extractor, scenarioAnalyzer()).Run(ctx, scenarioRequest())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	if n := len(res.Report.AreaObservations); n != 1 {
		return fmt.Errorf("expected 1 area entry, got %d", n)
	}
	if got := res.Report.AreaObservations[0].Temperature; got != "Not Available" {
		return fmt.Errorf("expected temperature %q, got %q", "Not Available", got)
	}
	if !containsString(res.Report.MissingInformation, "Kitchen: No thermal data available") {
		return fmt.Errorf("missing-information section does not flag the absent thermal data: %v", res.Report.MissingInformation)
	}
	if !strings.Contains(report.Render(res.Report), "Not Available") {
		return errors.New("formatted report does not render the Not Available fallback")
	}
	return nil
}

func scenarioConflictDetection(ctx context.Context) error {
	extractor := &llm.StaticExtractor{
		BySource: map[models.SourceType]*models.ExtractionEnvelope{
			models.SourceInspection: {Observations: []models.RawObservation{
				{Area: "Bathroom", Description: "Damp patch behind the shower wall", Temperature: strPtr("20°C")},
			}},
			models.SourceThermal: {Observations: []models.RawObservation{
				{Area: "bathroom", Description: "Thermal anomaly on the shower wall", Temperature: strPtr("35°C")},
			}},
		},
	}

	res, err := scenarioPipeline(extractor, scenarioAnalyzer()).Run(ctx, scenarioRequest())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	if res.Diagnostics.ConflictsFound != 1 {
		return fmt.Errorf("expected exactly 1 conflict, got %d", res.Diagnostics.ConflictsFound)
	}
	notes := res.Report.AreaObservations[0].Notes
	for _, want := range []string{"20°C", "35°C", "Inspection Report", "Thermal Report"} {
		if !strings.Contains(notes, want) {
			return fmt.Errorf("conflict note %q is missing %q", notes, want)
		}
	}
	if strings.Count(notes, "conflict:") != 1 {
		return fmt.Errorf("expected a single conflict note, got: %q", notes)
	}
	return nil
}

func scenarioSeverityReasoning(ctx context.Context) error {
	extractor := &llm.StaticExtractor{
		BySource: map[models.SourceType]*models.ExtractionEnvelope{
			models.SourceInspection: {Observations: []models.RawObservation{
				{Area: "Bathroom", Description: "Damp patch behind the shower wall"},
			}},
		},
	}

	res, err := scenarioPipeline(extractor, scenarioAnalyzer()).Run(ctx, scenarioRequest())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	sev := res.Report.SeverityAssessment
	if sev.Level != models.SeverityMedium {
		return fmt.Errorf("expected severity %s, got %s", models.SeverityMedium, sev.Level)
	}
	if strings.TrimSpace(sev.Reasoning) == "" {
		return errors.New("severity assessment has no reasoning")
	}
	return nil
}

func scenarioSevenSections(ctx context.Context) error {
	extractor := &llm.StaticExtractor{
		BySource: map[models.SourceType]*models.ExtractionEnvelope{
			models.SourceInspection: {Observations: []models.RawObservation{
				{Area: "Bathroom", Description: "Damp patch behind the shower wall", Temperature: strPtr("20°C")},
			}},
		},
	}

	res, err := scenarioPipeline(extractor, scenarioAnalyzer()).Run(ctx, scenarioRequest())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	text := report.Render(res.Report)
	for _, heading := range []string{
		"DETAILED DIAGNOSTIC REPORT (DDR)",
		"1. PROPERTY ISSUE SUMMARY",
		"2. AREA-WISE OBSERVATIONS",
		"3. PROBABLE ROOT CAUSE",
		"4. SEVERITY ASSESSMENT",
		"5. RECOMMENDED ACTIONS",
		"6. ADDITIONAL NOTES",
		"7. MISSING OR UNCLEAR INFORMATION",
		"END OF REPORT",
	} {
		if !strings.Contains(text, heading) {
			return fmt.Errorf("formatted report is missing %q", heading)
		}
	}
	return nil
}

func scenarioNoInvention(ctx context.Context) error {
	inputDescriptions := map[string]bool{
		"Damp patch behind the shower wall": true,
		"Sealant gap around the sink":       true,
	}
	extractor := &llm.StaticExtractor{
		BySource: map[models.SourceType]*models.ExtractionEnvelope{
			models.SourceInspection: {Observations: []models.RawObservation{
				{Area: "Bathroom", Description: "Damp patch behind the shower wall"},
				{Area: "Kitchen", Description: "Sealant gap around the sink"},
			}},
		},
	}
	analyzer := scenarioAnalyzer()

	res, err := scenarioPipeline(extractor, analyzer).Run(ctx, scenarioRequest())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	for _, entry := range res.Report.AreaObservations {
		if entry.Area != "Bathroom" && entry.Area != "Kitchen" {
			return fmt.Errorf("report invented area %q", entry.Area)
		}
		for _, desc := range strings.Split(entry.Description, " | ") {
			if !inputDescriptions[desc] {
				return fmt.Errorf("report invented description %q", desc)
			}
		}
	}
	if len(res.Report.RecommendedActions) != len(analyzer.Result.RecommendedActions) {
		return errors.New("recommended actions were not carried through unmodified")
	}
	return nil
}

func scenarioFailClosed(ctx context.Context) error {
	extractor := &llm.StaticExtractor{
		BySource: map[models.SourceType]*models.ExtractionEnvelope{
			models.SourceInspection: {Observations: []models.RawObservation{
				{Area: "Bathroom", Description: "Damp patch behind the shower wall"},
			}},
		},
	}
	analyzer := &llm.StaticAnalyzer{Err: types.NewSchemaValidationError("analysis response failed validation", nil)}

	res, err := scenarioPipeline(extractor, analyzer).Run(ctx, scenarioRequest())
	if err == nil {
		return errors.New("expected the run to fail")
	}
	if res != nil {
		return errors.New("failed run must not return a partial result")
	}
	var perr *types.PipelineError
	if !errors.As(err, &perr) {
		return fmt.Errorf("expected a structured pipeline error, got %T", err)
	}
	if perr.Stage != pipeline.StageAnalyze.String() {
		return fmt.Errorf("expected failure at stage %s, got %q", pipeline.StageAnalyze, perr.Stage)
	}
	return nil
}

func containsString(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
