/*
Copyright © 2025 Kestrel Systems Inc.
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kestrelhq/ddrgen/internal/pipeline"
	"github.com/kestrelhq/ddrgen/internal/report"
	"github.com/kestrelhq/ddrgen/internal/ui"
	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/store"
	"github.com/kestrelhq/ddrgen/types"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate --property <id> --inspection <path> --thermal <path>",
	Short: "Generate a diagnostic report for one property.",
	Long: `Runs the full report pipeline for a single property: extracts observations
from the visual inspection and thermal imaging documents, merges them per
area, analyzes root cause and severity, and writes the report pair
(ddr_<id>.json and ddr_<id>_formatted.txt) to the output directory.

The extraction and analysis stages call the configured chat model and are
retried on transient failures. A run either produces a complete report or
fails with the stage that broke; partial reports are never written.

Requires an LLM to be configured in .ddrgen/.ddrgen.yaml or via environment
variables. Example configuration:
llm:
  provider: "gemini" # or openai, anthropic, ollama
  model: "gemini-2.0-flash"
  # apiKey: set via DDRGEN_LLM_APIKEY or GEMINI_API_KEY
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// Graceful shutdown context listening for SIGINT (Ctrl+C)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		propertyID, _ := cmd.Flags().GetString("property")
		inspectionPath, _ := cmd.Flags().GetString("inspection")
		thermalPath, _ := cmd.Flags().GetString("thermal")
		outFlag, _ := cmd.Flags().GetString("output")
		autoYes, _ := cmd.Flags().GetBool("yes")
		jsonOut, _ := cmd.Flags().GetBool("json")

		if propertyID == "" || inspectionPath == "" || thermalPath == "" {
			HandleError("Error: --property, --inspection and --thermal are required.", nil)
		}

		outDir := outputDir(outFlag)

		// Confirm before clobbering an earlier report for the same property.
		existingJSON := filepath.Join(outDir, fmt.Sprintf("ddr_%s.json", propertyID))
		if _, err := os.Stat(existingJSON); err == nil && !autoYes && ui.IsInteractive() {
			confirm := promptui.Prompt{
				Label:     fmt.Sprintf("A report for %s already exists at %s. Overwrite", propertyID, existingJSON),
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				if err == promptui.ErrAbort {
					fmt.Println("Aborted. Existing report left in place.")
					return
				}
				HandleError("Error: Could not read confirmation.", err)
			}
		}

		// Progress callbacks are serialized by the pipeline, so pausing the
		// spinner for retry notices is safe here.
		var spin *spinner.Spinner
		progress := func(ev pipeline.ProgressEvent) {
			if ev.Status != pipeline.ProgressRetrying {
				return
			}
			if spin != nil {
				spin.Stop()
			}
			fmt.Fprintf(os.Stderr, "  retrying %s (attempt %d): %s\n", ev.Stage, ev.Attempt, ev.Message)
			if spin != nil {
				spin.Start()
			}
		}

		pipe, err := buildPipeline(ctx, pipeline.WithProgress(progress))
		if err != nil {
			HandleError("Error: Could not set up the report pipeline. Check your LLM configuration.", err)
		}

		appCfg := GetConfig()

		if ui.IsInteractive() && !jsonOut {
			spin = spinner.New(spinner.CharSets[11], 100*time.Millisecond)
			spin.Suffix = fmt.Sprintf(" Generating report for %s using %s/%s...", propertyID, appCfg.LLM.Provider, appCfg.LLM.Model)
			spin.Start()
		}

		started := time.Now()
		runRes, runErr := pipe.Run(ctx, pipeline.Request{
			PropertyID:     propertyID,
			InspectionPath: inspectionPath,
			ThermalPath:    thermalPath,
		})
		if spin != nil {
			spin.Stop()
			fmt.Println() // Newline after spinner stops
		}

		if runErr != nil {
			if errors.Is(runErr, context.Canceled) {
				fmt.Println("\nOperation cancelled by user.")
				os.Exit(130) // Standard exit code for Ctrl+C
			}
			recordRun(store.RunRecord{
				PropertyID:  propertyID,
				Status:      store.RunFailed,
				FailedStage: failedStage(runErr),
			})
			HandleError(fmt.Sprintf("Error: Report generation failed for %s: %v", propertyID, runErr), runErr)
		}

		jsonPath, textPath, err := report.WriteFiles(afero.NewOsFs(), outDir, propertyID, runRes.Report)
		if err != nil {
			HandleError(fmt.Sprintf("Error: Could not write report files to %s.", outDir), err)
		}

		rec := recordRun(store.RunRecord{
			PropertyID:        propertyID,
			Status:            store.RunSucceeded,
			AreasMerged:       runRes.Diagnostics.AreasMerged,
			ConflictsFound:    runRes.Diagnostics.ConflictsFound,
			DuplicatesRemoved: runRes.Diagnostics.DuplicatesRemoved,
			ReportPath:        jsonPath,
		})

		if jsonOut {
			printGenerateJSON(rec, runRes, jsonPath)
			return
		}

		printRunSummary(rec, runRes, jsonPath, textPath, time.Since(started))
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("property", "p", "", "property identifier used in output filenames (required)")
	generateCmd.Flags().String("inspection", "", "path to the visual inspection document (required)")
	generateCmd.Flags().String("thermal", "", "path to the thermal imaging document (required)")
	generateCmd.Flags().StringP("output", "o", "", "output directory (default from config: project.outputDir)")
	generateCmd.Flags().BoolP("yes", "y", false, "overwrite an existing report without asking")
	generateCmd.Flags().Bool("json", false, "print the run result as JSON instead of the styled summary")
}

// recordRun persists one run in the ledger. Ledger trouble never fails the
// command; the report on disk is the primary artifact.
func recordRun(rec store.RunRecord) store.RunRecord {
	ledger, err := GetLedger()
	if err != nil {
		LogError("run ledger unavailable", err)
		return rec
	}
	defer func() { _ = ledger.Close() }()

	saved, err := ledger.SaveRun(rec)
	if err != nil {
		LogError("failed to record run", err)
		return rec
	}
	return saved
}

// failedStage pulls the stage name out of a pipeline error chain.
func failedStage(err error) string {
	var perr *types.PipelineError
	if errors.As(err, &perr) {
		return perr.Stage
	}
	return ""
}

func printGenerateJSON(rec store.RunRecord, runRes *pipeline.RunResult, jsonPath string) {
	resp := types.GenerateReportResponse{
		RunID:            rec.ID,
		PropertyID:       rec.PropertyID,
		Status:           string(store.RunSucceeded),
		ReportPath:       jsonPath,
		Severity:         string(runRes.Report.SeverityAssessment.Level),
		AreasMerged:      runRes.Diagnostics.AreasMerged,
		ConflictsFound:   runRes.Diagnostics.ConflictsFound,
		DuplicatesMerged: runRes.Diagnostics.DuplicatesRemoved,
	}
	for _, w := range runRes.Diagnostics.Warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		HandleError("Error: Could not marshal the run result.", err)
	}
	fmt.Println(string(out))
}

func printRunSummary(rec store.RunRecord, runRes *pipeline.RunResult, jsonPath, textPath string, elapsed time.Duration) {
	content := fmt.Sprintf(
		"Severity:    %s\nAreas:       %d merged, %d conflict(s), %d duplicate(s) removed\nReport:      %s\nFormatted:   %s\nElapsed:     %s",
		ui.SeverityBadge(runRes.Report.SeverityAssessment.Level),
		runRes.Diagnostics.AreasMerged,
		runRes.Diagnostics.ConflictsFound,
		runRes.Diagnostics.DuplicatesRemoved,
		jsonPath,
		textPath,
		elapsed.Round(time.Millisecond),
	)
	if rec.ID != "" {
		content += fmt.Sprintf("\nRun:         %s", rec.ID)
	}
	if n := len(runRes.Diagnostics.Warnings); n > 0 {
		content += fmt.Sprintf("\nWarnings:    %d (see the report's missing information section)", n)
	}

	title := fmt.Sprintf("DDR generated for %s", rec.PropertyID)
	panel := ui.NewPanel(title, content)
	if runRes.Report.SeverityAssessment.Level == models.SeverityHigh {
		panel = panel.WithBorderColor(ui.ColorError)
	}
	fmt.Println(panel.Render())
}
