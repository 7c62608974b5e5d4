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
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kestrelhq/ddrgen/internal/batch"
	"github.com/kestrelhq/ddrgen/internal/ui"
	"github.com/kestrelhq/ddrgen/store"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch --manifest <path>",
	Short: "Generate reports for every property in a manifest.",
	Long: `Runs the report pipeline for each entry in a JSON or YAML manifest with a
bounded worker pool. Entries fail independently; one property's bad document
never blocks the rest. Results land in the output directory as
ddr_<id>.json / ddr_<id>_formatted.txt pairs plus a batch_summary.json.

With --watch the command keeps running after the initial pass and re-runs a
property whenever one of its input documents changes (debounced).

Manifest format (YAML shown; JSON mirrors it):
properties:
  - propertyId: "PROP-001"
    inspection: "docs/prop001_inspection.txt"
    thermal: "docs/prop001_thermal.txt"
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		manifestPath, _ := cmd.Flags().GetString("manifest")
		outFlag, _ := cmd.Flags().GetString("output")
		workersFlag, _ := cmd.Flags().GetInt("workers")
		watch, _ := cmd.Flags().GetBool("watch")
		jsonOut, _ := cmd.Flags().GetBool("json")

		if manifestPath == "" {
			HandleError("Error: The --manifest flag is required.", nil)
		}

		fs := afero.NewOsFs()
		manifest, err := batch.LoadManifest(fs, manifestPath)
		if err != nil {
			HandleError(fmt.Sprintf("Error: Could not load manifest %s.", manifestPath), err)
		}

		pipe, err := buildPipeline(ctx)
		if err != nil {
			HandleError("Error: Could not set up the report pipeline. Check your LLM configuration.", err)
		}

		appCfg := GetConfig()
		workers := appCfg.Batch.Workers
		if workersFlag > 0 {
			workers = workersFlag
		}
		outDir := outputDir(outFlag)

		// Watch mode stays on plain line output; the progress view is a
		// one-shot and the follow-up waves print the same way.
		interactive := ui.IsInteractive() && !jsonOut && !watch

		var opts []batch.RunnerOption
		var events chan batch.ItemEvent
		if interactive {
			events = make(chan batch.ItemEvent, len(manifest.Properties)*2+4)
			opts = append(opts, batch.WithItemFunc(func(ev batch.ItemEvent) {
				events <- ev
			}))
		} else if !jsonOut {
			opts = append(opts, batch.WithItemFunc(printItemEvent))
		}
		runner := batch.NewRunner(fs, pipe, outDir, workers, opts...)

		var summary *batch.Summary
		if interactive {
			summary, err = runWithProgressView(ctx, runner, manifest, events)
		} else {
			summary, err = runner.Run(ctx, manifest)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nOperation cancelled by user.")
				os.Exit(130)
			}
			HandleError("Error: Batch run failed.", err)
		}

		summaryPath, werr := runner.WriteSummary(summary)
		if werr != nil {
			PrintError(fmt.Sprintf("Warning: could not write batch summary: %v", werr), werr)
		}

		runIDs := recordBatchResults(summary)

		if jsonOut {
			out, merr := json.MarshalIndent(summary, "", "  ")
			if merr != nil {
				HandleError("Error: Could not marshal the batch summary.", merr)
			}
			fmt.Println(string(out))
		} else {
			printBatchSummary(summary, summaryPath, runIDs)
		}

		if watch {
			watchManifest(ctx, runner, manifest)
			return
		}

		if summary.Failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("manifest", "m", "", "path to the batch manifest, .json or .yaml (required)")
	batchCmd.Flags().StringP("output", "o", "", "output directory (default from config: project.outputDir)")
	batchCmd.Flags().IntP("workers", "w", 0, "worker pool size (default from config: batch.workers)")
	batchCmd.Flags().Bool("watch", false, "keep watching the manifest's input files and re-run on change")
	batchCmd.Flags().Bool("json", false, "print the batch summary as JSON instead of the styled table")
}

// runWithProgressView drives the bubbletea progress view while the worker
// pool runs. The runner feeds item events through the channel; closing it
// after Run returns ends the view.
func runWithProgressView(ctx context.Context, runner *batch.Runner, manifest *batch.Manifest, events chan batch.ItemEvent) (*batch.Summary, error) {
	ids := make([]string, 0, len(manifest.Properties))
	for _, e := range manifest.Properties {
		ids = append(ids, e.PropertyID)
	}

	// Quitting the view cancels the pool; the done channel keeps the
	// summary read from racing the worker goroutine.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		summary *batch.Summary
		runErr  error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, runErr = runner.Run(runCtx, manifest)
		close(events)
	}()

	program := tea.NewProgram(ui.NewBatchModel(ids, events))
	_, perr := program.Run()
	cancel()
	<-done

	if perr != nil {
		return nil, fmt.Errorf("progress view failed: %w", perr)
	}
	return summary, runErr
}

// printItemEvent is the plain, pipe-friendly progress line.
func printItemEvent(ev batch.ItemEvent) {
	switch ev.State {
	case batch.ItemSucceeded:
		fmt.Printf("ok   %s  %s\n", ev.PropertyID, ev.Message)
	case batch.ItemFailed:
		fmt.Printf("FAIL %s  %s\n", ev.PropertyID, ev.Message)
	}
}

// recordBatchResults saves each item outcome in the run ledger and returns
// propertyID -> run ID for display. Ledger trouble degrades to empty IDs.
func recordBatchResults(summary *batch.Summary) map[string]string {
	runIDs := make(map[string]string, len(summary.Results))

	ledger, err := GetLedger()
	if err != nil {
		LogError("run ledger unavailable", err)
		return runIDs
	}
	defer func() { _ = ledger.Close() }()

	for _, res := range summary.Results {
		rec := store.RunRecord{
			PropertyID:  res.PropertyID,
			FailedStage: res.FailedStage,
			ReportPath:  res.ReportPath,
		}
		if res.Status == batch.ItemSucceeded {
			rec.Status = store.RunSucceeded
		} else {
			rec.Status = store.RunFailed
		}
		if res.Diagnostics != nil {
			rec.AreasMerged = res.Diagnostics.AreasMerged
			rec.ConflictsFound = res.Diagnostics.ConflictsFound
			rec.DuplicatesRemoved = res.Diagnostics.DuplicatesRemoved
		}

		saved, serr := ledger.SaveRun(rec)
		if serr != nil {
			LogError("failed to record run", serr)
			continue
		}
		runIDs[res.PropertyID] = saved.ID
	}
	return runIDs
}

func printBatchSummary(summary *batch.Summary, summaryPath string, runIDs map[string]string) {
	table := ui.NewTable("RUN", "PROPERTY", "STATUS", "DETAIL")
	table.StatusColumn = 2
	table.MaxWidth = 48
	for _, res := range summary.Results {
		detail := res.ReportPath
		if res.Status == batch.ItemFailed {
			detail = res.Error
			if res.FailedStage != "" {
				detail = fmt.Sprintf("[%s] %s", res.FailedStage, res.Error)
			}
		}
		table.AddRow(ui.TruncateID(runIDs[res.PropertyID]), res.PropertyID, string(res.Status), detail)
	}

	fmt.Println()
	fmt.Print(table.Render())
	fmt.Println()

	line := fmt.Sprintf("%d succeeded, %d failed of %d properties in %s",
		summary.Succeeded, summary.Failed, summary.Total,
		(time.Duration(summary.DurationMs) * time.Millisecond).Round(time.Millisecond))
	if summary.Failed > 0 {
		fmt.Println(ui.StyleWarning.Render(line))
	} else {
		fmt.Println(ui.StyleSuccess.Render(line))
	}
	if summaryPath != "" {
		fmt.Println(ui.StyleSubtle.Render("Summary written to " + summaryPath))
	}
}

// watchManifest blocks in watch mode until interrupted. Each completed wave
// is recorded in the ledger and summarized on stdout.
func watchManifest(ctx context.Context, runner *batch.Runner, manifest *batch.Manifest) {
	appCfg := GetConfig()
	debounce := time.Duration(appCfg.Batch.DebounceMs) * time.Millisecond

	watcher := batch.NewWatcher(runner, manifest, debounce, func(summary *batch.Summary) {
		recordBatchResults(summary)
		fmt.Printf("re-ran %d propert%s: %d succeeded, %d failed\n",
			summary.Total, pluralY(summary.Total), summary.Succeeded, summary.Failed)
	})

	fmt.Println(ui.StyleSubtle.Render("Watching manifest inputs for changes. Press Ctrl+C to stop."))
	if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		HandleError("Error: Watch mode failed.", err)
	}
	fmt.Println("\nWatch stopped.")
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
