/*
Copyright © 2025 Kestrel Systems Inc.
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelhq/ddrgen/internal/ui"
	"github.com/kestrelhq/ddrgen/store"
	"github.com/kestrelhq/ddrgen/types"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent report runs from the ledger.",
	Long: `Every generate and batch run is recorded in a local ledger under the
project directory: property, outcome, the stage that failed if any, merge
counters and the report path. 'runs' lists the most recent entries, newest
first.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		propertyID, _ := cmd.Flags().GetString("property")
		jsonOut, _ := cmd.Flags().GetBool("json")

		ledger, err := GetLedger()
		if err != nil {
			HandleError("Error: Could not open the run ledger.", err)
		}
		defer func() { _ = ledger.Close() }()

		var runs []store.RunRecord
		if propertyID != "" {
			runs, err = ledger.ListRunsForProperty(propertyID, limit)
		} else {
			runs, err = ledger.ListRuns(limit)
		}
		if err != nil {
			HandleError("Error: Could not list runs.", err)
		}

		if jsonOut {
			printRunsJSON(runs)
			return
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded yet. Generate a report first.")
			return
		}

		table := ui.NewTable("RUN", "PROPERTY", "STATUS", "AREAS", "CONFLICTS", "CREATED", "DETAIL")
		table.StatusColumn = 2
		table.MaxWidth = 44
		for _, r := range runs {
			detail := r.ReportPath
			if r.Status == store.RunFailed && r.FailedStage != "" {
				detail = "failed at " + r.FailedStage
			}
			table.AddRow(
				ui.TruncateID(r.ID),
				r.PropertyID,
				string(r.Status),
				fmt.Sprintf("%d", r.AreasMerged),
				fmt.Sprintf("%d", r.ConflictsFound),
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				detail,
			)
		}

		fmt.Print(table.Render())
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntP("limit", "n", 20, "maximum number of runs to list (0 = all)")
	runsCmd.Flags().StringP("property", "p", "", "only list runs for this property")
	runsCmd.Flags().Bool("json", false, "print runs as JSON")
}

func printRunsJSON(runs []store.RunRecord) {
	resp := runsToResponse(runs)
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		HandleError("Error: Could not marshal runs.", err)
	}
	fmt.Println(string(out))
}

// runsToResponse converts ledger records to the wire shape shared with the
// MCP list-runs tool.
func runsToResponse(runs []store.RunRecord) types.ListRunsResponse {
	resp := types.ListRunsResponse{Count: len(runs), Runs: make([]types.RunSummary, 0, len(runs))}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, types.RunSummary{
			RunID:       r.ID,
			PropertyID:  r.PropertyID,
			Status:      string(r.Status),
			FailedStage: r.FailedStage,
			ReportPath:  r.ReportPath,
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
