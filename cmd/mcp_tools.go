/*
Copyright © 2025 Kestrel Systems Inc.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/kestrelhq/ddrgen/internal/pipeline"
	"github.com/kestrelhq/ddrgen/internal/report"
	"github.com/kestrelhq/ddrgen/store"
	"github.com/kestrelhq/ddrgen/types"
)

func generateReportHandler() mcp.ToolHandlerFor[types.GenerateReportParams, types.GenerateReportResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.GenerateReportParams]) (*mcp.CallToolResultFor[types.GenerateReportResponse], error) {
		args := params.Arguments
		logToolCall("generate-report", args)

		// Validate required fields
		if strings.TrimSpace(args.PropertyID) == "" {
			return nil, types.NewMCPError("MISSING_PROPERTY_ID", "propertyId is required", map[string]interface{}{
				"field": "propertyId",
			})
		}
		if strings.TrimSpace(args.InspectionPath) == "" || strings.TrimSpace(args.ThermalPath) == "" {
			return nil, types.NewMCPError("MISSING_DOCUMENT_PATH", "inspectionPath and thermalPath are required", map[string]interface{}{
				"propertyId": args.PropertyID,
			})
		}

		pipe, err := buildPipeline(ctx)
		if err != nil {
			return nil, types.NewMCPError("PIPELINE_SETUP_FAILED", err.Error(), nil)
		}

		runRes, runErr := pipe.Run(ctx, pipeline.Request{
			PropertyID:     args.PropertyID,
			InspectionPath: args.InspectionPath,
			ThermalPath:    args.ThermalPath,
		})
		if runErr != nil {
			rec := recordRun(store.RunRecord{
				PropertyID:  args.PropertyID,
				Status:      store.RunFailed,
				FailedStage: failedStage(runErr),
			})

			details := map[string]interface{}{"propertyId": args.PropertyID}
			var perr *types.PipelineError
			if errors.As(runErr, &perr) {
				details["stage"] = perr.Stage
				details["code"] = string(perr.Code)
			}
			if rec.ID != "" {
				details["runId"] = rec.ID
			}
			return nil, types.NewMCPError("GENERATION_FAILED", runErr.Error(), details)
		}

		outDir := outputDir("")
		jsonPath, _, err := report.WriteFiles(afero.NewOsFs(), outDir, args.PropertyID, runRes.Report)
		if err != nil {
			return nil, types.NewMCPError("REPORT_WRITE_FAILED", err.Error(), map[string]interface{}{
				"outputDir": outDir,
			})
		}

		rec := recordRun(store.RunRecord{
			PropertyID:        args.PropertyID,
			Status:            store.RunSucceeded,
			AreasMerged:       runRes.Diagnostics.AreasMerged,
			ConflictsFound:    runRes.Diagnostics.ConflictsFound,
			DuplicatesRemoved: runRes.Diagnostics.DuplicatesRemoved,
			ReportPath:        jsonPath,
		})

		response := types.GenerateReportResponse{
			RunID:            rec.ID,
			PropertyID:       args.PropertyID,
			Status:           string(store.RunSucceeded),
			ReportPath:       jsonPath,
			Severity:         string(runRes.Report.SeverityAssessment.Level),
			AreasMerged:      runRes.Diagnostics.AreasMerged,
			ConflictsFound:   runRes.Diagnostics.ConflictsFound,
			DuplicatesMerged: runRes.Diagnostics.DuplicatesRemoved,
		}
		for _, w := range runRes.Diagnostics.Warnings {
			response.Warnings = append(response.Warnings, w.String())
		}

		responseText := fmt.Sprintf("Generated DDR for %s: severity %s, %d area(s), %d conflict(s). Report: %s",
			args.PropertyID, response.Severity, response.AreasMerged, response.ConflictsFound, jsonPath)

		return &mcp.CallToolResultFor[types.GenerateReportResponse]{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: responseText,
				},
			},
			StructuredContent: response,
		}, nil
	}
}

func listRunsHandler() mcp.ToolHandlerFor[types.ListRunsParams, types.ListRunsResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.ListRunsParams]) (*mcp.CallToolResultFor[types.ListRunsResponse], error) {
		args := params.Arguments
		logToolCall("list-runs", args)

		limit := args.Limit
		if limit <= 0 {
			limit = 20
		}

		ledger, err := GetLedger()
		if err != nil {
			return nil, types.NewMCPError("LEDGER_UNAVAILABLE", err.Error(), nil)
		}
		defer func() { _ = ledger.Close() }()

		runs, err := ledger.ListRuns(limit)
		if err != nil {
			return nil, types.NewMCPError("LEDGER_QUERY_FAILED", err.Error(), nil)
		}

		response := runsToResponse(runs)

		return &mcp.CallToolResultFor[types.ListRunsResponse]{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: fmt.Sprintf("Found %d run(s)", response.Count),
				},
			},
			StructuredContent: response,
		}, nil
	}
}
