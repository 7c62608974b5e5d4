/*
Copyright © 2025 Kestrel Systems Inc.
*/
package types

// MCP Tool Parameter Types

// GenerateReportParams for running a full report pipeline
type GenerateReportParams struct {
	PropertyID     string `json:"propertyId" mcp:"Property identifier used in output filenames (required)"`
	InspectionPath string `json:"inspectionPath" mcp:"Path to the visual inspection document (required)"`
	ThermalPath    string `json:"thermalPath" mcp:"Path to the thermal imaging document (required)"`
}

// GenerateReportResponse summarizes a completed run
type GenerateReportResponse struct {
	RunID            string   `json:"runId"`
	PropertyID       string   `json:"propertyId"`
	Status           string   `json:"status"`
	ReportPath       string   `json:"reportPath,omitempty"`
	Severity         string   `json:"severity,omitempty"`
	AreasMerged      int      `json:"areasMerged"`
	ConflictsFound   int      `json:"conflictsFound"`
	DuplicatesMerged int      `json:"duplicatesMerged"`
	Warnings         []string `json:"warnings,omitempty"`
}

// ListRunsParams for querying the run ledger
type ListRunsParams struct {
	Limit int `json:"limit,omitempty" mcp:"Maximum number of runs to return (default 20)"`
}

// RunSummary is one ledger entry in an MCP response
type RunSummary struct {
	RunID       string `json:"runId"`
	PropertyID  string `json:"propertyId"`
	Status      string `json:"status"`
	FailedStage string `json:"failedStage,omitempty"`
	ReportPath  string `json:"reportPath,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// ListRunsResponse wraps ledger entries with a count
type ListRunsResponse struct {
	Count int          `json:"count"`
	Runs  []RunSummary `json:"runs"`
}
