package models

// SeverityLevel is the analyzer's verdict on how urgent the findings are.
// Display-only: no pipeline behavior branches on it.
type SeverityLevel string

const (
	SeverityLow    SeverityLevel = "Low"
	SeverityMedium SeverityLevel = "Medium"
	SeverityHigh   SeverityLevel = "High"
)

// Severity pairs the level with the analyzer's reasoning for it.
type Severity struct {
	Level     SeverityLevel `json:"level" validate:"required,oneof=Low Medium High"`
	Reasoning string        `json:"reasoning" validate:"required"`
}

// AnalysisResult is the analyzer collaborator's wire contract. Produced once
// per run from the full merged record set; the assembler copies its fields
// through unmodified after a non-empty check.
type AnalysisResult struct {
	Summary            string   `json:"summary" validate:"required"`
	RootCause          string   `json:"rootCause" validate:"required"`
	Severity           Severity `json:"severity" validate:"required"`
	RecommendedActions []string `json:"recommendedActions" validate:"required,min=1,dive,required"`
}

// AreaObservation is one area entry in the final report.
type AreaObservation struct {
	Area        string `json:"area"`
	Description string `json:"description"`
	Temperature string `json:"temperature"`
	Notes       string `json:"notes,omitempty"`
}

// DDRReport is the complete Detailed Diagnostic Report: seven fixed sections,
// every field populated only from the merged record set and the analysis
// result. The JSON encoding of this struct is the persisted artifact; the
// formatted text rendering is derived from the same value.
type DDRReport struct {
	PropertyIssueSummary string            `json:"property_issue_summary"`
	AreaObservations     []AreaObservation `json:"area_wise_observations"`
	RootCauseAnalysis    string            `json:"root_cause_analysis"`
	SeverityAssessment   Severity          `json:"severity_assessment"`
	RecommendedActions   []string          `json:"recommended_actions"`
	AdditionalNotes      string            `json:"additional_notes"`
	MissingInformation   []string          `json:"missing_information"`
}
