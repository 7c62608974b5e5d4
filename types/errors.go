/*
Copyright © 2025 Kestrel Systems Inc.
*/
package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies pipeline failures and warnings.
type ErrorCode string

const (
	// ErrCodeDocumentLoad covers bad paths and unsupported formats. Fatal for
	// the document, never retried.
	ErrCodeDocumentLoad ErrorCode = "DOCUMENT_LOAD"
	// ErrCodeSchemaValidation covers malformed collaborator output. Retried,
	// then fatal for the stage.
	ErrCodeSchemaValidation ErrorCode = "SCHEMA_VALIDATION"
	// ErrCodeExternalService covers transport failures, timeouts and rate
	// limits. Retried with backoff, then fatal for the stage.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE"
	// ErrCodeDataQuality marks a malformed individual observation. Non-fatal;
	// the observation is dropped and the warning recorded.
	ErrCodeDataQuality ErrorCode = "DATA_QUALITY"
	// ErrCodeMergeAmbiguity marks an inconclusive area-similarity match.
	// Non-fatal; a new canonical area is registered instead of guessing.
	ErrCodeMergeAmbiguity ErrorCode = "MERGE_AMBIGUITY"
	// ErrCodeInternal marks an internal-consistency failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// PipelineError is the structured error carried out of a failed run. Stage
// names the state machine stage that failed.
type PipelineError struct {
	Code    ErrorCode `json:"code"`
	Stage   string    `json:"stage,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure class is worth another attempt.
func (e *PipelineError) Retryable() bool {
	return e.Code == ErrCodeSchemaValidation || e.Code == ErrCodeExternalService
}

// NewDocumentLoadError wraps a document read/parse failure with its path.
func NewDocumentLoadError(path string, err error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeDocumentLoad,
		Message: fmt.Sprintf("load %s: %v", path, err),
		Err:     err,
	}
}

// NewSchemaValidationError wraps a collaborator response that failed schema
// validation.
func NewSchemaValidationError(detail string, err error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeSchemaValidation,
		Message: detail,
		Err:     err,
	}
}

// NewExternalServiceError wraps a transport-level collaborator failure.
func NewExternalServiceError(detail string, err error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeExternalService,
		Message: detail,
		Err:     err,
	}
}

// NewInternalError marks a state that should be unreachable.
func NewInternalError(detail string) *PipelineError {
	return &PipelineError{Code: ErrCodeInternal, Message: detail}
}

// AtStage returns a copy of the error annotated with the failing stage.
func (e *PipelineError) AtStage(stage string) *PipelineError {
	cp := *e
	cp.Stage = stage
	return &cp
}

// IsRetryable reports whether err (or anything it wraps) is a retryable
// PipelineError. Unknown errors default to retryable so that transient
// transport failures from collaborator SDKs are not misclassified as final.
func IsRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}

// Warning is a non-fatal data-quality or ambiguity note attached to a run.
// Warnings accumulate in the run diagnostics and surface in the report's
// missing-information section.
type Warning struct {
	Code    ErrorCode `json:"code"`
	Area    string    `json:"area,omitempty"`
	Message string    `json:"message"`
}

func (w Warning) String() string {
	if w.Area != "" {
		return fmt.Sprintf("%s: %s", w.Area, w.Message)
	}
	return w.Message
}

// NewDataQualityWarning records a malformed observation that was dropped.
func NewDataQualityWarning(area, message string) Warning {
	return Warning{Code: ErrCodeDataQuality, Area: area, Message: message}
}

// NewMergeAmbiguityWarning records an inconclusive area match.
func NewMergeAmbiguityWarning(area, message string) Warning {
	return Warning{Code: ErrCodeMergeAmbiguity, Area: area, Message: message}
}

// MCPError provides structured error information for MCP responses
type MCPError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewMCPError creates a new structured MCP error
func NewMCPError(code string, message string, details map[string]interface{}) *MCPError {
	return &MCPError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
