/*
Copyright © 2025 Kestrel Systems Inc.
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	Project   ProjectConfig   `mapstructure:"project" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"omitempty"`
	Retry     RetryConfig     `mapstructure:"retry" validate:"required"`
	Normalize NormalizeConfig `mapstructure:"normalize" validate:"required"`
	Merge     MergeConfig     `mapstructure:"merge" validate:"required"`
	Batch     BatchConfig     `mapstructure:"batch" validate:"required"`
}

// ProjectConfig holds project-related settings
type ProjectConfig struct {
	Dir          string `mapstructure:"dir" validate:"required"`
	OutputDir    string `mapstructure:"outputDir" validate:"required"`
	TemplatesDir string `mapstructure:"templatesDir" validate:"omitempty"`
}

// LLMConfig holds configuration for the extraction and analysis models
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"omitempty,oneof=openai gemini anthropic ollama"`
	Model    string `mapstructure:"model" validate:"omitempty,min=1"`
	APIKey   string `mapstructure:"apiKey" validate:"omitempty,min=1"`
	BaseURL  string `mapstructure:"baseURL" validate:"omitempty,url"`
	// RequestTimeoutSeconds bounds each individual collaborator call, not the
	// whole pipeline.
	RequestTimeoutSeconds int `mapstructure:"requestTimeoutSeconds" validate:"omitempty,min=5,max=600"`
}

// RetryConfig is the uniform retry policy applied to every external-call
// stage.
type RetryConfig struct {
	MaxAttempts      int     `mapstructure:"maxAttempts" validate:"required,min=1,max=10"`
	InitialBackoffMs int     `mapstructure:"initialBackoffMs" validate:"required,min=1"`
	MaxBackoffMs     int     `mapstructure:"maxBackoffMs" validate:"required,min=1"`
	Multiplier       float64 `mapstructure:"multiplier" validate:"required,min=1"`
}

// NormalizeConfig tunes area-label canonicalization.
type NormalizeConfig struct {
	// SimilarityThreshold is the minimum label similarity for folding a new
	// label into an existing canonical area. Kept conservative so distinct
	// rooms are not merged.
	SimilarityThreshold float64 `mapstructure:"similarityThreshold" validate:"required,gt=0,lte=1"`
}

// MergeConfig tunes the merge engine.
type MergeConfig struct {
	// DedupThreshold is the minimum description similarity for treating two
	// observation texts as duplicates. Tighter than the area threshold.
	DedupThreshold float64 `mapstructure:"dedupThreshold" validate:"required,gt=0,lte=1"`
	// TemperatureToleranceC is the tolerance band, in degrees Celsius, beyond
	// which two numeric readings for one area count as a conflict.
	TemperatureToleranceC float64 `mapstructure:"temperatureToleranceC" validate:"required,gt=0"`
}

// BatchConfig tunes the batch worker pool and watch mode.
type BatchConfig struct {
	Workers    int `mapstructure:"workers" validate:"required,min=1,max=64"`
	DebounceMs int `mapstructure:"debounceMs" validate:"required,min=1"`
}
