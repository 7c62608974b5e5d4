package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/kestrelhq/ddrgen/internal/logging"
	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/prompts"
	"github.com/kestrelhq/ddrgen/types"
)

// Analyzer reasons over the full merged record set and produces the summary,
// root cause, severity verdict and recommended actions.
type Analyzer interface {
	Analyze(ctx context.Context, records []models.MergedAreaRecord) (*models.AnalysisResult, error)
}

// ChatAnalyzer is the production Analyzer, backed by an Eino chat model.
type ChatAnalyzer struct {
	model        model.BaseChatModel
	templatesDir string
	log          *slog.Logger
}

var _ Analyzer = (*ChatAnalyzer)(nil)

func NewChatAnalyzer(m model.BaseChatModel, templatesDir string) *ChatAnalyzer {
	return &ChatAnalyzer{model: m, templatesDir: templatesDir, log: logging.New("analyzer")}
}

func (a *ChatAnalyzer) Analyze(ctx context.Context, records []models.MergedAreaRecord) (*models.AnalysisResult, error) {
	sysPrompt, err := prompts.GetPrompt(prompts.KeyAnalyzeFindings, a.templatesDir)
	if err != nil {
		return nil, fmt.Errorf("load analysis prompt: %w", err)
	}

	findings, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode merged records: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(sysPrompt),
		schema.UserMessage(fmt.Sprintf("Merged observations:\n%s", findings)),
	}

	a.log.Debug("requesting analysis", "records", len(records))
	resp, err := a.model.Generate(ctx, messages)
	if err != nil {
		return nil, types.NewExternalServiceError("analysis call failed", err)
	}

	var result models.AnalysisResult
	if err := unmarshalResponse(resp.Content, &result); err != nil {
		return nil, err
	}
	a.log.Debug("analysis response decoded", "severity", result.Severity.Level)
	return &result, nil
}
