package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/kestrelhq/ddrgen/internal/logging"
	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/prompts"
	"github.com/kestrelhq/ddrgen/types"
)

// Extractor turns one source document into the structured observation
// envelope. Implementations return whatever the model produced; shape
// validation and retry live in the orchestrator's call wrapper, not here.
type Extractor interface {
	Extract(ctx context.Context, documentText string, source models.SourceType) (*models.ExtractionEnvelope, error)
}

// ChatExtractor is the production Extractor, backed by an Eino chat model.
type ChatExtractor struct {
	model        model.BaseChatModel
	templatesDir string
	log          *slog.Logger
}

var _ Extractor = (*ChatExtractor)(nil)

// NewChatExtractor wraps a chat model. templatesDir may be empty; it only
// enables prompt overrides on disk.
func NewChatExtractor(m model.BaseChatModel, templatesDir string) *ChatExtractor {
	return &ChatExtractor{model: m, templatesDir: templatesDir, log: logging.New("extractor")}
}

func (e *ChatExtractor) Extract(ctx context.Context, documentText string, source models.SourceType) (*models.ExtractionEnvelope, error) {
	sysPrompt, err := prompts.GetPrompt(prompts.KeyExtractObservations, e.templatesDir)
	if err != nil {
		return nil, fmt.Errorf("load extraction prompt: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(sysPrompt),
		schema.UserMessage(fmt.Sprintf("Document type: %s\n\nDocument content:\n%s", source.Label(), documentText)),
	}

	e.log.Debug("requesting extraction", "source", source, "document_bytes", len(documentText))
	resp, err := e.model.Generate(ctx, messages)
	if err != nil {
		return nil, types.NewExternalServiceError(fmt.Sprintf("%s extraction call failed", source.Label()), err)
	}

	var envelope models.ExtractionEnvelope
	if err := unmarshalResponse(resp.Content, &envelope); err != nil {
		return nil, err
	}
	e.log.Debug("extraction response decoded", "source", source, "observations", len(envelope.Observations))
	return &envelope, nil
}
