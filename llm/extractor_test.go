package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/types"
)

// MockChatModel implements model.BaseChatModel for testing
type MockChatModel struct {
	Response *schema.Message
	Err      error

	LastMessages []*schema.Message
}

func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.LastMessages = input
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported in mock")
}

func TestChatExtractor_Extract(t *testing.T) {
	mock := &MockChatModel{
		Response: &schema.Message{
			Role: schema.Assistant,
			Content: "```json\n" + `{
  "observations": [
    {"area": "kitchen", "description": "Grout failing around the sink", "temperature": null},
    {"area": "roof", "description": "Two cracked shingles", "temperature": "18°C"}
  ]
}` + "\n```",
		},
	}

	ex := NewChatExtractor(mock, "")
	env, err := ex.Extract(context.Background(), "document body", models.SourceInspection)
	require.NoError(t, err)
	require.Len(t, env.Observations, 2)
	assert.Equal(t, "kitchen", env.Observations[0].Area)
	assert.Nil(t, env.Observations[0].Temperature)
	require.NotNil(t, env.Observations[1].Temperature)
	assert.Equal(t, "18°C", *env.Observations[1].Temperature)

	// System prompt plus one user message carrying the document.
	require.Len(t, mock.LastMessages, 2)
	assert.Equal(t, schema.System, mock.LastMessages[0].Role)
	assert.Contains(t, mock.LastMessages[1].Content, "Inspection Report")
	assert.Contains(t, mock.LastMessages[1].Content, "document body")
}

func TestChatExtractor_TransportErrorIsExternalService(t *testing.T) {
	mock := &MockChatModel{Err: errors.New("connection refused")}

	ex := NewChatExtractor(mock, "")
	_, err := ex.Extract(context.Background(), "doc", models.SourceThermal)
	require.Error(t, err)

	var pe *types.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, types.ErrCodeExternalService, pe.Code)
	assert.Contains(t, pe.Message, "Thermal Report")
}

func TestChatExtractor_GarbageResponseIsSchemaViolation(t *testing.T) {
	mock := &MockChatModel{
		Response: &schema.Message{Role: schema.Assistant, Content: "sorry, I cannot help with that"},
	}

	ex := NewChatExtractor(mock, "")
	_, err := ex.Extract(context.Background(), "doc", models.SourceInspection)
	require.Error(t, err)

	var pe *types.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, types.ErrCodeSchemaValidation, pe.Code)
}

func TestChatAnalyzer_Analyze(t *testing.T) {
	mock := &MockChatModel{
		Response: &schema.Message{
			Role: schema.Assistant,
			Content: `{
  "summary": "Moisture is entering through the roof and tracking into the bathroom.",
  "rootCause": "Failed flashing above the bathroom",
  "severity": {"level": "Medium", "reasoning": "Active ingress but no structural damage yet"},
  "recommendedActions": ["Reseat the flashing", "Monitor the bathroom wall for two weeks"]
}`,
		},
	}

	an := NewChatAnalyzer(mock, "")
	records := []models.MergedAreaRecord{
		{Area: models.CanonicalArea{ID: "bathroom", DisplayName: "Bathroom"}},
	}
	result, err := an.Analyze(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMedium, result.Severity.Level)
	assert.Equal(t, "Failed flashing above the bathroom", result.RootCause)
	require.Len(t, result.RecommendedActions, 2)

	// The merged records travel to the model as JSON.
	assert.Contains(t, mock.LastMessages[1].Content, `"bathroom"`)
}

func TestStaticExtractor_FallsBackToEmptyEnvelope(t *testing.T) {
	s := &StaticExtractor{BySource: map[models.SourceType]*models.ExtractionEnvelope{}}
	env, err := s.Extract(context.Background(), "ignored", models.SourceThermal)
	require.NoError(t, err)
	require.NotNil(t, env.Observations)
	assert.Empty(t, env.Observations)
	assert.NoError(t, env.Validate())
}
