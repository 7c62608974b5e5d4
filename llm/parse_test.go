package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/ddrgen/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "json fenced block",
			response: "Here you go:\n```json\n{\"a\": 1}\n```\nDone.",
			want:     `{"a": 1}`,
		},
		{
			name:     "generic fenced block",
			response: "```\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
		},
		{
			name:     "raw object with surrounding prose",
			response: `The result is {"a": {"b": 2}} as requested.`,
			want:     `{"a": {"b": 2}}`,
		},
		{
			name:     "bare object",
			response: `{"observations": []}`,
			want:     `{"observations": []}`,
		},
		{
			name:     "no json at all",
			response: "I could not produce output.",
			want:     "I could not produce output.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.response))
		})
	}
}

func TestUnmarshalResponse_Valid(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	err := unmarshalResponse("```json\n{\"a\": 7}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, 7, out.A)
}

func TestUnmarshalResponse_MalformedIsSchemaViolation(t *testing.T) {
	var out map[string]any
	err := unmarshalResponse("not json at all", &out)
	require.Error(t, err)

	var pe *types.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, types.ErrCodeSchemaValidation, pe.Code)
	assert.True(t, pe.Retryable())
}
