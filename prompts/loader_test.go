package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetPrompt(t *testing.T) {
	tests := []struct {
		name      string
		promptKey PromptKey
		wantError bool
		contains  []string
	}{
		{
			name:      "extract observations prompt",
			promptKey: KeyExtractObservations,
			wantError: false,
			contains:  []string{"observation", "temperature", "json"},
		},
		{
			name:      "analyze findings prompt",
			promptKey: KeyAnalyzeFindings,
			wantError: false,
			contains:  []string{"rootcause", "severity", "recommendedactions"},
		},
		{
			name:      "unknown key",
			promptKey: PromptKey("Nope"),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := GetPrompt(tt.promptKey, "")
			if (err != nil) != tt.wantError {
				t.Errorf("GetPrompt() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if tt.wantError {
				return
			}
			promptLower := strings.ToLower(prompt)
			for _, expected := range tt.contains {
				if !strings.Contains(promptLower, strings.ToLower(expected)) {
					t.Errorf("prompt %s does not contain %q", tt.promptKey, expected)
				}
			}
		})
	}
}

func TestGetPrompt_CustomOverride(t *testing.T) {
	templatesDir := t.TempDir()
	custom := "custom extraction instructions"
	path := filepath.Join(templatesDir, "extract_observations_prompt.txt")
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("write custom prompt: %v", err)
	}

	prompt, err := GetPrompt(KeyExtractObservations, templatesDir)
	if err != nil {
		t.Fatalf("GetPrompt() error = %v", err)
	}
	if prompt != custom {
		t.Errorf("expected custom prompt content, got %q", prompt)
	}

	// Analysis prompt has no override file; the default should be returned.
	fallback, err := GetPrompt(KeyAnalyzeFindings, templatesDir)
	if err != nil {
		t.Fatalf("GetPrompt() error = %v", err)
	}
	if fallback != AnalyzeFindingsSystemPrompt {
		t.Error("expected default analysis prompt when no override exists")
	}
}
