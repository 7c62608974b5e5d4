package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kestrelhq/ddrgen/models"
)

// WriteFiles persists one report as ddr_<propertyID>.json plus the formatted
// ddr_<propertyID>_formatted.txt rendering, both under outputDir. It returns
// the two paths written.
func WriteFiles(fs afero.Fs, outputDir, propertyID string, rep *models.DDRReport) (jsonPath, textPath string, err error) {
	if rep == nil {
		return "", "", fmt.Errorf("nil report for property %s", propertyID)
	}
	if err := fs.MkdirAll(outputDir, 0755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal report: %w", err)
	}

	jsonPath = filepath.Join(outputDir, fmt.Sprintf("ddr_%s.json", propertyID))
	if err := afero.WriteFile(fs, jsonPath, append(data, '\n'), 0644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", jsonPath, err)
	}

	textPath = filepath.Join(outputDir, fmt.Sprintf("ddr_%s_formatted.txt", propertyID))
	if err := afero.WriteFile(fs, textPath, []byte(Render(rep)+"\n"), 0644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", textPath, err)
	}

	return jsonPath, textPath, nil
}
