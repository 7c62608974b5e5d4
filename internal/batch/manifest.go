// Package batch runs the report pipeline across a manifest of properties
// with a bounded worker pool, and can keep the manifest's input documents
// under watch so changed properties are re-run automatically.
package batch

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Entry is one property in a batch manifest.
type Entry struct {
	PropertyID     string `json:"propertyId" yaml:"propertyId"`
	InspectionPath string `json:"inspection" yaml:"inspection"`
	ThermalPath    string `json:"thermal" yaml:"thermal"`
}

// Manifest lists the properties one batch run covers.
type Manifest struct {
	Properties []Entry `json:"properties" yaml:"properties"`
}

// LoadManifest reads and validates a manifest. The format follows the file
// extension: .json, .yaml or .yml.
func LoadManifest(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (use .json, .yaml or .yml)", filepath.Ext(path))
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks that every entry is complete and property IDs are unique.
// Duplicate IDs would collide on the per-property output filenames.
func (m *Manifest) Validate() error {
	if len(m.Properties) == 0 {
		return fmt.Errorf("no properties listed")
	}

	seen := make(map[string]bool, len(m.Properties))
	for i, e := range m.Properties {
		if strings.TrimSpace(e.PropertyID) == "" {
			return fmt.Errorf("entry %d: propertyId is required", i)
		}
		if strings.TrimSpace(e.InspectionPath) == "" || strings.TrimSpace(e.ThermalPath) == "" {
			return fmt.Errorf("entry %s: inspection and thermal paths are required", e.PropertyID)
		}
		if seen[e.PropertyID] {
			return fmt.Errorf("duplicate property id %q", e.PropertyID)
		}
		seen[e.PropertyID] = true
	}
	return nil
}
