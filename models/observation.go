package models

import (
	"fmt"
	"strings"
)

// SourceType identifies which document an observation came from.
type SourceType string

const (
	SourceInspection SourceType = "Inspection"
	SourceThermal    SourceType = "Thermal"
)

// Label returns the document-type label used in prompts and evidence strings.
func (s SourceType) Label() string {
	switch s {
	case SourceInspection:
		return "Inspection Report"
	case SourceThermal:
		return "Thermal Report"
	default:
		return string(s)
	}
}

// Observation is a single extracted fact tied to one area and one source
// document. Immutable once extracted; Temperature is nil when the document
// did not mention a reading.
type Observation struct {
	Area        string     `json:"area"`
	Description string     `json:"description"`
	Temperature *string    `json:"temperature,omitempty"`
	Source      SourceType `json:"source"`
	// RawIndex is the observation's position in the extractor output,
	// preserved for first-seen ordering across the combined stream.
	RawIndex int `json:"rawIndex"`
}

// HasTemperature reports whether the observation carries a non-empty reading.
func (o Observation) HasTemperature() bool {
	return o.Temperature != nil && strings.TrimSpace(*o.Temperature) != ""
}

// Malformed reports whether the observation is unusable (missing area or
// description). Malformed observations are dropped with a data-quality
// warning rather than failing the run.
func (o Observation) Malformed() bool {
	return strings.TrimSpace(o.Area) == "" || strings.TrimSpace(o.Description) == ""
}

// RawObservation is the extractor wire format for a single observation.
// Temperature is null when no reading was mentioned.
type RawObservation struct {
	Area        string  `json:"area"`
	Description string  `json:"description"`
	Temperature *string `json:"temperature"`
}

// ExtractionEnvelope is the extractor wire format. A nil Observations slice
// means the response was missing the observations array entirely, which is a
// schema violation; an empty array is a valid response for a document with
// nothing to report.
type ExtractionEnvelope struct {
	Observations []RawObservation `json:"observations"`
}

// ToObservations converts wire records into domain observations tagged with
// their source and raw position.
func (e ExtractionEnvelope) ToObservations(source SourceType) []Observation {
	out := make([]Observation, 0, len(e.Observations))
	for i, raw := range e.Observations {
		temp := raw.Temperature
		if temp != nil && *temp == "" {
			temp = nil
		}
		out = append(out, Observation{
			Area:        raw.Area,
			Description: raw.Description,
			Temperature: temp,
			Source:      source,
			RawIndex:    i,
		})
	}
	return out
}

// Validate checks the envelope shape. Per-observation field problems are data
// quality issues handled downstream, not schema violations.
func (e ExtractionEnvelope) Validate() error {
	if e.Observations == nil {
		return fmt.Errorf("response is missing the observations array")
	}
	return nil
}
