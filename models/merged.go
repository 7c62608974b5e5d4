package models

// Completeness describes which sources contributed to a merged area record.
type Completeness string

const (
	// CompletenessComplete means both sources contributed observations.
	CompletenessComplete Completeness = "Complete"
	// CompletenessPartialSingleSource means exactly one source contributed.
	CompletenessPartialSingleSource Completeness = "PartialSingleSource"
	// CompletenessNoData marks a canonical area registered without any
	// surviving observation. Should not occur; treated as an
	// internal-consistency failure when it does.
	CompletenessNoData Completeness = "NoData"
)

// CanonicalArea is the deduplicated identity of a physical location across
// both source documents. Areas are created lazily during normalization and
// are scoped to a single run: the same label may map to a different ID in a
// different run.
type CanonicalArea struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Aliases     []string `json:"aliases,omitempty"`
}

// TemperatureReading is one reading attributed to the sources that reported
// it. When both sources agree within tolerance a single representative
// reading carries both attributions.
type TemperatureReading struct {
	Value   string       `json:"value"`
	Sources []SourceType `json:"sources"`
}

// ConflictNote records a pair of observations for the same area and field
// whose values disagree beyond tolerance. Produced only by the merge engine;
// read-only downstream.
type ConflictNote struct {
	Field   string     `json:"field"`
	ValueA  string     `json:"valueA"`
	SourceA SourceType `json:"sourceA"`
	ValueB  string     `json:"valueB"`
	SourceB SourceType `json:"sourceB"`
	Note    string     `json:"note"`
}

// MergedAreaRecord is the consolidated, conflict-aware record for one
// canonical area. Built once per run from all observations sharing the area;
// never mutated after the merge stage completes.
type MergedAreaRecord struct {
	Area                CanonicalArea        `json:"area"`
	Descriptions        []string             `json:"descriptions"`
	TemperatureReadings []TemperatureReading `json:"temperatureReadings,omitempty"`
	Sources             []SourceType         `json:"sources"`
	Conflicts           []ConflictNote       `json:"conflicts,omitempty"`
	Completeness        Completeness         `json:"completeness"`
}

// HasSource reports whether the given source contributed to the record.
func (r MergedAreaRecord) HasSource(s SourceType) bool {
	for _, src := range r.Sources {
		if src == s {
			return true
		}
	}
	return false
}

// Temperature returns the representative reading, or empty when none exists.
// The first reading is representative: readings are appended in first-seen
// order and agreeing values are collapsed into one entry.
func (r MergedAreaRecord) Temperature() string {
	if len(r.TemperatureReadings) == 0 {
		return ""
	}
	return r.TemperatureReadings[0].Value
}
