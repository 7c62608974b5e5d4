// Package merge reconciles observations from both source documents into one
// conflict-aware record per canonical area. The engine is pure computation:
// deterministic for a given observation stream and configuration, with no
// external calls.
package merge

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/kestrelhq/ddrgen/internal/logging"
	"github.com/kestrelhq/ddrgen/internal/normalize"
	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/types"
)

// Config holds the merge thresholds. DedupThreshold applies to description
// texts within one area and must be tighter than AreaSimilarityThreshold,
// which governs folding of area labels.
type Config struct {
	AreaSimilarityThreshold float64
	DedupThreshold          float64
	TemperatureToleranceC   float64
}

// Result is the merge stage output: records in first-seen area order plus the
// counters the run diagnostics report.
type Result struct {
	Records           []models.MergedAreaRecord
	Warnings          []types.Warning
	DuplicatesRemoved int
	ConflictsFound    int
}

// Engine merges observation streams. Safe to reuse across runs; each Merge
// call builds its own area registry.
type Engine struct {
	cfg Config
	log *slog.Logger
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, log: logging.New("merge")}
}

type areaGroup struct {
	area *models.CanonicalArea
	obs  []models.Observation
}

// Merge groups the combined observation stream by canonical area and
// reconciles each group. The stream must already be in source order
// (inspection first, then thermal) so first-seen ordering is reproducible.
func (e *Engine) Merge(observations []models.Observation) (*Result, error) {
	res := &Result{}
	norm := normalize.New(e.cfg.AreaSimilarityThreshold)

	groups := make(map[string]*areaGroup)
	var order []string

	for _, obs := range observations {
		if obs.Malformed() {
			area := strings.TrimSpace(obs.Area)
			if area == "" {
				area = "unknown"
			}
			res.Warnings = append(res.Warnings, types.NewDataQualityWarning(area,
				fmt.Sprintf("dropping observation %d from %s: area or description missing", obs.RawIndex, obs.Source.Label())))
			e.log.Warn("malformed observation dropped", "source", obs.Source, "raw_index", obs.RawIndex)
			continue
		}
		area := norm.Normalize(obs.Area)
		g, ok := groups[area.ID]
		if !ok {
			g = &areaGroup{area: area}
			groups[area.ID] = g
			order = append(order, area.ID)
		}
		g.obs = append(g.obs, obs)
	}
	res.Warnings = append(res.Warnings, norm.Warnings()...)

	for _, id := range order {
		rec, dups, err := e.mergeGroup(groups[id])
		if err != nil {
			return nil, err
		}
		res.DuplicatesRemoved += dups
		res.ConflictsFound += len(rec.Conflicts)
		res.Records = append(res.Records, rec)
	}

	e.log.Info("merge complete",
		"areas", len(res.Records),
		"conflicts", res.ConflictsFound,
		"duplicates_removed", res.DuplicatesRemoved,
		"warnings", len(res.Warnings))
	return res, nil
}

func (e *Engine) mergeGroup(g *areaGroup) (models.MergedAreaRecord, int, error) {
	if len(g.obs) == 0 {
		return models.MergedAreaRecord{}, 0, types.NewInternalError(
			fmt.Sprintf("area %q registered without observations", g.area.ID))
	}

	rec := models.MergedAreaRecord{Area: *g.area}
	for _, s := range []models.SourceType{models.SourceInspection, models.SourceThermal} {
		for _, o := range g.obs {
			if o.Source == s {
				rec.Sources = append(rec.Sources, s)
				break
			}
		}
	}

	entries, dups := e.dedupeDescriptions(g.obs)
	for _, en := range entries {
		rec.Descriptions = append(rec.Descriptions, en.text)
	}

	readings, conflicts := e.reconcileTemperatures(g.obs)
	rec.TemperatureReadings = readings
	rec.Conflicts = conflicts

	if note, ok := e.contradictionNote(entries, readings); ok {
		rec.Conflicts = append(rec.Conflicts, note)
	}

	switch len(rec.Sources) {
	case 2:
		rec.Completeness = models.CompletenessComplete
	case 1:
		rec.Completeness = models.CompletenessPartialSingleSource
	default:
		rec.Completeness = models.CompletenessNoData
	}
	return rec, dups, nil
}

type descEntry struct {
	text   string
	source models.SourceType
}

// dedupeDescriptions collapses near-identical description texts within one
// area, keeping the longer text of each duplicate pair and counting discards.
func (e *Engine) dedupeDescriptions(obs []models.Observation) ([]descEntry, int) {
	entries := make([]descEntry, 0, len(obs))
	for _, o := range obs {
		entries = append(entries, descEntry{text: strings.TrimSpace(o.Description), source: o.Source})
	}

	merged := make([]bool, len(entries))
	out := make([]descEntry, 0, len(entries))
	removed := 0
	for i := 0; i < len(entries); i++ {
		if merged[i] {
			continue
		}
		keep := entries[i]
		for j := i + 1; j < len(entries); j++ {
			if merged[j] {
				continue
			}
			sim := normalize.TextSimilarity(keep.text, entries[j].text)
			if sim >= e.cfg.DedupThreshold {
				if len(entries[j].text) > len(keep.text) {
					keep = entries[j]
				}
				merged[j] = true
				removed++
				e.log.Debug("duplicate description collapsed", "similarity", sim, "kept", keep.text)
			}
		}
		out = append(out, keep)
	}
	return out, removed
}

type reading struct {
	text    string
	sources []models.SourceType
	value   float64
	numeric bool
}

// reconcileTemperatures collapses agreeing readings into one attributed value
// and emits a conflict note for each numeric pair diverging beyond tolerance.
func (e *Engine) reconcileTemperatures(obs []models.Observation) ([]models.TemperatureReading, []models.ConflictNote) {
	var readings []reading
	for _, o := range obs {
		if !o.HasTemperature() {
			continue
		}
		text := strings.TrimSpace(*o.Temperature)
		if strings.EqualFold(text, "not available") || strings.EqualFold(text, "n/a") {
			continue
		}
		key := normalize.NormalizeText(text)
		idx := -1
		for i := range readings {
			if normalize.NormalizeText(readings[i].text) == key {
				idx = i
				break
			}
		}
		if idx >= 0 {
			readings[idx].sources = appendSource(readings[idx].sources, o.Source)
			continue
		}
		v, ok := parseCelsius(text)
		readings = append(readings, reading{
			text:    text,
			sources: []models.SourceType{o.Source},
			value:   v,
			numeric: ok,
		})
	}

	var conflicts []models.ConflictNote
	merged := make([]bool, len(readings))
	for i := 0; i < len(readings); i++ {
		if merged[i] {
			continue
		}
		for j := i + 1; j < len(readings); j++ {
			if merged[j] || !readings[i].numeric || !readings[j].numeric {
				continue
			}
			diff := math.Abs(readings[i].value - readings[j].value)
			if diff <= e.cfg.TemperatureToleranceC {
				// Agreement: first-seen value stays representative.
				for _, s := range readings[j].sources {
					readings[i].sources = appendSource(readings[i].sources, s)
				}
				merged[j] = true
				continue
			}
			conflicts = append(conflicts, models.ConflictNote{
				Field:   "temperature",
				ValueA:  readings[i].text,
				SourceA: readings[i].sources[0],
				ValueB:  readings[j].text,
				SourceB: readings[j].sources[0],
				Note: fmt.Sprintf("readings differ by %.1f°C, beyond the %.1f°C tolerance",
					diff, e.cfg.TemperatureToleranceC),
			})
		}
	}

	var out []models.TemperatureReading
	for i, r := range readings {
		if merged[i] {
			continue
		}
		out = append(out, models.TemperatureReading{Value: r.text, Sources: r.sources})
	}
	return out, conflicts
}

// contradictionNote flags the first description whose asserted temperature
// condition a textual reading denies. At most one note per area.
func (e *Engine) contradictionNote(entries []descEntry, readings []models.TemperatureReading) (models.ConflictNote, bool) {
	for _, en := range entries {
		for _, r := range readings {
			if contradictsReading(en.text, r.Value) {
				return models.ConflictNote{
					Field:   "temperature",
					ValueA:  en.text,
					SourceA: en.source,
					ValueB:  r.Value,
					SourceB: r.Sources[0],
					Note:    "temperature reading contradicts the issue description",
				}, true
			}
		}
	}
	return models.ConflictNote{}, false
}

func appendSource(sources []models.SourceType, s models.SourceType) []models.SourceType {
	for _, existing := range sources {
		if existing == s {
			return sources
		}
	}
	return append(sources, s)
}
