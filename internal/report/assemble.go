// Package report turns the merged record set and analysis result into the
// final seven-section diagnostic report. Assembly is a deterministic
// transform: the same records and analysis always produce byte-identical
// structured output, and no field is invented here.
package report

import (
	"fmt"
	"strings"

	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/types"
)

const notAvailable = "Not Available"

// Assemble builds the report from the merged records, the analysis result and
// the run warnings. Analyzer text is copied through unmodified after a
// non-empty check; area entries carry record fields verbatim.
func Assemble(records []models.MergedAreaRecord, analysis *models.AnalysisResult, warnings []types.Warning) (*models.DDRReport, error) {
	if analysis == nil {
		return nil, types.NewInternalError("analysis result is nil at assembly")
	}
	if strings.TrimSpace(analysis.Summary) == "" {
		return nil, types.NewInternalError("analyzer returned an empty summary")
	}
	if strings.TrimSpace(analysis.RootCause) == "" {
		return nil, types.NewInternalError("analyzer returned an empty root cause")
	}
	if len(analysis.RecommendedActions) == 0 {
		return nil, types.NewInternalError("analyzer returned no recommended actions")
	}

	rep := &models.DDRReport{
		PropertyIssueSummary: analysis.Summary,
		AreaObservations:     make([]models.AreaObservation, 0, len(records)),
		RootCauseAnalysis:    analysis.RootCause,
		SeverityAssessment:   analysis.Severity,
		RecommendedActions:   analysis.RecommendedActions,
		MissingInformation:   make([]string, 0, len(warnings)),
	}

	var conflictLines []string
	for _, rec := range records {
		entry := models.AreaObservation{
			Area:        rec.Area.DisplayName,
			Description: strings.Join(rec.Descriptions, " | "),
			Temperature: rec.Temperature(),
		}
		if entry.Temperature == "" {
			entry.Temperature = notAvailable
		}

		var notes []string
		for _, c := range rec.Conflicts {
			text := conflictText(c)
			notes = append(notes, text)
			conflictLines = append(conflictLines, fmt.Sprintf("%s: %s", rec.Area.DisplayName, text))
		}
		entry.Notes = strings.Join(notes, "; ")
		rep.AreaObservations = append(rep.AreaObservations, entry)

		if rec.Completeness == models.CompletenessPartialSingleSource {
			if rec.HasSource(models.SourceInspection) {
				rep.MissingInformation = append(rep.MissingInformation,
					rec.Area.DisplayName+": No thermal data available")
			} else {
				rep.MissingInformation = append(rep.MissingInformation,
					rec.Area.DisplayName+": Only thermal data available")
			}
		}
		if len(rec.TemperatureReadings) == 0 {
			rep.MissingInformation = append(rep.MissingInformation,
				rec.Area.DisplayName+": Temperature data missing")
		}
	}

	for _, w := range warnings {
		rep.MissingInformation = append(rep.MissingInformation, w.String())
	}

	if len(conflictLines) > 0 {
		rep.AdditionalNotes = strings.Join(conflictLines, "\n")
	} else {
		rep.AdditionalNotes = "No conflicts were detected."
	}
	return rep, nil
}

// conflictText renders one conflict note with both values and attributions.
func conflictText(c models.ConflictNote) string {
	return fmt.Sprintf("%s conflict: %s (%s) vs %s (%s); %s",
		c.Field, c.ValueA, c.SourceA.Label(), c.ValueB, c.SourceB.Label(), c.Note)
}
