package report

import (
	"fmt"
	"strings"

	"github.com/kestrelhq/ddrgen/models"
)

var (
	banner = strings.Repeat("=", 80)
	rule   = strings.Repeat("-", 80)
)

// Render formats the report for terminal display and the formatted-text
// artifact. Layout is fixed: seven numbered sections between banners.
func Render(ddr *models.DDRReport) string {
	var out []string
	out = append(out, banner)
	out = append(out, "DETAILED DIAGNOSTIC REPORT (DDR)")
	out = append(out, banner)
	out = append(out, "")

	out = append(out, "1. PROPERTY ISSUE SUMMARY")
	out = append(out, rule)
	out = append(out, fallback(ddr.PropertyIssueSummary, notAvailable))
	out = append(out, "")

	out = append(out, "2. AREA-WISE OBSERVATIONS")
	out = append(out, rule)
	for i, obs := range ddr.AreaObservations {
		out = append(out, fmt.Sprintf("\n%d. %s", i+1, strings.ToUpper(obs.Area)))
		out = append(out, "   Description: "+fallback(obs.Description, notAvailable))
		out = append(out, "   Temperature: "+fallback(obs.Temperature, notAvailable))
		if obs.Notes != "" {
			out = append(out, "   Notes: "+obs.Notes)
		}
	}
	out = append(out, "")

	out = append(out, "3. PROBABLE ROOT CAUSE")
	out = append(out, rule)
	out = append(out, fallback(ddr.RootCauseAnalysis, notAvailable))
	out = append(out, "")

	out = append(out, "4. SEVERITY ASSESSMENT")
	out = append(out, rule)
	out = append(out, "Level: "+fallback(string(ddr.SeverityAssessment.Level), notAvailable))
	out = append(out, "Reasoning: "+fallback(ddr.SeverityAssessment.Reasoning, notAvailable))
	out = append(out, "")

	out = append(out, "5. RECOMMENDED ACTIONS")
	out = append(out, rule)
	if len(ddr.RecommendedActions) > 0 {
		for i, action := range ddr.RecommendedActions {
			out = append(out, fmt.Sprintf("%d. %s", i+1, action))
		}
	} else {
		out = append(out, notAvailable)
	}
	out = append(out, "")

	out = append(out, "6. ADDITIONAL NOTES")
	out = append(out, rule)
	out = append(out, fallback(ddr.AdditionalNotes, "None"))
	out = append(out, "")

	out = append(out, "7. MISSING OR UNCLEAR INFORMATION")
	out = append(out, rule)
	if len(ddr.MissingInformation) > 0 {
		for i, item := range ddr.MissingInformation {
			out = append(out, fmt.Sprintf("%d. %s", i+1, item))
		}
	} else {
		out = append(out, "All required information is available")
	}
	out = append(out, "")

	out = append(out, banner)
	out = append(out, "END OF REPORT")
	out = append(out, banner)

	return strings.Join(out, "\n")
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
