package merge

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	unitPattern = regexp.MustCompile(`(?i)([-+]?\d+(?:\.\d+)?)\s*°?\s*([cf])\b`)
	barePattern = regexp.MustCompile(`^[-+]?\d+(?:\.\d+)?\s*°?$`)
)

// parseCelsius extracts a numeric temperature from a free-text reading and
// returns it in Celsius. Readings without a unit ("22", "22°") are assumed to
// be Celsius already. Returns ok=false for textual readings ("normal",
// "elevated") so callers fall back to indicator-based comparison.
func parseCelsius(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if m := unitPattern.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		if strings.EqualFold(m[2], "f") {
			v = (v - 32) * 5 / 9
		}
		return v, true
	}
	if barePattern.MatchString(s) {
		v, err := strconv.ParseFloat(strings.TrimRight(strings.TrimSpace(s), "° "), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// contradictsReading reports whether a description asserts a temperature
// condition that a textual reading denies: "high temperature" against a
// "normal" reading, or "cold" against a "high" one.
func contradictsReading(description, reading string) bool {
	d := strings.ToLower(description)
	r := strings.ToLower(reading)
	if strings.Contains(d, "high temperature") && strings.Contains(r, "normal") {
		return true
	}
	if strings.Contains(d, "cold") && strings.Contains(r, "high") {
		return true
	}
	return false
}
