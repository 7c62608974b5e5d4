// Package normalize resolves free-form area labels from extracted
// observations into canonical areas. Resolution is deterministic: exact
// synonym lookups and keyword matching run before the fuzzy fallback, so the
// same input stream always produces the same canonical set.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kestrelhq/ddrgen/internal/logging"
	"github.com/kestrelhq/ddrgen/models"
	"github.com/kestrelhq/ddrgen/types"
)

const unknownAreaID = "unknown"

// synonymTable maps folded variant phrases to their canonical area phrase.
// Matches here short-circuit the similarity fallback.
var synonymTable = map[string]string{
	"hall":         "living room",
	"lounge":       "living room",
	"sitting room": "living room",
	"family room":  "living room",
	"washroom":     "bathroom",
	"restroom":     "bathroom",
	"toilet":       "bathroom",
	"cellar":       "basement",
	"loft":         "attic",
	"rooftop":      "roof",
	"yard":         "exterior",
	"garden":       "exterior",
	"outside":      "exterior",
	"crawl space":  "foundation",
	"guest room":   "bedroom",
	"master suite": "bedroom",
}

// keywordOrder lists canonical phrases checked as substrings of a folded
// label, most specific first. "living room" must precede "bedroom" so that
// labels containing "room" resolve correctly.
var keywordOrder = []string{
	"living room",
	"bedroom",
	"kitchen",
	"bathroom",
	"roof",
	"basement",
	"attic",
	"exterior",
	"foundation",
}

// Normalizer folds raw area labels into a canonical area registry. It is not
// safe for concurrent use; the merge stage drives it from a single goroutine.
type Normalizer struct {
	threshold float64
	titler    cases.Caser

	areas    map[string]*models.CanonicalArea
	order    []string
	aliasIdx map[string]string
	warnings []types.Warning
	log      *slog.Logger
}

// New returns a Normalizer that attaches a label to an existing area when the
// label similarity meets threshold.
func New(threshold float64) *Normalizer {
	return &Normalizer{
		threshold: threshold,
		titler:    cases.Title(language.English),
		areas:     make(map[string]*models.CanonicalArea),
		aliasIdx:  make(map[string]string),
		log:       logging.New("normalize"),
	}
}

// Normalize resolves a raw label to its canonical area, registering a new
// area when nothing matches. Repeated calls with the same label return the
// same area.
func (n *Normalizer) Normalize(raw string) *models.CanonicalArea {
	folded := NormalizeText(raw)
	if folded == "" {
		folded = unknownAreaID
	}

	if id, ok := n.aliasIdx[folded]; ok {
		return n.areas[id]
	}

	if canonical, ok := synonymTable[folded]; ok {
		return n.attach(canonical, folded)
	}

	for _, kw := range keywordOrder {
		if strings.Contains(folded, kw) {
			return n.attach(kw, folded)
		}
	}

	if id, ambiguous := n.closestArea(folded); id != "" {
		if ambiguous {
			n.warnings = append(n.warnings, types.NewMergeAmbiguityWarning(folded,
				fmt.Sprintf("label %q matches multiple existing areas; keeping it separate", raw)))
			n.log.Warn("ambiguous area label kept separate", "label", raw)
			return n.register(folded, folded)
		}
		n.log.Debug("area label folded into existing area", "label", raw, "area", id)
		return n.attach(id, folded)
	}

	return n.register(folded, folded)
}

// Areas returns the canonical areas in first-seen order.
func (n *Normalizer) Areas() []*models.CanonicalArea {
	out := make([]*models.CanonicalArea, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.areas[id])
	}
	return out
}

// Warnings returns the ambiguity warnings accumulated so far.
func (n *Normalizer) Warnings() []types.Warning {
	return n.warnings
}

// closestArea scans existing areas for similarity matches at or above the
// threshold. It returns the single best match, or ambiguous=true when two or
// more areas tie above the threshold.
func (n *Normalizer) closestArea(folded string) (id string, ambiguous bool) {
	best := ""
	bestScore := 0.0
	matches := 0
	for _, existing := range n.order {
		score := LabelSimilarity(folded, existing)
		if score >= n.threshold {
			matches++
			if score > bestScore {
				best = existing
				bestScore = score
			}
		}
	}
	if matches == 0 {
		return "", false
	}
	return best, matches > 1
}

// attach records folded as an alias of the area identified by canonical,
// creating the area if this is its first sighting.
func (n *Normalizer) attach(canonical, folded string) *models.CanonicalArea {
	area, ok := n.areas[canonical]
	if !ok {
		area = n.register(canonical, canonical)
	}
	if folded != canonical {
		area.Aliases = append(area.Aliases, folded)
	}
	n.aliasIdx[folded] = canonical
	return area
}

func (n *Normalizer) register(id, folded string) *models.CanonicalArea {
	area := &models.CanonicalArea{
		ID:          id,
		DisplayName: n.titler.String(id),
	}
	n.areas[id] = area
	n.order = append(n.order, id)
	n.aliasIdx[folded] = id
	return area
}
