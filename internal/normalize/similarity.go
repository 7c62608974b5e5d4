package normalize

import (
	"strings"
	"unicode"
)

// NormalizeText lowercases text, strips punctuation and collapses whitespace
// so that near-identical phrasings compare equal.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// Punctuation becomes a space so "ceiling,stained" still splits.
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits normalized text into word tokens.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// TokenJaccard computes the Jaccard similarity of two token slices:
// |A ∩ B| / |A ∪ B|. Returns 1 when both are empty.
func TokenJaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

// TextSimilarity is the token-level similarity of two raw texts, used for
// description deduplication.
func TextSimilarity(a, b string) float64 {
	return TokenJaccard(Tokenize(NormalizeText(a)), Tokenize(NormalizeText(b)))
}

// LabelSimilarity is the character-bigram Dice coefficient of two short
// labels. Bigrams catch typos and spacing variants ("bathrom", "livingroom")
// that word tokens miss on one- or two-word area names.
func LabelSimilarity(a, b string) float64 {
	ba := bigrams(NormalizeText(a))
	bb := bigrams(NormalizeText(b))
	if len(ba) == 0 && len(bb) == 0 {
		return 1
	}
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	counts := make(map[string]int, len(ba))
	for _, g := range ba {
		counts[g]++
	}
	matches := 0
	for _, g := range bb {
		if counts[g] > 0 {
			counts[g]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(len(ba)+len(bb))
}

func bigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		if len(runes) == 0 {
			return nil
		}
		return []string{string(runes)}
	}
	out := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		out = append(out, string(runes[i:i+2]))
	}
	return out
}
