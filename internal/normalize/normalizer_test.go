package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_SynonymsFoldIntoCanonicalArea(t *testing.T) {
	n := New(0.80)

	living := n.Normalize("Lounge")
	assert.Equal(t, "living room", living.ID)
	assert.Equal(t, "Living Room", living.DisplayName)

	again := n.Normalize("sitting room")
	assert.Same(t, living, again)
	assert.Contains(t, living.Aliases, "lounge")
	assert.Contains(t, living.Aliases, "sitting room")

	bath := n.Normalize("Washroom")
	assert.Equal(t, "bathroom", bath.ID)

	require.Len(t, n.Areas(), 2)
}

func TestNormalize_KeywordSubstringMatch(t *testing.T) {
	n := New(0.80)

	master := n.Normalize("Master Bedroom")
	assert.Equal(t, "bedroom", master.ID)

	upstairs := n.Normalize("upstairs living room (north)")
	assert.Equal(t, "living room", upstairs.ID)
	assert.Contains(t, upstairs.Aliases, "upstairs living room north")
}

func TestNormalize_TypoFoldsViaSimilarity(t *testing.T) {
	n := New(0.80)

	bath := n.Normalize("bathroom")
	typo := n.Normalize("bathrom")

	assert.Same(t, bath, typo)
	assert.Contains(t, bath.Aliases, "bathrom")
	require.Len(t, n.Areas(), 1)
}

func TestNormalize_DistinctLabelsStaySeparate(t *testing.T) {
	n := New(0.80)

	garage := n.Normalize("garage")
	storage := n.Normalize("garbage area")

	assert.NotSame(t, garage, storage)
	require.Len(t, n.Areas(), 2)
	assert.Empty(t, n.Warnings())
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(0.80)

	first := n.Normalize("Kitchen")
	second := n.Normalize("kitchen")
	third := n.Normalize("  KITCHEN  ")

	assert.Same(t, first, second)
	assert.Same(t, first, third)
	require.Len(t, n.Areas(), 1)
}

func TestNormalize_AmbiguousLabelKeptSeparate(t *testing.T) {
	// A low threshold makes two established areas plausible matches for the
	// same label; the label must then stand alone rather than guess.
	n := New(0.50)

	n.Normalize("bathroom")
	n.Normalize("bedroom")

	odd := n.Normalize("badroom")
	assert.Equal(t, "badroom", odd.ID)
	require.Len(t, n.Areas(), 3)

	warnings := n.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "badroom", warnings[0].Area)
	assert.Contains(t, warnings[0].Message, "multiple existing areas")
}

func TestNormalize_EmptyLabelMapsToUnknown(t *testing.T) {
	n := New(0.80)

	area := n.Normalize("   ")
	assert.Equal(t, "unknown", area.ID)
	assert.Equal(t, "Unknown", area.DisplayName)
}

func TestNormalize_FirstSeenOrderPreserved(t *testing.T) {
	n := New(0.80)

	n.Normalize("roof")
	n.Normalize("basement")
	n.Normalize("attic")

	areas := n.Areas()
	require.Len(t, areas, 3)
	assert.Equal(t, "roof", areas[0].ID)
	assert.Equal(t, "basement", areas[1].ID)
	assert.Equal(t, "attic", areas[2].ID)
}

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "water stain on ceiling", "water stain on ceiling", 1.0, 1.0},
		{"reordered tokens", "stain on ceiling water", "water stain on ceiling", 1.0, 1.0},
		{"punctuation ignored", "Water stain, on ceiling.", "water stain on ceiling", 1.0, 1.0},
		{"partial overlap", "water stain on ceiling", "water stain near window", 0.3, 0.5},
		{"disjoint", "mold in basement", "roof shingles cracked", 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextSimilarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestLabelSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, LabelSimilarity("bathroom", "Bathroom"))
	assert.GreaterOrEqual(t, LabelSimilarity("bathrom", "bathroom"), 0.80)
	assert.Less(t, LabelSimilarity("bedroom", "bathroom"), 0.60)
	assert.Equal(t, 1.0, LabelSimilarity("", ""))
	assert.Equal(t, 0.0, LabelSimilarity("", "kitchen"))
}
