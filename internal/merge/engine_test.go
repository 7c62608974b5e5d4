package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/ddrgen/models"
)

func testConfig() Config {
	return Config{
		AreaSimilarityThreshold: 0.80,
		DedupThreshold:          0.85,
		TemperatureToleranceC:   5.0,
	}
}

func obs(area, desc, temp string, source models.SourceType, idx int) models.Observation {
	o := models.Observation{Area: area, Description: desc, Source: source, RawIndex: idx}
	if temp != "" {
		o.Temperature = &temp
	}
	return o
}

func TestMerge_DivergentTemperaturesProduceOneConflict(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("Bathroom", "Damp patch behind the shower wall", "20°C", models.SourceInspection, 0),
		obs("Bathroom", "Thermal anomaly on the shower wall", "35°C", models.SourceThermal, 0),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	require.Len(t, rec.Conflicts, 1)
	assert.Equal(t, 1, res.ConflictsFound)

	c := rec.Conflicts[0]
	assert.Equal(t, "temperature", c.Field)
	assert.Equal(t, "20°C", c.ValueA)
	assert.Equal(t, models.SourceInspection, c.SourceA)
	assert.Equal(t, "35°C", c.ValueB)
	assert.Equal(t, models.SourceThermal, c.SourceB)
	assert.Contains(t, c.Note, "tolerance")

	// Conflicting readings stay side by side rather than being collapsed.
	require.Len(t, rec.TemperatureReadings, 2)
	assert.Equal(t, models.CompletenessComplete, rec.Completeness)
}

func TestMerge_AgreeingTemperaturesCollapse(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("Attic", "Insulation gap near the hatch", "20°C", models.SourceInspection, 0),
		obs("Attic", "Cold spot above the hatch", "22°C", models.SourceThermal, 0),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Empty(t, rec.Conflicts)
	require.Len(t, rec.TemperatureReadings, 1)
	assert.Equal(t, "20°C", rec.TemperatureReadings[0].Value)
	assert.ElementsMatch(t,
		[]models.SourceType{models.SourceInspection, models.SourceThermal},
		rec.TemperatureReadings[0].Sources)
}

func TestMerge_FahrenheitConvertsBeforeComparison(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("Basement", "Standing water by the sump", "20°C", models.SourceInspection, 0),
		obs("Basement", "Moisture signature at floor level", "68°F", models.SourceThermal, 0),
	})
	require.NoError(t, err)

	rec := res.Records[0]
	assert.Empty(t, rec.Conflicts)
	require.Len(t, rec.TemperatureReadings, 1)
	assert.Equal(t, "20°C", rec.TemperatureReadings[0].Value)
	assert.Len(t, rec.TemperatureReadings[0].Sources, 2)
}

func TestMerge_NearDuplicateDescriptionsCollapse(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("Roof", "Cracked shingles on the south slope", "", models.SourceInspection, 0),
		obs("Roof", "cracked shingles on the south slope.", "", models.SourceThermal, 0),
		obs("Roof", "Flashing lifted around the chimney", "", models.SourceInspection, 1),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	require.Len(t, rec.Descriptions, 2)
	// The longer of the duplicate pair survives.
	assert.Equal(t, "cracked shingles on the south slope.", rec.Descriptions[0])
	assert.Equal(t, "Flashing lifted around the chimney", rec.Descriptions[1])
	assert.Equal(t, 1, res.DuplicatesRemoved)
}

func TestMerge_SingleSourceIsPartial(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("Kitchen", "Grout failing around the sink", "", models.SourceInspection, 0),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, models.CompletenessPartialSingleSource, rec.Completeness)
	assert.Equal(t, []models.SourceType{models.SourceInspection}, rec.Sources)
	assert.Empty(t, rec.TemperatureReadings)
	assert.Empty(t, rec.Temperature())
}

func TestMerge_AreaVariantsGroupTogether(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("Bathroom", "Sealant failed along the tub", "", models.SourceInspection, 0),
		obs("washroom", "Moisture reading high at tub edge", "", models.SourceThermal, 0),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "bathroom", rec.Area.ID)
	assert.Equal(t, "Bathroom", rec.Area.DisplayName)
	assert.Equal(t, models.CompletenessComplete, rec.Completeness)
	assert.Len(t, rec.Descriptions, 2)
}

func TestMerge_FirstSeenAreaOrder(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("Roof", "a", "", models.SourceInspection, 0),
		obs("Kitchen", "b", "", models.SourceInspection, 1),
		obs("Roof", "c", "", models.SourceThermal, 0),
		obs("Basement", "d", "", models.SourceThermal, 1),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "roof", res.Records[0].Area.ID)
	assert.Equal(t, "kitchen", res.Records[1].Area.ID)
	assert.Equal(t, "basement", res.Records[2].Area.ID)
}

func TestMerge_MalformedObservationDropped(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("", "Orphaned note with no area", "", models.SourceInspection, 0),
		obs("Exterior", "", "", models.SourceThermal, 0),
		obs("Exterior", "Paint blistering on the west wall", "", models.SourceInspection, 1),
	})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "exterior", res.Records[0].Area.ID)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0].Message, "area or description missing")
}

func TestMerge_ReadingContradictsDescription(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge([]models.Observation{
		obs("Living Room", "High temperature around the outlet cluster", "", models.SourceInspection, 0),
		obs("Living Room", "Surface scan of the outlet wall", "normal", models.SourceThermal, 0),
	})
	require.NoError(t, err)

	rec := res.Records[0]
	require.Len(t, rec.Conflicts, 1)
	c := rec.Conflicts[0]
	assert.Equal(t, "temperature", c.Field)
	assert.Equal(t, models.SourceInspection, c.SourceA)
	assert.Equal(t, "normal", c.ValueB)
	assert.Equal(t, models.SourceThermal, c.SourceB)
	assert.Contains(t, c.Note, "contradicts")
}

func TestMerge_EmptyStream(t *testing.T) {
	e := NewEngine(testConfig())

	res, err := e.Merge(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.ConflictsFound)
	assert.Zero(t, res.DuplicatesRemoved)
}

func TestParseCelsius(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"20°C", 20, true},
		{"68F", 20, true},
		{"71.6°F", 22, true},
		{"-5 °C", -5, true},
		{"22", 22, true},
		{"22°", 22, true},
		{"about 30 C at the vent", 30, true},
		{"normal", 0, false},
		{"elevated", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseCelsius(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.01)
			}
		})
	}
}

func TestContradictsReading(t *testing.T) {
	assert.True(t, contradictsReading("High temperature near the panel", "normal range"))
	assert.True(t, contradictsReading("Cold draft under the door", "high"))
	assert.False(t, contradictsReading("Water stain on ceiling", "normal"))
	assert.False(t, contradictsReading("High temperature near the panel", "41°C"))
}
