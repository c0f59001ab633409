package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistory() History {
	return History{
		{"res": State{"water_level": 14.0}, "gate": State{"opening": 0.1}},
		{"res": State{"water_level": 13.5}, "gate": State{"opening": 0.4}},
		{"res": State{"water_level": 13.1}, "gate": State{"opening": 0.6}},
	}
}

func TestHistory_At(t *testing.T) {
	h := sampleHistory()

	snap, ok := h.At(1)
	require.True(t, ok)
	assert.Equal(t, 13.5, snap["res"]["water_level"])

	_, ok = h.At(-1)
	assert.False(t, ok)
	_, ok = h.At(3)
	assert.False(t, ok)
}

func TestHistory_AtTime(t *testing.T) {
	h := sampleHistory()

	// dt=2: t in [0,2) hits tick 0, [2,4) hits tick 1.
	snap, ok := h.AtTime(0, 2.0)
	require.True(t, ok)
	assert.Equal(t, 14.0, snap["res"]["water_level"])

	snap, ok = h.AtTime(3.9, 2.0)
	require.True(t, ok)
	assert.Equal(t, 13.5, snap["res"]["water_level"])

	_, ok = h.AtTime(100, 2.0)
	assert.False(t, ok)
	_, ok = h.AtTime(-1, 2.0)
	assert.False(t, ok)
	_, ok = h.AtTime(1, 0)
	assert.False(t, ok)
}

func TestHistory_Series(t *testing.T) {
	h := sampleHistory()

	assert.Equal(t, []float64{14.0, 13.5, 13.1}, h.Series("res", "water_level"))
	assert.Equal(t, []float64{0.1, 0.4, 0.6}, h.Series("gate", "opening"))
	assert.Empty(t, h.Series("ghost", "water_level"))
	assert.Empty(t, h.Series("res", "no_such_field"))
}

func TestHistory_Series_SkipsTicksMissingTheField(t *testing.T) {
	h := sampleHistory()
	delete(h[1]["res"], "water_level")

	assert.Equal(t, []float64{14.0, 13.1}, h.Series("res", "water_level"))
}

func TestHistory_SeriesBounds(t *testing.T) {
	h := sampleHistory()

	lo, hi, ok := h.SeriesBounds("res", "water_level")
	require.True(t, ok)
	assert.Equal(t, 13.1, lo)
	assert.Equal(t, 14.0, hi)

	_, _, ok = h.SeriesBounds("ghost", "water_level")
	assert.False(t, ok)
}

func TestSnapshot_Clone_Independent(t *testing.T) {
	snap := Snapshot{"res": State{"water_level": 14.0}}
	clone := snap.Clone()

	clone["res"]["water_level"] = -1
	assert.Equal(t, 14.0, snap["res"]["water_level"])
}
