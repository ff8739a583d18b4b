package utils

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	assert.Zero(t, HaversineDistance(orb.Point{-74.1, 4.65}, orb.Point{-74.1, 4.65}))

	// one degree of latitude is about 111.3 km on this sphere
	d := HaversineDistance(orb.Point{0, 0}, orb.Point{0, 1})
	assert.InDelta(t, 111319.5, d, 1)

	a, b := orb.Point{-74.1, 4.65}, orb.Point{-74.18, 4.58}
	assert.InDelta(t, HaversineDistance(a, b), HaversineDistance(b, a), 1e-9)
}

func TestParseWGS84(t *testing.T) {
	p, err := ParseWGS84(" -12.0464 ", "-77.0428")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-77.0428, -12.0464}, p)

	_, err = ParseWGS84("abc", "1")
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = ParseWGS84("NaN", "1")
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = ParseWGS84("90.1", "0")
	assert.ErrorIs(t, err, ErrLatitudeRange)
	_, err = ParseWGS84("0", "180.5")
	assert.ErrorIs(t, err, ErrLongitudeRange)

	_, err = ParseWGS84("-90", "180")
	assert.NoError(t, err)
}

func TestValidLngLat(t *testing.T) {
	assert.True(t, ValidLngLat(orb.Point{-74.1, 4.65}))
	assert.False(t, ValidLngLat(orb.Point{4.65, -200}))
	assert.False(t, ValidLngLat(orb.Point{math.NaN(), 0}))
}
