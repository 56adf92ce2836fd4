package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = LoadLocation("+05:00")
	require.NoError(t, err)
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 5*3600, offset)

	loc, err = LoadLocation("-0330")
	require.NoError(t, err)
	_, offset = time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -(3*3600 + 30*60), offset)

	_, err = LoadLocation("+5 hours")
	assert.Error(t, err)

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestSystemClock_UsesLocation(t *testing.T) {
	loc := time.FixedZone("test", 2*3600)
	c := NewSystemClock(loc)

	assert.Equal(t, loc, c.Now().Location())
	assert.Equal(t, time.UTC, NewSystemClock(nil).Location())
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, time.October, 17, 23, 30, 0, 0, time.UTC)
	c := NewFixedClock(start)

	assert.Equal(t, start, c.Now())

	c.Advance(time.Hour)
	assert.Equal(t, 18, c.Now().Day())

	c.AdvanceDays(2)
	assert.Equal(t, 20, c.Now().Day())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
