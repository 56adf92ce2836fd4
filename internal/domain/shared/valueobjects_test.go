package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_DaysSince(t *testing.T) {
	d := NewDate(2024, time.March, 1)

	assert.Equal(t, 1, d.DaysSince(NewDate(2024, time.February, 29)))
	assert.Equal(t, 0, d.DaysSince(d))
	assert.Equal(t, -3, d.DaysSince(NewDate(2024, time.March, 4)))
	assert.Equal(t, 365, NewDate(2025, time.March, 1).DaysSince(d))
	assert.Equal(t, 366, d.DaysSince(NewDate(2023, time.March, 1)), "span crossing Feb 29")
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	almaty := time.FixedZone("Asia/Almaty", 5*60*60)
	// 22:30 UTC on the 16th is already the 17th in Almaty.
	instant := time.Date(2026, time.October, 16, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-10-16", DateOf(instant).String())
	assert.Equal(t, "2026-10-17", DateOf(instant.In(almaty)).String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-17")
	require.NoError(t, err)
	assert.True(t, d.Equal(NewDate(2026, time.October, 17)))

	_, err = ParseDate("17/10/2026")
	assert.True(t, IsValidation(err))
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}

	data, err := json.Marshal(payload{Date: NewDate(2026, time.January, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-01-05"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Date.Equal(NewDate(2026, time.January, 5)))
}

func TestDate_Zero(t *testing.T) {
	var d Date
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.String())
	assert.False(t, DateOf(time.Time{}).After(d))
}

func TestStorageError_KeepsDriverError(t *testing.T) {
	driverErr := assert.AnError
	err := StorageError("postgres", "Upsert", driverErr)

	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, driverErr)
	assert.False(t, IsValidation(err))
	assert.Nil(t, StorageError("postgres", "Upsert", nil))
}
