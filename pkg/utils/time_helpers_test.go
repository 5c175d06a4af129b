package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinutes(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"08:00": 480,
		"15:04": 904,
		"23:59": 1439,
	}
	for value, want := range cases {
		got, err := ParseMinutes(value)
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}

	_, err := ParseMinutes("25:00")
	assert.Error(t, err)
	_, err = ParseMinutes("полдень")
	assert.Error(t, err)
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "00:00", FormatMinutes(0))
	assert.Equal(t, "10:30", FormatMinutes(630))
	assert.Equal(t, "23:59", FormatMinutes(1439))
}

func TestIsDateInPast(t *testing.T) {
	now := time.Date(2026, 9, 15, 13, 45, 0, 0, time.UTC)

	yesterday := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	assert.True(t, IsDateInPast(yesterday, now, time.UTC))

	// Сегодня — не прошлое, даже если время суток уже позади.
	today := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	assert.False(t, IsDateInPast(today, now, time.UTC))

	tomorrow := time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)
	assert.False(t, IsDateInPast(tomorrow, now, time.UTC))
}

func TestCombineDateMinutes(t *testing.T) {
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	got := CombineDateMinutes(date, 630, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC), got)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-09-15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("15.09.2026", time.UTC)
	assert.Error(t, err)
}
