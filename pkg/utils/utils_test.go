package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToday(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skipf("timezone data not available: %v", err)
	}

	tests := []struct {
		name     string
		input    time.Time
		loc      *time.Location
		expected time.Time
	}{
		{
			name:     "utc afternoon",
			input:    time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "nil location falls back to utc",
			input:    time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC),
			loc:      nil,
			expected: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "late utc evening is next day in jakarta",
			input:    time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC),
			loc:      jakarta,
			expected: time.Date(2024, 3, 11, 0, 0, 0, 0, jakarta),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Today(tt.input, tt.loc)
			assert.True(t, result.Equal(tt.expected), "Expected %v, but got %v", tt.expected, result)
		})
	}
}

func TestIsOverdue(t *testing.T) {
	rented := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		today    time.Time
		expected bool
	}{
		{"same day", rented, false},
		{"on due date", rented.AddDate(0, 0, 14), false},
		{"day after due date", rented.AddDate(0, 0, 15), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOverdue(rented, 14, tt.today))
		})
	}
}

func TestOverdueCutoff_AgreesWithIsOverdue(t *testing.T) {
	today := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	cutoff := OverdueCutoff(today, 14)

	assert.True(t, IsOverdue(cutoff, 14, today))
	assert.False(t, IsOverdue(cutoff.AddDate(0, 0, 1), 14, today))
}

func TestPointsForBooks(t *testing.T) {
	assert.True(t, PointsForBooks(decimal.NewFromInt(30), 3).Equal(decimal.NewFromInt(90)))
	assert.True(t, PointsForBooks(decimal.NewFromInt(30), 0).IsZero())
}

func TestParsePoints(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"30", true},
		{"0", true},
		{"-5", false},
		{"2.5", false},
		{"abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := ParsePoints(tt.input)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
