package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRange_NegativeStartClamped(t *testing.T) {
	res := ValidateRange(-3, 5, 100, 1)

	assert.True(t, res.Valid)
	assert.Equal(t, 0.0, res.Start)
	assert.Equal(t, 5.0, res.End)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "negative")
}

func TestValidateRange_EndClampedToDuration(t *testing.T) {
	res := ValidateRange(10, 250, 120, 1)

	assert.True(t, res.Valid)
	assert.Equal(t, 10.0, res.Start)
	assert.Equal(t, 120.0, res.End)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "exceeds duration")
}

func TestValidateRange_CollapsedRangeExtended(t *testing.T) {
	res := ValidateRange(30, 30, 120, 1)

	assert.True(t, res.Valid)
	assert.Equal(t, 30.0, res.Start)
	assert.Equal(t, 31.0, res.End)
	assert.NotEmpty(t, res.Errors)
}

func TestValidateRange_ExtensionOverflowPullsStartBack(t *testing.T) {
	res := ValidateRange(120, 120, 120, 2)

	assert.True(t, res.Valid)
	assert.Equal(t, 118.0, res.Start)
	assert.Equal(t, 120.0, res.End)
}

func TestValidateRange_UnknownDurationOnlyOrders(t *testing.T) {
	res := ValidateRange(5, 9999, 0, 1)

	assert.True(t, res.Valid)
	assert.Equal(t, 5.0, res.Start)
	assert.Equal(t, 9999.0, res.End)
	assert.Empty(t, res.Errors)
}

func TestValidateRange_InvariantHolds(t *testing.T) {
	cases := []struct {
		start, end, duration float64
	}{
		{-10, -5, 60},
		{0, 0, 0},
		{50, 20, 60},
		{70, 80, 60},
		{59.5, 59.9, 60},
		{0, 1, 60},
		{-1, 200, 100},
	}

	for _, tc := range cases {
		res := ValidateRange(tc.start, tc.end, tc.duration, 1)
		if !res.Valid {
			continue
		}
		assert.LessOrEqual(t, res.Start, res.End, "start=%v end=%v dur=%v", tc.start, tc.end, tc.duration)
		if tc.duration > 0 {
			assert.GreaterOrEqual(t, res.Start, 0.0)
			assert.LessOrEqual(t, res.End, tc.duration)
		}
	}
}

func TestFilterValid_DropsUnrecoverableRanges(t *testing.T) {
	ranges := []Range{
		{Start: 0, End: 10},
		{Start: 200, End: 210}, // beyond duration, collapses at the boundary
		{Start: 20, End: 15},   // recoverable by extension
	}

	kept := FilterValid(ranges, 100, 1)

	require.Len(t, kept, 3)
	assert.Equal(t, Range{Start: 0, End: 10}, kept[0])
	assert.Equal(t, Range{Start: 99, End: 100}, kept[1])
	assert.Equal(t, Range{Start: 20, End: 21}, kept[2])
}

func TestValidateAll_MatchesInputLength(t *testing.T) {
	results := ValidateAll([]Range{{0, 5}, {5, 3}}, 10, 1)
	require.Len(t, results, 2)
	assert.True(t, results[0].Valid)
	assert.True(t, results[1].Valid)
	assert.Empty(t, results[0].Errors)
	assert.NotEmpty(t, results[1].Errors)
}

func TestParseTimestamp(t *testing.T) {
	sec, ok := ParseTimestamp("05:30")
	require.True(t, ok)
	assert.Equal(t, 330.0, sec)

	sec, ok = ParseTimestamp("00:00")
	require.True(t, ok)
	assert.Equal(t, 0.0, sec)

	_, ok = ParseTimestamp("05:60")
	assert.False(t, ok, "seconds must be below 60")

	_, ok = ParseTimestamp("5:3")
	assert.False(t, ok)

	_, ok = ParseTimestamp("abc")
	assert.False(t, ok)

	_, ok = ParseTimestamp("")
	assert.False(t, ok)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00", FormatTimestamp(0))
	assert.Equal(t, "00:59", FormatTimestamp(59.9))
	assert.Equal(t, "05:30", FormatTimestamp(330))
	assert.Equal(t, "12:05", FormatTimestamp(725.2))
	assert.Equal(t, "00:00", FormatTimestamp(-4))
}

func TestClampAndInRange(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 60))
	assert.Equal(t, 60.0, Clamp(75, 60))
	assert.Equal(t, 30.0, Clamp(30, 60))
	assert.Equal(t, 75.0, Clamp(75, 0), "unknown duration keeps value")

	assert.True(t, InRange(30, 60))
	assert.False(t, InRange(61, 60))
	assert.False(t, InRange(-1, 60))
	assert.True(t, InRange(1e6, 0))
}

func TestIsTimestampValid(t *testing.T) {
	assert.True(t, IsTimestampValid("01:00", 120))
	assert.False(t, IsTimestampValid("03:00", 120))
	assert.False(t, IsTimestampValid("1:00", 120))
}
