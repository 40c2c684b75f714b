package librus

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librus-hub/librus-notify/pkg/logger"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

func testFilter(maxAgeDays int) *GradeAgeFilter {
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	return NewGradeAgeFilter(maxAgeDays, true, log)
}

func TestFilterDisabledReturnsInput(t *testing.T) {
	grades := []Grade{
		{ID: "g1", Date: "2020-01-01"},
		{ID: "g2", Date: "garbage"},
	}

	got := testFilter(0).Filter(grades, timeutil.Date(2025, 10, 20))

	assert.Equal(t, grades, got)
}

func TestFilterInclusiveBoundary(t *testing.T) {
	now := timeutil.Date(2025, 10, 20)
	grades := []Grade{
		{ID: "boundary", Date: "2025-10-13"},    // exactly now - 7 days, kept
		{ID: "too-old", Date: "2025-10-12"},     // one day older, dropped
		{ID: "fresh", Date: "2025-10-19 (nd.)"}, // trailing weekday annotation
	}

	got := testFilter(7).Filter(grades, now)

	require.Len(t, got, 2)
	assert.Equal(t, "boundary", got[0].ID)
	assert.Equal(t, "fresh", got[1].ID)
}

func TestFilterKeepsUnparseableDates(t *testing.T) {
	now := timeutil.Date(2025, 10, 20)
	grades := []Grade{
		{ID: "no-date", Date: "Unknown"},
		{ID: "old", Date: "2024-01-01"},
	}

	got := testFilter(7).Filter(grades, now)

	require.Len(t, got, 1)
	assert.Equal(t, "no-date", got[0].ID)
}

func TestFilterEmptyInput(t *testing.T) {
	got := testFilter(7).Filter(nil, timeutil.Date(2025, 10, 20))
	assert.Empty(t, got)
}
