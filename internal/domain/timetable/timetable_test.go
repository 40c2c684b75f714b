package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-10-15 is a Wednesday.
const fixtureHTML = `
<table>
<tr>
<td id="timetableEntryBox" data-date="2025-10-15" title="<b>Nr lekcji:</b> 2">
  <div class="text">Matematyka<br>odwołane</div>
</td>
<td id="timetableEntryBox" data-date="2025-10-15" title="<b>Nr lekcji:</b> 4">
  <div class="text">Fizyka<br>zastępstwo: Nowak Anna</div>
</td>
<td id="timetableEntryBox" data-date="2025-10-16" title="<b>Nr lekcji:</b> 1">
  <div class="plan-lekcji-info">Kowalska Maria</div>
</td>
<td id="timetableEntryBox" data-date="2025-10-16" title="<b>Nr lekcji:</b> 3">
  <div class="text">Chemia</div>
</td>
</tr>
</table>`

func TestDetect(t *testing.T) {
	result := Detect(fixtureHTML)

	assert.Contains(t, result.Cancellations, "Wednesday-2")
	assert.Contains(t, result.Substitutions, "Wednesday-4")
	assert.Contains(t, result.Substitutions, "Thursday-1")
	assert.Len(t, result.Cancellations, 1)
	assert.Len(t, result.Substitutions, 2)
}

func TestDetectCancellationWinsOverSubstitution(t *testing.T) {
	html := `<td id="timetableEntryBox" data-date="2025-10-15" title="<b>Nr lekcji:</b> 5">
zastępstwo odwołane</td>`

	result := Detect(html)

	assert.Contains(t, result.Cancellations, "Wednesday-5")
	assert.NotContains(t, result.Substitutions, "Wednesday-5")
}

func TestDetectReadsLessonNumberFromTitleAttribute(t *testing.T) {
	// The portal emits raw markup inside the title attribute, so the opening
	// tag itself contains ">" characters before the real tag close.
	html := `<td class="line1" id="timetableEntryBox" ` +
		`title="<b>Nr lekcji:</b> 7<br><b>Sala:</b> 12" data-date="2025-10-17">` +
		`<div class="text">WF<br>odwołane</div></td>`

	result := Detect(html)

	assert.Contains(t, result.Cancellations, "Friday-7")
	assert.Len(t, result.Cancellations, 1)
	assert.Empty(t, result.Substitutions)
}

func TestDetectIgnoresCellsWithoutLessonNumber(t *testing.T) {
	html := `<td id="timetableEntryBox" data-date="2025-10-15">zastępstwo</td>`

	result := Detect(html)

	assert.True(t, result.Empty())
}

func TestDetectEmptyMarkup(t *testing.T) {
	assert.True(t, Detect("").Empty())
	assert.True(t, Detect("<html><body>Plan lekcji</body></html>").Empty())
}

func TestMergeWednesdayCancellation(t *testing.T) {
	grid := Grid{
		"Wednesday": {
			{Subject: "Polski"},
			{Subject: "Matematyka"},
			nil,
			{Subject: "Fizyka"},
		},
	}
	result := Detect(fixtureHTML)

	merged := Merge(grid, result)

	// Lesson number 2 cancelled -> zero-based position 1.
	require.NotNil(t, merged["Wednesday"][1])
	assert.True(t, merged["Wednesday"][1].Cancelled)
	assert.False(t, merged["Wednesday"][1].Substitution)

	// Lesson number 4 substituted -> zero-based position 3.
	require.NotNil(t, merged["Wednesday"][3])
	assert.True(t, merged["Wednesday"][3].Substitution)
	assert.False(t, merged["Wednesday"][3].Cancelled)

	require.NotNil(t, merged["Wednesday"][0])
	assert.False(t, merged["Wednesday"][0].Cancelled)
	assert.False(t, merged["Wednesday"][0].Substitution)
}

func TestMergeClearsStaleFlags(t *testing.T) {
	grid := Grid{
		"Monday": {
			{Subject: "Polski", Substitution: true, Cancelled: true},
		},
	}

	merged := Merge(grid, DetectionResult{
		Substitutions: map[string]struct{}{},
		Cancellations: map[string]struct{}{},
	})

	assert.False(t, merged["Monday"][0].Substitution)
	assert.False(t, merged["Monday"][0].Cancelled)
}

func TestFallbackClearsAllFlags(t *testing.T) {
	grid := Grid{
		"Monday": {
			{Subject: "Polski", Substitution: true},
			nil,
			{Subject: "WF", Cancelled: true},
		},
		"Friday": {
			{Subject: "Chemia", Substitution: true, Cancelled: true},
		},
	}

	Fallback(grid)

	for _, lessons := range grid {
		for _, lesson := range lessons {
			if lesson == nil {
				continue
			}
			assert.False(t, lesson.Substitution)
			assert.False(t, lesson.Cancelled)
		}
	}
}
