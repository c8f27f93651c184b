package fieldcontext

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromRunsLabelAboveField(t *testing.T) {
	runs := []TextRun{
		{Text: "Full Name:", X: 100, Y: 420, FontSize: 10},
		{Text: "PERSONAL INFORMATION", X: 100, Y: 700, FontSize: 12},
	}
	rect := [4]float64{100, 380, 300, 400}

	ctx := ExtractFromRuns(runs, rect)

	require.NotEmpty(t, ctx.NearbyText)
	assert.Equal(t, "Full Name:", ctx.Label)
	assert.Equal(t, "Full Name:", ctx.TextAbove)
	assert.Equal(t, "PERSONAL INFORMATION", ctx.SectionHeader, "section headers are found page-wide, independent of the proximity window used for nearby_text")
}

func TestExtractFromRunsSectionHeaderIsPageWide(t *testing.T) {
	runs := []TextRun{
		{Text: "CONTACT INFORMATION", X: 50, Y: 650, FontSize: 12},
		{Text: "Email:", X: 100, Y: 420, FontSize: 10},
	}
	rect := [4]float64{100, 380, 300, 400}

	ctx := ExtractFromRuns(runs, rect)

	assert.Equal(t, "CONTACT INFORMATION", ctx.SectionHeader)
	assert.Equal(t, "Email:", ctx.Label)
}

func TestExtractFromRunsIndicatorMatchWithoutColon(t *testing.T) {
	runs := []TextRun{
		{Text: "phone number", X: 100, Y: 420, FontSize: 10},
	}
	rect := [4]float64{100, 380, 300, 400}

	ctx := ExtractFromRuns(runs, rect)
	assert.Equal(t, "phone number", ctx.Label)
}

func TestExtractFromRunsNoNearbyTextYieldsEmptyLabel(t *testing.T) {
	runs := []TextRun{
		{Text: "far away", X: 5000, Y: 5000, FontSize: 10},
	}
	rect := [4]float64{100, 380, 300, 400}

	ctx := ExtractFromRuns(runs, rect)
	assert.Empty(t, ctx.Label)
	assert.Empty(t, ctx.NearbyText)
	assert.Equal(t, 0.3, ctx.Confidence)
}

func TestExtractFromRunsDirectionalText(t *testing.T) {
	runs := []TextRun{
		{Text: "above", X: 150, Y: 420, FontSize: 10},
		{Text: "below", X: 150, Y: 360, FontSize: 10},
		{Text: "left", X: 50, Y: 390, FontSize: 10},
		{Text: "right", X: 350, Y: 390, FontSize: 10},
	}
	rect := [4]float64{100, 380, 300, 400}

	ctx := ExtractFromRuns(runs, rect)
	assert.Equal(t, "above", ctx.TextAbove)
	assert.Equal(t, "below", ctx.TextBelow)
	assert.Equal(t, "left", ctx.TextLeft)
	assert.Equal(t, "right", ctx.TextRight)
}

func TestExtractFromRunsNearbyTextCappedAndDeduped(t *testing.T) {
	var runs []TextRun
	for i := 0; i < 15; i++ {
		runs = append(runs, TextRun{Text: "word", X: 110, Y: 390, FontSize: 10})
	}
	rect := [4]float64{100, 380, 300, 400}

	ctx := ExtractFromRuns(runs, rect)
	assert.Len(t, ctx.NearbyText, 1, "identical text should be deduplicated")

	var distinct []TextRun
	for i := 0; i < 15; i++ {
		distinct = append(distinct, TextRun{Text: "word" + strconv.Itoa(i), X: 110, Y: 390, FontSize: 10})
	}
	ctx = ExtractFromRuns(distinct, rect)
	assert.Len(t, ctx.NearbyText, nearbyTextCap, "distinct text should be capped")
}
