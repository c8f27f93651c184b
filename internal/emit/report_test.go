package emit

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fieldbem/pdfrename/internal/acroform"
	"github.com/fieldbem/pdfrename/internal/fieldcontext"
	"github.com/fieldbem/pdfrename/internal/naming"
	"github.com/fieldbem/pdfrename/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMappingRowDerivesGeometryFromRect(t *testing.T) {
	f := &acroform.Field{
		ID:      "1_0",
		Name:    "first_name",
		Kind:    acroform.KindText,
		Page:    2,
		Rect:    [4]float64{100, 200, 160, 220},
		HasRect: true,
	}
	ctx := &fieldcontext.FieldContext{Label: "First Name", SectionHeader: "owner-information"}
	decision := naming.NameDecision{NewName: "owner-information_first-name"}
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	row := BuildMappingRow(f, ctx, decision, "form-1", "unified-1", "uuid-1", 3, now)

	assert.Equal(t, "1_0", row.ID)
	assert.Equal(t, "owner-information_first-name", row.ApiName)
	assert.Equal(t, 60.0, row.Width)
	assert.Equal(t, 20.0, row.Height)
	assert.Equal(t, 100.0, row.X)
	assert.Equal(t, 200.0, row.Y)
	assert.Equal(t, "owner-information", row.SectionID)
	assert.Equal(t, 2, row.Page)
}

func TestBuildMappingRowZeroesGeometryWhenRectMissing(t *testing.T) {
	f := &acroform.Field{ID: "g1", Kind: acroform.KindRadioGroup, IsGroupContainer: true}
	row := BuildMappingRow(f, nil, naming.NameDecision{NewName: "selection_kind"}, "form-1", "", "uuid-2", 0, time.Now())

	assert.Equal(t, 0.0, row.Width)
	assert.Equal(t, 0.0, row.Height)
	assert.True(t, row.ShowGroupLabel)
}

func TestBuildModificationReportNilEditMeansUnapplied(t *testing.T) {
	report := BuildModificationReport(nil, nil)
	assert.False(t, report.Applied)
}

func TestBuildModificationReportCarriesBlockersForField(t *testing.T) {
	edit := &planner.FieldModification{FieldID: "f1", OldName: "old", NewName: "new_block"}
	blockers := map[string][]string{"f1": {"cannot rewrite js_action reference"}}

	report := BuildModificationReport(edit, blockers)

	require.True(t, report.Applied)
	assert.Equal(t, "new_block", report.NewName)
	assert.Equal(t, []string{"cannot rewrite js_action reference"}, report.Blockers)
}

func TestWriteReportProducesExpectedShape(t *testing.T) {
	report := Report{
		Document: DocumentMeta{SourcePath: "form.pdf", ModifiedPath: "form_parsed.pdf", FieldCount: 1},
		Fields: []FieldReport{
			{
				ID:           "1_0",
				OriginalName: "first_name",
				Decision:     DecisionReport{Action: "improve", NewName: "owner-information_first-name"},
				Context:      ContextReport{Label: "First Name"},
			},
		},
		Warnings:    []string{},
		SafetyScore: 1.0,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "document")
	assert.Contains(t, decoded, "fields")
	assert.Contains(t, decoded, "warnings")
	assert.Contains(t, decoded, "safety_score")
}

func TestNewUUIDProducesDistinctValues(t *testing.T) {
	a, b := NewUUID(), NewUUID()
	assert.NotEqual(t, a, b)
}
