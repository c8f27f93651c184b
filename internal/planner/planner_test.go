package planner

import (
	"testing"

	"github.com/fieldbem/pdfrename/internal/acroform"
	"github.com/fieldbem/pdfrename/internal/pdfobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyDoc() *pdfobj.Document {
	root := pdfobj.NewDictionary()
	root.Set("AcroForm", &pdfobj.Null{})
	return pdfobj.NewDirectDocument(root, nil, nil)
}

func TestPlanOrdersParentBeforeChildren(t *testing.T) {
	group := &acroform.Field{ID: "g", Name: "transaction--group", IsGroupContainer: true, Kind: acroform.KindRadioGroup}
	widget := &acroform.Field{ID: "g_0", Name: "transaction--group__one-time", ParentID: "g", Kind: acroform.KindRadioWidget}

	decisions := map[string]string{
		"g":   "selection_transaction-type",
		"g_0": "selection_transaction-type__one-time",
	}

	plan := Plan(emptyDoc(), []*acroform.Field{widget, group}, decisions)

	require.Len(t, plan.Edits, 2)
	assert.Equal(t, "g", plan.Edits[0].FieldID, "parent must be ordered before its child")
	assert.Equal(t, "g_0", plan.Edits[1].FieldID)
}

func TestPlanDerivesLocalTitleByStrippingParentPrefix(t *testing.T) {
	group := &acroform.Field{ID: "g", Name: "transaction--group", IsGroupContainer: true}
	widget := &acroform.Field{ID: "g_0", Name: "transaction--group__one-time", ParentID: "g"}

	decisions := map[string]string{
		"g":   "selection_transaction-type",
		"g_0": "selection_transaction-type__one-time",
	}

	plan := Plan(emptyDoc(), []*acroform.Field{group, widget}, decisions)

	var widgetEdit *FieldModification
	for i := range plan.Edits {
		if plan.Edits[i].FieldID == "g_0" {
			widgetEdit = &plan.Edits[i]
		}
	}
	require.NotNil(t, widgetEdit)
	assert.Equal(t, "one-time", widgetEdit.NewLocalTitle)
}

func TestPlanSafetyScorePenalizesBlockers(t *testing.T) {
	noBlockers := computeSafetyScore(10, 0, 0)
	assert.Equal(t, 1.0, noBlockers)

	withBlockers := computeSafetyScore(10, 2, 0)
	assert.InDelta(t, 0.8, withBlockers, 0.001)
}

func TestPlanDetectsSiblingCollision(t *testing.T) {
	a := &acroform.Field{ID: "a", Name: "old-a", ParentID: ""}
	b := &acroform.Field{ID: "b", Name: "old-b", ParentID: ""}

	decisions := map[string]string{
		"a": "form_text__duplicate",
		"b": "form_text__duplicate",
	}

	plan := Plan(emptyDoc(), []*acroform.Field{a, b}, decisions)
	assert.NotEmpty(t, plan.Conflicts)
}

func TestPlanApplicableRespectsThreshold(t *testing.T) {
	plan := &ModificationPlan{SafetyScore: 0.4}
	assert.False(t, plan.Applicable(defaultSafetyThreshold))

	plan.SafetyScore = 0.6
	assert.True(t, plan.Applicable(defaultSafetyThreshold))

	plan.Blockers = []string{"field x: cannot rewrite js_action reference"}
	assert.False(t, plan.Applicable(defaultSafetyThreshold))
}
