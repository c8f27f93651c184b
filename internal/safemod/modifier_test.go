package safemod

import (
	"testing"

	"github.com/fieldbem/pdfrename/internal/pdfobj"
	"github.com/fieldbem/pdfrename/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneDictionaryCopiesAllKeys(t *testing.T) {
	d := pdfobj.NewDictionary()
	d.Set("T", &pdfobj.String{Value: "old-name"})
	d.Set("FT", &pdfobj.Name{Value: "Tx"})

	clone := cloneDictionary(d)
	clone.Set("T", &pdfobj.String{Value: "new-name"})

	assert.Equal(t, "old-name", d.Get("T").(*pdfobj.String).Value, "cloning must not mutate the original")
	assert.Equal(t, "new-name", clone.Get("T").(*pdfobj.String).Value)
	assert.Equal(t, "Tx", clone.Get("FT").(*pdfobj.Name).Value)
}

func TestRewriteJSActionReplacesQuotedOccurrence(t *testing.T) {
	action := pdfobj.NewDictionary()
	action.Set("S", &pdfobj.Name{Value: "JavaScript"})
	action.Set("JS", &pdfobj.String{Value: `this.getField("old.name").value = 1;`})

	rewritten := rewriteJSAction(action, "old.name", "new_block__new-element")

	got := rewritten.Get("JS").(*pdfobj.String).Value
	assert.Contains(t, got, `"new_block__new-element"`)
	assert.NotContains(t, got, `"old.name"`)
}

func TestRewriteJSActionLeavesUnrelatedTextAlone(t *testing.T) {
	action := pdfobj.NewDictionary()
	action.Set("JS", &pdfobj.String{Value: `app.alert("unrelated");`})

	rewritten := rewriteJSAction(action, "old.name", "new-name")
	assert.Equal(t, `app.alert("unrelated");`, rewritten.Get("JS").(*pdfobj.String).Value)
}

func TestDigestPlanIsDeterministicAndOrderSensitive(t *testing.T) {
	plan1 := &planner.ModificationPlan{Edits: []planner.FieldModification{
		{FieldID: "a", OldName: "old-a", NewName: "new-a"},
		{FieldID: "b", OldName: "old-b", NewName: "new-b"},
	}}
	plan2 := &planner.ModificationPlan{Edits: []planner.FieldModification{
		{FieldID: "a", OldName: "old-a", NewName: "new-a"},
		{FieldID: "b", OldName: "old-b", NewName: "new-b"},
	}}
	plan3 := &planner.ModificationPlan{Edits: []planner.FieldModification{
		{FieldID: "b", OldName: "old-b", NewName: "new-b"},
		{FieldID: "a", OldName: "old-a", NewName: "new-a"},
	}}

	require.Equal(t, digestPlan(plan1), digestPlan(plan2))
	assert.NotEqual(t, digestPlan(plan1), digestPlan(plan3))
}

func TestIntegrityReportOkRequiresAllChecks(t *testing.T) {
	r := IntegrityReport{FieldSetUnchanged: true, NamesApplied: true, HierarchyPreserved: true, GeometryPreserved: true, AcroFormReachable: true}
	assert.True(t, r.ok())

	r.GeometryPreserved = false
	assert.False(t, r.ok())
}
