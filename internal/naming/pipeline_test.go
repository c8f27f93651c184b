package naming

import (
	"testing"

	"github.com/fieldbem/pdfrename/internal/fieldcontext"
	"github.com/fieldbem/pdfrename/internal/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyStore() *training.Store {
	return training.Load(nil)
}

func TestDecidePreservesGrammaticalSupportedName(t *testing.T) {
	store := training.Load([]training.Record{
		{Label: "Full Name:", Kind: "text", ApprovedName: "owner-information_name"},
	})
	e := NewEngine(store)

	d := e.Decide(FieldInput{
		ID: "1", CurrentName: "owner-information_name", Kind: "text",
		Context: fieldcontext.FieldContext{Label: "Full Name:"},
	})

	assert.Equal(t, ActionPreserve, d.Action)
	assert.Equal(t, "owner-information_name", d.NewName)
	assert.Equal(t, SourceExactMatch, d.Source)
}

func TestDecideImprovesAllCapsName(t *testing.T) {
	e := NewEngine(emptyStore())

	d := e.Decide(FieldInput{ID: "1", CurrentName: "FIRST_NAME", Kind: "text"})

	assert.Equal(t, ActionImprove, d.Action)
	assert.Equal(t, "first_name", d.NewName)
}

func TestDecideFallsBackToRuleWhenNoCurrentName(t *testing.T) {
	e := NewEngine(emptyStore())

	d := e.Decide(FieldInput{
		ID: "1", Kind: "text",
		Context: fieldcontext.FieldContext{Label: "Phone Number:"},
	})

	require.Equal(t, ActionRestructure, d.Action)
	assert.Equal(t, "contact_phone-number", d.NewName)
	assert.Equal(t, SourceRule, d.Source)
}

func TestDecideFallsBackToGenericFallback(t *testing.T) {
	e := NewEngine(emptyStore())

	d := e.Decide(FieldInput{
		ID: "field-42", Kind: "text",
		Context: fieldcontext.FieldContext{Label: "Favorite Color:"},
	})

	assert.Equal(t, SourceFallback, d.Source)
	assert.Contains(t, d.NewName, "form_text__")
}

func TestDecideDisambiguatesCollidingNames(t *testing.T) {
	e := NewEngine(emptyStore())

	d1 := e.Decide(FieldInput{ID: "1", Kind: "text", Context: fieldcontext.FieldContext{Label: "Phone Number:"}})
	d2 := e.Decide(FieldInput{ID: "2", Kind: "text", Context: fieldcontext.FieldContext{Label: "Phone Number:"}})

	assert.NotEqual(t, d1.NewName, d2.NewName)
	assert.Contains(t, d2.NewName, "__2")
}

func TestDecideRadioWidgetJoinsGroupPrefix(t *testing.T) {
	e := NewEngine(emptyStore())

	group := e.Decide(FieldInput{ID: "g", Kind: "radio_group", Context: fieldcontext.FieldContext{Label: "Transaction Type"}})
	require.Equal(t, "selection_transaction-type", group.NewName)

	widget := e.Decide(FieldInput{
		ID: "g.1", Kind: "radio_widget", IsRadioWidget: true,
		RadioGroupName: group.NewName, ExportValue: "one-time",
	})

	assert.Equal(t, "selection_transaction-type__one-time", widget.NewName)
}

func TestDecideExactPatternDominanceRequiresTwoXMargin(t *testing.T) {
	store := training.Load([]training.Record{
		{Label: "SSN:", Section: "Personal", Kind: "text", PagePositionX: 10, PagePositionY: 10, ApprovedName: "personal-info_ssn"},
		{Label: "SSN:", Section: "Personal", Kind: "text", PagePositionX: 10, PagePositionY: 10, ApprovedName: "personal-info_ssn"},
		{Label: "SSN:", Section: "Personal", Kind: "text", PagePositionX: 10, PagePositionY: 10, ApprovedName: "contact-info_ssn"},
	})
	e := NewEngine(store)

	d := e.Decide(FieldInput{
		ID: "1", Kind: "text",
		Context: fieldcontext.FieldContext{Label: "SSN:", SectionHeader: "Personal"},
	})

	assert.Equal(t, SourceExactMatch, d.Source)
	assert.Equal(t, "personal-info_ssn", d.NewName)
}
