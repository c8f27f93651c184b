package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDiscardsUngrammaticalNames(t *testing.T) {
	records := []Record{
		{Label: "Full Name:", Kind: "text", ApprovedName: "personal-info_full-name"},
		{Label: "SSN:", Kind: "text", ApprovedName: "Not A Valid Name!!"},
		{Label: "SSN:", Kind: "text", ApprovedName: "group__whatever"},
	}

	s := Load(records)

	require.Len(t, s.Records(), 1)
	assert.Equal(t, "personal-info_full-name", s.Records()[0].ApprovedName)
}

func TestLookupExactMatchesFingerprintExactly(t *testing.T) {
	records := []Record{
		{Label: "Full Name:", Section: "Personal", Kind: "text", PagePositionX: 100, PagePositionY: 400, ApprovedName: "personal-info_full-name"},
		{Label: "Full Name:", Section: "Personal", Kind: "text", PagePositionX: 100, PagePositionY: 400, ApprovedName: "personal-info_full-name"},
		{Label: "Full Name:", Section: "Personal", Kind: "text", PagePositionX: 100, PagePositionY: 400, ApprovedName: "contact-info_name"},
	}
	s := Load(records)

	matches := s.LookupExact(LookupContext{Label: "Full Name:", Section: "Personal", Kind: "text", X: 100, Y: 400})

	require.Len(t, matches, 2)
	assert.Equal(t, "personal-info_full-name", matches[0].Name)
	assert.Equal(t, 2, matches[0].Support)
}

func TestLookupExactNoMatchReturnsEmpty(t *testing.T) {
	s := Load([]Record{
		{Label: "Full Name:", Section: "Personal", Kind: "text", PagePositionX: 100, PagePositionY: 400, ApprovedName: "personal-info_full-name"},
	})

	matches := s.LookupExact(LookupContext{Label: "Something Else:", Section: "Other", Kind: "checkbox", X: 500, Y: 10})
	assert.Empty(t, matches)
}

func TestLookupExactDistinguishesSpatialBands(t *testing.T) {
	s := Load([]Record{
		{Label: "Amount:", Section: "Payment", Kind: "text", PagePositionX: 10, PagePositionY: 10, ApprovedName: "payment_amount"},
	})

	// same label/section/kind but far away on the page: different band, no match.
	matches := s.LookupExact(LookupContext{Label: "Amount:", Section: "Payment", Kind: "text", X: 600, Y: 780})
	assert.Empty(t, matches)
}

func TestPatternsCatalogIsMinedFromApprovedNames(t *testing.T) {
	s := Load([]Record{
		{Label: "Email Address:", Kind: "text", ApprovedName: "contact-info_email"},
		{Label: "Email:", Kind: "text", ApprovedName: "contact-info_email"},
	})

	patterns := s.Patterns()
	require.NotEmpty(t, patterns)

	found := false
	for _, p := range patterns {
		if p.Block == "contact-info" && p.Element == "email" {
			found = true
		}
	}
	assert.True(t, found)
}
