package bemgrammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecomposesBlockElementModifier(t *testing.T) {
	block, element, modifier, ok := Parse("owner-information_first-name__required")
	assert.True(t, ok)
	assert.Equal(t, "owner-information", block)
	assert.Equal(t, "first-name", element)
	assert.Equal(t, "required", modifier)
}

func TestParseAcceptsBlockOnly(t *testing.T) {
	block, element, modifier, ok := Parse("signatures")
	assert.True(t, ok)
	assert.Equal(t, "signatures", block)
	assert.Empty(t, element)
	assert.Empty(t, modifier)
}

func TestParseRejectsMalformedShape(t *testing.T) {
	_, _, _, ok := Parse("Owner_First Name")
	assert.False(t, ok)
}

func TestValidRejectsReservedLeadingBlock(t *testing.T) {
	assert.False(t, Valid("form_first-name"))
	assert.False(t, Valid("group"))
}

func TestValidShapeAcceptsReservedBlockThatValidRejects(t *testing.T) {
	assert.True(t, ValidShape("form_widget-3"))
	assert.False(t, Valid("form_widget-3"))
}

func TestValidRejectsNameOverMaxLength(t *testing.T) {
	long := "owner-information_a-very-long-element-name-that-blows-the-budget"
	assert.Greater(t, len(long), MaxLength)
	assert.False(t, Valid(long))
}

func TestValidSegmentRejectsUnderscoresAndUppercase(t *testing.T) {
	assert.True(t, ValidSegment("first-name"))
	assert.False(t, ValidSegment("First-Name"))
	assert.False(t, ValidSegment("first_name"))
}

func TestNormalizeLowercasesAndTrims(t *testing.T) {
	assert.Equal(t, "first name", Normalize("  First Name  "))
}
