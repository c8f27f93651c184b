package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransliterateFoldsAccentsAndPunctuation(t *testing.T) {
	assert.Equal(t, "numero-de-telefono", Transliterate("Número de Teléfono"))
	assert.Equal(t, "one-time", Transliterate("One-Time"))
	assert.Equal(t, "rmd", Transliterate("RMD"))
}

func TestTransliterateEmptyInput(t *testing.T) {
	assert.Equal(t, "", Transliterate("   "))
	assert.Equal(t, "", Transliterate("###"))
}

func TestNormalizeSegmentFallsBackWhenInvalid(t *testing.T) {
	assert.Equal(t, "fallback", NormalizeSegment("###", "fallback"))
	assert.Equal(t, "first-name", NormalizeSegment("First Name", "fallback"))
}

func TestNormalizeExistingHandlesAllCapsAndSeparators(t *testing.T) {
	assert.Equal(t, "first_name", NormalizeExisting("FIRST_NAME"))
	assert.Equal(t, "last-name", NormalizeExisting("LAST-NAME"))
	assert.Equal(t, "ssn", NormalizeExisting("SSN"))
}
