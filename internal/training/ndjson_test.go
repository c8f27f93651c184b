package training

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNDJSONParsesOneRecordPerLine(t *testing.T) {
	input := strings.Join([]string{
		`{"label":"First Name","section":"owner-information","kind":"text","approved_name":"owner-information_first-name"}`,
		``,
		`{"label":"Date","section":"signatures","kind":"text","approved_name":"signatures_date"}`,
	}, "\n")

	records, err := LoadNDJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "owner-information_first-name", records[0].ApprovedName)
	assert.Equal(t, "signatures_date", records[1].ApprovedName)
}

func TestLoadNDJSONFailsOnMalformedLine(t *testing.T) {
	_, err := LoadNDJSON(strings.NewReader(`{"label": not-json}`))
	assert.Error(t, err)
}

func TestLoadNDJSONEmptyInputYieldsNoRecords(t *testing.T) {
	records, err := LoadNDJSON(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}
