package emit

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMappingCSVEmitsBOMAndHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMappingCSV(&buf, nil))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	body := strings.TrimPrefix(string(out), string(utf8BOM))
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "ID,Created at,Updated at,Label,Description,Form ID,Order,Api name,UUID,Type,Parent ID,Delete Parent ID,Acrofieldlabel,Section ID,Excluded,Partial label,Custom,Show group label,Height,Page,Width,X,Y,Unified field ID,Delete,Hidden,Toggle description", lines[0])
	assert.NotContains(t, body, "\r\n", "newlines must be LF only")
}

func TestWriteMappingCSVFormatsBooleansAndTimestamps(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2026, 7, 30, 10, 30, 0, 0, time.UTC)
	rows := []MappingRow{
		{ID: "1", CreatedAt: now, UpdatedAt: now, ApiName: "owner-information_name", Excluded: true, Custom: false, Hidden: true},
	}
	require.NoError(t, WriteMappingCSV(&buf, rows))

	body := strings.TrimPrefix(buf.String(), string(utf8BOM))
	assert.Contains(t, body, "2026-07-30T10:30:00Z")
	assert.Contains(t, body, "TRUE")
	assert.Contains(t, body, "FALSE")
}

func TestWriteMappingCSVQuotesFieldsWithCommas(t *testing.T) {
	var buf bytes.Buffer
	rows := []MappingRow{
		{ID: "1", Label: "Last, First", ApiName: "owner-information_name"},
	}
	require.NoError(t, WriteMappingCSV(&buf, rows))
	assert.Contains(t, buf.String(), `"Last, First"`)
}
