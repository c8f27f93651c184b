package bemlog

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupReturnsNonNilLoggerForEveryMode(t *testing.T) {
	assert.NotNil(t, Setup(ModeServer, false))
	assert.NotNil(t, Setup(ModeStdio, false))
	assert.NotNil(t, Setup(ModeStdio, true))
}

func TestFieldAndDocumentProduceStringAttrs(t *testing.T) {
	attr := Field("1_0")
	assert.Equal(t, "field_id", attr.Key)
	assert.Equal(t, slog.KindString, attr.Value.Kind())
	assert.Equal(t, "1_0", attr.Value.String())

	docAttr := Document("form.pdf")
	assert.Equal(t, "document", docAttr.Key)
	assert.Equal(t, "form.pdf", docAttr.Value.String())
}
