package acroform

import (
	"testing"

	"github.com/fieldbem/pdfrename/internal/bemerrors"
	"github.com/fieldbem/pdfrename/internal/pdfobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(v int64) *pdfobj.Number { return &pdfobj.Number{Value: v} }

func rectArray(x1, y1, x2, y2 int64) *pdfobj.Array {
	return &pdfobj.Array{Elements: []pdfobj.PDFObject{num(x1), num(y1), num(x2), num(y2)}}
}

func textField(name string) *pdfobj.Dictionary {
	d := pdfobj.NewDictionary()
	d.Set("FT", &pdfobj.Name{Value: "Tx"})
	d.Set("T", &pdfobj.String{Value: name})
	d.Set("Rect", rectArray(10, 10, 100, 30))
	return d
}

func buildDoc(t *testing.T, acroForm *pdfobj.Dictionary, objects map[pdfobj.ObjectID]pdfobj.PDFObject) *pdfobj.Document {
	t.Helper()
	root := pdfobj.NewDictionary()
	root.Set("AcroForm", acroForm)
	return pdfobj.NewDirectDocument(root, nil, objects)
}

func TestExtractSimpleTextField(t *testing.T) {
	fields := &pdfobj.Array{Elements: []pdfobj.PDFObject{textField("name")}}
	form := pdfobj.NewDictionary()
	form.Set("Fields", fields)

	doc := buildDoc(t, form, nil)
	ex := NewExtractor(doc, 0)
	result, warnings, err := ex.Extract()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, result, 1)
	assert.Equal(t, "field_0000", result[0].ID)
	assert.Equal(t, "name", result[0].Name)
	assert.Equal(t, KindText, result[0].Kind)
	assert.True(t, result[0].HasRect)
	assert.Equal(t, [4]float64{10, 10, 100, 30}, result[0].Rect)
}

func TestExtractNoAcroForm(t *testing.T) {
	root := pdfobj.NewDictionary()
	doc := pdfobj.NewDirectDocument(root, nil, nil)
	ex := NewExtractor(doc, 0)

	result, warnings, err := ex.Extract()
	require.NoError(t, err)
	assert.Nil(t, warnings)
	assert.Nil(t, result)
}

func TestExtractMissingRectEmitsBadRect(t *testing.T) {
	d := pdfobj.NewDictionary()
	d.Set("FT", &pdfobj.Name{Value: "Tx"})
	d.Set("T", &pdfobj.String{Value: "no_rect"})

	form := pdfobj.NewDictionary()
	form.Set("Fields", &pdfobj.Array{Elements: []pdfobj.PDFObject{d}})

	doc := buildDoc(t, form, nil)
	ex := NewExtractor(doc, 0)
	result, warnings, err := ex.Extract()

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.False(t, result[0].HasRect)
	assert.Equal(t, [4]float64{}, result[0].Rect)
	require.Len(t, warnings, 1)
	assert.Equal(t, bemerrors.KindBadRect, warnings[0].Kind)
}

func TestExtractRadioGroupSplitsLogicalAndWidgets(t *testing.T) {
	widget1 := pdfobj.NewDictionary()
	widget1.Set("Subtype", &pdfobj.Name{Value: "Widget"})
	widget1.Set("Rect", rectArray(0, 0, 20, 20))
	widget1.Set("AS", &pdfobj.Name{Value: "Yes"})
	ap1 := pdfobj.NewDictionary()
	n1 := pdfobj.NewDictionary()
	n1.Set("Yes", &pdfobj.IndirectRef{ObjectID: pdfobj.ObjectID{Number: 10}})
	n1.Set("Off", &pdfobj.IndirectRef{ObjectID: pdfobj.ObjectID{Number: 11}})
	ap1.Set("N", n1)
	widget1.Set("AP", ap1)

	widget2 := pdfobj.NewDictionary()
	widget2.Set("Subtype", &pdfobj.Name{Value: "Widget"})
	widget2.Set("Rect", rectArray(0, 30, 20, 50))
	widget2.Set("AS", &pdfobj.Name{Value: "Off"})
	ap2 := pdfobj.NewDictionary()
	n2 := pdfobj.NewDictionary()
	n2.Set("No", &pdfobj.IndirectRef{ObjectID: pdfobj.ObjectID{Number: 12}})
	n2.Set("Off", &pdfobj.IndirectRef{ObjectID: pdfobj.ObjectID{Number: 13}})
	ap2.Set("N", n2)
	widget2.Set("AP", ap2)

	radioGroup := pdfobj.NewDictionary()
	radioGroup.Set("FT", &pdfobj.Name{Value: "Btn"})
	radioGroup.Set("T", &pdfobj.String{Value: "color"})
	radioGroup.Set("Ff", num(0x8000))
	radioGroup.Set("Kids", &pdfobj.Array{Elements: []pdfobj.PDFObject{widget1, widget2}})

	form := pdfobj.NewDictionary()
	form.Set("Fields", &pdfobj.Array{Elements: []pdfobj.PDFObject{radioGroup}})

	doc := buildDoc(t, form, nil)
	ex := NewExtractor(doc, 0)
	result, _, err := ex.Extract()
	require.NoError(t, err)
	require.Len(t, result, 3)

	container := result[0]
	assert.Equal(t, KindRadioGroup, container.Kind)
	assert.True(t, container.IsGroupContainer)
	assert.False(t, container.HasRect)
	assert.Equal(t, "color", container.Name)
	assert.Len(t, container.ChildIDs, 2)

	yes := result[1]
	assert.Equal(t, KindRadioWidget, yes.Kind)
	require.NotNil(t, yes.ExportValue)
	assert.Equal(t, "Yes", *yes.ExportValue)
	assert.Equal(t, "color__Yes", yes.Name)

	off := result[2]
	assert.Equal(t, KindRadioWidget, off.Kind)
	require.NotNil(t, off.ExportValue)
	assert.Equal(t, "No", *off.ExportValue)
	assert.Equal(t, "color__No", off.Name)
}

func TestExtractNestedFieldGroupInheritsName(t *testing.T) {
	street := textField("street")
	city := textField("city")

	group := pdfobj.NewDictionary()
	group.Set("T", &pdfobj.String{Value: "address"})
	group.Set("Kids", &pdfobj.Array{Elements: []pdfobj.PDFObject{street, city}})

	form := pdfobj.NewDictionary()
	form.Set("Fields", &pdfobj.Array{Elements: []pdfobj.PDFObject{group}})

	doc := buildDoc(t, form, nil)
	ex := NewExtractor(doc, 0)
	result, _, err := ex.Extract()
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.True(t, result[0].IsGroupContainer)
	assert.Equal(t, "address", result[0].Name)
	assert.Equal(t, "address.street", result[1].Name)
	assert.Equal(t, "address.city", result[2].Name)
	assert.Equal(t, []string{"field_0000_0", "field_0000_1"}, result[0].ChildIDs)
}

func TestExtractCircularKidsEmitsWarningAndSkips(t *testing.T) {
	self := pdfobj.NewDictionary()
	self.Set("FT", &pdfobj.Name{Value: "Tx"})
	self.Set("T", &pdfobj.String{Value: "loop"})
	ref := &pdfobj.IndirectRef{ObjectID: pdfobj.ObjectID{Number: 42}}
	self.Set("Kids", &pdfobj.Array{Elements: []pdfobj.PDFObject{ref}})

	objects := map[pdfobj.ObjectID]pdfobj.PDFObject{
		{Number: 42}: self,
	}

	form := pdfobj.NewDictionary()
	form.Set("Fields", &pdfobj.Array{Elements: []pdfobj.PDFObject{ref}})

	doc := buildDoc(t, form, objects)
	ex := NewExtractor(doc, 0)
	result, warnings, err := ex.Extract()
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Len(t, warnings, 1)
	assert.Equal(t, bemerrors.KindCircularField, warnings[0].Kind)
}

func TestExtractLargeFormWarning(t *testing.T) {
	var elems []pdfobj.PDFObject
	for i := 0; i < 5; i++ {
		elems = append(elems, textField("f"))
	}
	form := pdfobj.NewDictionary()
	form.Set("Fields", &pdfobj.Array{Elements: elems})

	doc := buildDoc(t, form, nil)
	ex := NewExtractor(doc, 3)
	_, warnings, err := ex.Extract()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}
