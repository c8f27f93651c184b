package acroform

import (
	"fmt"
	"strconv"

	"github.com/fieldbem/pdfrename/internal/bemerrors"
	"github.com/fieldbem/pdfrename/internal/pdfobj"
)

const defaultLargeFormThreshold = 1000

// Extractor walks a document's AcroForm tree, producing the flat Field
// list C5/C6 operate over.
type Extractor struct {
	doc                *pdfobj.Document
	pageIndex          *PageIndex
	largeFormThreshold int
	visited            map[pdfobj.ObjectID]bool
	fields             []*Field
	warnings           []*bemerrors.Error
}

// NewExtractor builds an Extractor for doc. A largeFormThreshold of 0
// selects the default of 1000.
func NewExtractor(doc *pdfobj.Document, largeFormThreshold int) *Extractor {
	if largeFormThreshold <= 0 {
		largeFormThreshold = defaultLargeFormThreshold
	}
	return &Extractor{
		doc:                doc,
		pageIndex:          BuildPageIndex(doc),
		largeFormThreshold: largeFormThreshold,
		visited:            make(map[pdfobj.ObjectID]bool),
	}
}

type inherited struct {
	fieldType string
	flags     int64
	value     pdfobj.PDFObject
}

// Extract produces the flat field list plus any warnings collected while
// walking the tree. A nil AcroForm dictionary is not an error: it yields an
// empty list.
func (e *Extractor) Extract() ([]*Field, []*bemerrors.Error, error) {
	acroFormObj := e.doc.Root().Get("AcroForm")
	if acroFormObj.Type() == pdfobj.TypeNull {
		return nil, nil, nil
	}

	resolved, err := e.doc.Resolve(acroFormObj)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving AcroForm dictionary: %w", err)
	}
	formDict, ok := resolved.(*pdfobj.Dictionary)
	if !ok {
		return nil, nil, fmt.Errorf("AcroForm is not a dictionary, got %s", resolved.Type())
	}

	fieldsObj, err := e.doc.Resolve(formDict.Get("Fields"))
	if err != nil {
		return nil, nil, fmt.Errorf("resolving Fields array: %w", err)
	}
	fieldsArr, ok := fieldsObj.(*pdfobj.Array)
	if !ok {
		return nil, nil, nil
	}

	root := inherited{}
	e.walkFieldArray(fieldsArr, "", "", root)

	if len(e.fields) > e.largeFormThreshold {
		e.warnings = append(e.warnings, bemerrors.LargeForm(len(e.fields), e.largeFormThreshold))
	}

	return e.fields, e.warnings, nil
}

// walkFieldArray parses each element of arr as a field/widget node under
// parentID/parentName and returns the ordered child IDs, appending parsed
// fields to e.fields as it goes.
func (e *Extractor) walkFieldArray(arr *pdfobj.Array, parentID, parentName string, inh inherited) []string {
	var childIDs []string
	for i, elem := range arr.Elements {
		id := childID(parentID, i)
		fld := e.parseFieldNode(elem, id, parentID, parentName, inh)
		if fld == nil {
			continue
		}
		childIDs = append(childIDs, id)
	}
	return childIDs
}

func childID(parentID string, index int) string {
	if parentID == "" {
		return fmt.Sprintf("field_%04d", index)
	}
	return parentID + "_" + strconv.Itoa(index)
}

// parseFieldNode resolves one node of the field tree, appends it (and any
// descendants) to e.fields, and returns the parsed Field, or nil if the
// node was a cycle or could not be resolved as a dictionary.
func (e *Extractor) parseFieldNode(obj pdfobj.PDFObject, id, parentID, parentName string, inh inherited) *Field {
	var objID pdfobj.ObjectID
	if ref, ok := obj.(*pdfobj.IndirectRef); ok {
		if e.visited[ref.ObjectID] {
			e.warnings = append(e.warnings, bemerrors.CircularField(id))
			return nil
		}
		e.visited[ref.ObjectID] = true
		objID = ref.ObjectID
	}

	resolved, err := e.doc.Resolve(obj)
	if err != nil {
		return nil
	}
	dict, ok := resolved.(*pdfobj.Dictionary)
	if !ok {
		return nil
	}

	localName := dict.GetString("T")
	fieldType := dict.GetName("FT")
	if fieldType == "" {
		fieldType = inh.fieldType
	}
	flags := dict.GetInt("Ff")
	if flags == 0 {
		flags = inh.flags
	}
	var value pdfobj.PDFObject = inh.value
	if v := dict.Get("V"); v.Type() != pdfobj.TypeNull {
		value = v
	}

	name := localName
	if localName == "" {
		name = parentName
	} else if parentName != "" {
		name = parentName + "." + localName
	}

	fld := newField()
	fld.ID = id
	fld.ParentID = parentID
	fld.Name = name
	fld.Value = value
	fld.ObjectRef = objID
	setFlags(fld, flags, fieldType)

	kidsObj, kidsErr := e.doc.Resolve(dict.Get("Kids"))
	kidsArr, hasKids := kidsObj.(*pdfobj.Array)
	if kidsErr != nil || !hasKids || kidsArr.Len() == 0 {
		hasKids = false
	}

	if !hasKids {
		fld.Kind = classifyKind(fieldType, flags, false)
		e.applyRect(fld, dict)
		e.applyPage(fld, dict)
		e.fields = append(e.fields, fld)
		return fld
	}

	// Split Kids into genuine child fields vs. pure widget annotations of
	// this same logical field.
	var fieldKidIdx, widgetKidIdx []int
	for i := 0; i < kidsArr.Len(); i++ {
		kidResolved, err := e.doc.Resolve(kidsArr.Get(i))
		if err != nil {
			continue
		}
		kidDict, ok := kidResolved.(*pdfobj.Dictionary)
		if !ok {
			continue
		}
		if kidDict.Has("FT") || kidDict.Has("T") {
			fieldKidIdx = append(fieldKidIdx, i)
		} else if kidDict.GetName("Subtype") == "Widget" {
			widgetKidIdx = append(widgetKidIdx, i)
		}
	}

	isRadioShape := len(widgetKidIdx) > 0
	fld.Kind = classifyKind(fieldType, flags, isRadioShape)
	fld.IsGroupContainer = true
	// Containers are conceptual groupings; per I1 they carry no rect.
	e.fields = append(e.fields, fld)

	childInh := inherited{fieldType: fieldType, flags: flags, value: value}

	if len(fieldKidIdx) > 0 {
		sub := &pdfobj.Array{}
		for _, i := range fieldKidIdx {
			sub.Elements = append(sub.Elements, kidsArr.Get(i))
		}
		fld.ChildIDs = append(fld.ChildIDs, e.walkFieldArray(sub, id, name, childInh)...)
	}

	for _, i := range widgetKidIdx {
		widgetID := childID(id, i)
		widgetFld := e.parseWidgetKid(kidsArr.Get(i), widgetID, id, fld, isRadioShape)
		if widgetFld != nil {
			fld.ChildIDs = append(fld.ChildIDs, widgetID)
		}
	}

	return fld
}

// parseWidgetKid handles a Kids entry that is a pure widget annotation
// (no FT/T of its own) rather than a nested field, deriving the radio
// export value and name per the radio-group naming rule.
func (e *Extractor) parseWidgetKid(obj pdfobj.PDFObject, id, parentID string, parent *Field, isRadioShape bool) *Field {
	var objID pdfobj.ObjectID
	if ref, ok := obj.(*pdfobj.IndirectRef); ok {
		if e.visited[ref.ObjectID] {
			e.warnings = append(e.warnings, bemerrors.CircularField(id))
			return nil
		}
		e.visited[ref.ObjectID] = true
		objID = ref.ObjectID
	}

	resolved, err := e.doc.Resolve(obj)
	if err != nil {
		return nil
	}
	dict, ok := resolved.(*pdfobj.Dictionary)
	if !ok {
		return nil
	}

	fld := newField()
	fld.ID = id
	fld.ParentID = parentID
	fld.ObjectRef = objID
	fld.Value = parent.Value
	for fl, v := range parent.Flags {
		fld.Flags[fl] = v
	}

	if isRadioShape {
		fld.Kind = KindRadioWidget
		if ev := deriveExportValue(e.doc, dict); ev != nil {
			fld.ExportValue = ev
			fld.Name = parent.Name + "__" + *ev
		} else {
			fld.Name = parent.Name
		}
	} else {
		fld.Kind = parent.Kind
		fld.Name = parent.Name
		fld.ExportValue = deriveExportValue(e.doc, dict)
	}

	e.applyRect(fld, dict)
	e.applyPage(fld, dict)
	e.fields = append(e.fields, fld)
	return fld
}

func (e *Extractor) applyRect(fld *Field, dict *pdfobj.Dictionary) {
	rectObj, err := e.doc.Resolve(dict.Get("Rect"))
	if err != nil {
		e.warnings = append(e.warnings, bemerrors.BadRect(fld.ID))
		return
	}
	arr, ok := rectObj.(*pdfobj.Array)
	if !ok || arr.Len() != 4 {
		e.warnings = append(e.warnings, bemerrors.BadRect(fld.ID))
		return
	}
	var rect [4]float64
	for i := 0; i < 4; i++ {
		elem, err := e.doc.Resolve(arr.Get(i))
		if err != nil || elem.Type() != pdfobj.TypeNumber {
			e.warnings = append(e.warnings, bemerrors.BadRect(fld.ID))
			return
		}
		rect[i] = elem.(*pdfobj.Number).Float()
	}
	fld.Rect = rect
	fld.HasRect = true
}

func (e *Extractor) applyPage(fld *Field, dict *pdfobj.Dictionary) {
	pObj := dict.Get("P")
	ref, ok := pObj.(*pdfobj.IndirectRef)
	if !ok {
		return
	}
	if n, ok := e.pageIndex.Lookup(ref.ObjectID); ok {
		fld.Page = n
	}
}

func setFlags(fld *Field, flags int64, fieldType string) {
	if flags&1 != 0 {
		fld.Flags[FlagReadonly] = true
	}
	if flags&2 != 0 {
		fld.Flags[FlagRequired] = true
	}
	switch fieldType {
	case "Tx":
		if flags&0x1000 != 0 {
			fld.Flags[FlagMultiline] = true
		}
		if flags&0x2000 != 0 {
			fld.Flags[FlagPassword] = true
		}
	case "Btn":
		if flags&0x8000 != 0 {
			fld.Flags[FlagRadio] = true
		}
		if flags&0x10000 != 0 {
			fld.Flags[FlagPushbutton] = true
		}
	case "Ch":
		if flags&0x20000 != 0 {
			fld.Flags[FlagCombo] = true
		}
	}
}

func classifyKind(fieldType string, flags int64, isRadioShape bool) Kind {
	switch fieldType {
	case "Tx":
		return KindText
	case "Ch":
		return KindChoice
	case "Sig":
		return KindSignature
	case "Btn":
		if flags&0x8000 != 0 && isRadioShape {
			return KindRadioGroup
		}
		return KindCheckbox
	default:
		return KindUnknown
	}
}
