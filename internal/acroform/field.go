// Package acroform walks the AcroForm field tree recovered by pdfobj and
// flattens it into the list<Field> shape the rest of the pipeline consumes,
// resolving inheritance and splitting radio groups into their logical
// container plus per-option widgets along the way.
package acroform

import "github.com/fieldbem/pdfrename/internal/pdfobj"

// Kind is the resolved field classification.
type Kind string

const (
	KindText        Kind = "text"
	KindCheckbox    Kind = "checkbox"
	KindRadioGroup  Kind = "radio_group"
	KindRadioWidget Kind = "radio_widget"
	KindChoice      Kind = "choice"
	KindSignature   Kind = "signature"
	KindUnknown     Kind = "unknown"
)

// Flag is one of the boolean attributes a Field may carry, resolved from
// the field's (possibly inherited) Ff bit field.
type Flag string

const (
	FlagRequired   Flag = "required"
	FlagReadonly   Flag = "readonly"
	FlagMultiline  Flag = "multiline"
	FlagPassword   Flag = "password"
	FlagRadio      Flag = "radio"
	FlagPushbutton Flag = "pushbutton"
	FlagCombo      Flag = "combo"
)

// Field is one logical field or widget annotation, flattened out of the
// AcroForm tree. See the data model's Field definition for the invariants
// this type upholds (I1-I4).
type Field struct {
	ID               string
	Name             string
	Kind             Kind
	Page             int // 1-based; 0 means undefined
	Rect             [4]float64
	HasRect          bool
	Value            pdfobj.PDFObject
	Flags            map[Flag]bool
	ParentID         string
	ChildIDs         []string
	ExportValue      *string
	ObjectRef        pdfobj.ObjectID
	IsGroupContainer bool
}

func (f *Field) HasFlag(fl Flag) bool {
	return f.Flags != nil && f.Flags[fl]
}

func newField() *Field {
	return &Field{Flags: make(map[Flag]bool)}
}
