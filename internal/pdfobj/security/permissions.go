package security

import (
	"fmt"
	"strings"
)

// Permissions is the subset of the PDF permissions bitmask (the P entry
// of the encryption dictionary, ISO 32000-1 §7.6.3.2 table 22) that the
// rename pipeline cares about: everything governing whether a document
// may be edited or have its form fields filled in. The print/copy/extract/
// assemble bits exist in every PDF's P value but this package never reads
// them back, since nothing downstream of safemod makes a decision on them.
type Permissions struct {
	Modify    bool // Bit 4 - modify the document's contents
	Annotate  bool // Bit 6 - add/modify annotations, fill in form fields
	FillForms bool // Bit 9 - fill in existing form fields, including signatures
}

// FromInt32 decodes the bit flags FieldRename's modification-safety check
// needs out of a raw P value.
func FromInt32(perms int32) Permissions {
	return Permissions{
		Modify:    perms&0x08 != 0,
		Annotate:  perms&0x20 != 0,
		FillForms: perms&0x100 != 0,
	}
}

// AllowsRename reports whether the document's permissions let safemod
// proceed: renaming a field edits both the field dictionary (Modify) and,
// for most field kinds, widget appearances the viewer treats as form-fill
// (FillForms).
func (p Permissions) AllowsRename() bool {
	return p.Modify && p.FillForms
}

func (p Permissions) String() string {
	var denied []string
	if !p.Modify {
		denied = append(denied, "modify")
	}
	if !p.Annotate {
		denied = append(denied, "annotate")
	}
	if !p.FillForms {
		denied = append(denied, "fill_forms")
	}
	if len(denied) == 0 {
		return "unrestricted"
	}
	return fmt.Sprintf("denies: %s", strings.Join(denied, ", "))
}
