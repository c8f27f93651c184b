package planner

import (
	"strings"

	"github.com/fieldbem/pdfrename/internal/pdfobj"
)

// discoverDependentRefs scans the AcroForm's calculation-order array and
// every field/action object's JavaScript strings for occurrences of
// oldName, returning one DependentRef per occurrence found. A reference
// is marked unrewritable when oldName appears only as part of a larger
// identifier or inside string concatenation the planner cannot safely
// isolate (per §4.6.3/§9(b): best-effort rewrite, hard blocker only when
// the occurrence can't be isolated unambiguously).
func discoverDependentRefs(doc *pdfobj.Document, oldName, newName string) []DependentRef {
	if oldName == "" || doc == nil {
		return nil
	}

	var refs []DependentRef

	acroFormObj := doc.Root().Get("AcroForm")
	resolved, err := doc.Resolve(acroFormObj)
	if err != nil {
		return nil
	}
	formDict, ok := resolved.(*pdfobj.Dictionary)
	if !ok {
		return nil
	}

	if co := coReferences(doc, formDict, oldName, newName); len(co) > 0 {
		refs = append(refs, co...)
	}

	for _, id := range doc.ObjectIDs {
		obj, err := doc.Resolve(&pdfobj.IndirectRef{ObjectID: id})
		if err != nil {
			continue
		}
		dict, ok := obj.(*pdfobj.Dictionary)
		if !ok {
			continue
		}
		refs = append(refs, jsActionReferences(doc, id, dict, oldName, newName)...)
	}

	return refs
}

// coReferences inspects the AcroForm's /CO (calculation order) array for
// indirect references whose target field's fully-qualified name equals
// oldName. Array membership is always cleanly rewritable: the reference
// is to the object, not a textual occurrence of the name.
func coReferences(doc *pdfobj.Document, formDict *pdfobj.Dictionary, oldName, newName string) []DependentRef {
	coObj, err := doc.Resolve(formDict.Get("CO"))
	if err != nil {
		return nil
	}
	arr, ok := coObj.(*pdfobj.Array)
	if !ok {
		return nil
	}
	var refs []DependentRef
	for _, elem := range arr.Elements {
		ref, ok := elem.(*pdfobj.IndirectRef)
		if !ok {
			continue
		}
		name := ""
		var cur pdfobj.PDFObject = ref
		for depth := 0; depth < 32 && cur.Type() != pdfobj.TypeNull; depth++ {
			resolved, err := doc.Resolve(cur)
			d, isDict := resolved.(*pdfobj.Dictionary)
			if err != nil || !isDict {
				break
			}
			if t := d.GetString("T"); t != "" && name == "" {
				name = t
			} else if t != "" {
				name = t + "." + name
			}
			cur = d.Get("Parent")
		}
		if name != oldName {
			continue
		}
		refs = append(refs, DependentRef{
			ObjectRef:  ref.ObjectID,
			Kind:       "calculation_order",
			OldText:    oldName,
			NewText:    newName,
			Rewritable: true,
		})
	}
	return refs
}

// jsActionReferences looks for JavaScript action strings (/AA and /A
// dictionaries with /S /JavaScript) on dict that textually mention
// oldName, e.g. `this.getField("old.name").value`.
func jsActionReferences(doc *pdfobj.Document, id pdfobj.ObjectID, dict *pdfobj.Dictionary, oldName, newName string) []DependentRef {
	var refs []DependentRef

	check := func(actionDict *pdfobj.Dictionary) {
		if actionDict == nil {
			return
		}
		if actionDict.GetName("S") != "JavaScript" {
			return
		}
		jsObj := actionDict.Get("JS")
		str, ok := jsObj.(*pdfobj.String)
		if !ok {
			return
		}
		if !strings.Contains(str.Value, oldName) {
			return
		}
		refs = append(refs, DependentRef{
			ObjectRef:  id,
			Kind:       "js_action",
			OldText:    oldName,
			NewText:    newName,
			Rewritable: isIsolatedOccurrence(str.Value, oldName),
		})
	}

	if aObj, err := doc.Resolve(dict.Get("A")); err == nil {
		if d, ok := aObj.(*pdfobj.Dictionary); ok {
			check(d)
		}
	}
	if aaObj, err := doc.Resolve(dict.Get("AA")); err == nil {
		if aa, ok := aaObj.(*pdfobj.Dictionary); ok {
			for _, key := range aa.Keys {
				if evObj, err := doc.Resolve(aa.Get(key.Value)); err == nil {
					if d, ok := evObj.(*pdfobj.Dictionary); ok {
						check(d)
					}
				}
			}
		}
	}

	return refs
}

// isIsolatedOccurrence reports whether oldName appears inside js as a
// quoted string literal argument (e.g. "old.name" or 'old.name'), the
// only shape the planner can safely rewrite. Occurrences built through
// string concatenation or dynamic construction cannot be isolated and
// are reported as blockers instead.
func isIsolatedOccurrence(js, oldName string) bool {
	for _, quote := range []string{"\"", "'"} {
		if strings.Contains(js, quote+oldName+quote) {
			return true
		}
	}
	return false
}
