package acroform

import "github.com/fieldbem/pdfrename/internal/pdfobj"

// PageIndex maps a resolved page object ID to its 1-based position in
// document order, built once per document the way the teacher precomputes
// a page index instead of re-walking the page tree per lookup.
type PageIndex struct {
	byObjectID map[pdfobj.ObjectID]int
}

// BuildPageIndex walks doc's page tree from the catalog's Pages entry and
// numbers every leaf Page node in traversal order. Malformed or missing
// page trees yield an empty index rather than an error; page numbers are
// a convenience, not load-bearing for renaming.
func BuildPageIndex(doc *pdfobj.Document) *PageIndex {
	idx := &PageIndex{byObjectID: make(map[pdfobj.ObjectID]int)}

	pagesObj := doc.Root().Get("Pages")
	if pagesObj.Type() == pdfobj.TypeNull {
		return idx
	}

	visited := make(map[pdfobj.ObjectID]bool)
	counter := 0
	var walk func(obj pdfobj.PDFObject)
	walk = func(obj pdfobj.PDFObject) {
		if ref, ok := obj.(*pdfobj.IndirectRef); ok {
			if visited[ref.ObjectID] {
				return
			}
			visited[ref.ObjectID] = true
		}
		resolved, err := doc.Resolve(obj)
		if err != nil {
			return
		}
		dict, ok := resolved.(*pdfobj.Dictionary)
		if !ok {
			return
		}
		if dict.GetName("Type") == "Pages" {
			kids := dict.GetArray("Kids")
			for i := 0; i < kids.Len(); i++ {
				walk(kids.Get(i))
			}
			return
		}
		// Leaf page node.
		counter++
		if ref, ok := obj.(*pdfobj.IndirectRef); ok {
			idx.byObjectID[ref.ObjectID] = counter
		}
	}
	walk(pagesObj)

	return idx
}

// Lookup returns the 1-based page number for a page object reference, and
// whether it was found.
func (idx *PageIndex) Lookup(ref pdfobj.ObjectID) (int, bool) {
	n, ok := idx.byObjectID[ref]
	return n, ok
}

// Count returns the number of leaf pages the index numbered.
func (idx *PageIndex) Count() int {
	return len(idx.byObjectID)
}
