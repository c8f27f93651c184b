package acroform

import "github.com/fieldbem/pdfrename/internal/pdfobj"

// deriveExportValue recovers the option name a radio/checkbox widget
// represents: the appearance state in /AS if it names something other than
// the off-state, else the first non-off key of /AP/N. Mirrors the encoding
// documented against real-world PDFs (including the Mac OS Preview quirk of
// leaving /AS stale) rather than trusting /AS alone.
func deriveExportValue(doc *pdfobj.Document, widget *pdfobj.Dictionary) *string {
	if as := widget.GetName("AS"); as != "" && as != "Off" {
		v := as
		return &v
	}

	apObj, err := doc.Resolve(widget.Get("AP"))
	if err != nil {
		return nil
	}
	apDict, ok := apObj.(*pdfobj.Dictionary)
	if !ok {
		return nil
	}
	nObj, err := doc.Resolve(apDict.Get("N"))
	if err != nil {
		return nil
	}
	nDict, ok := nObj.(*pdfobj.Dictionary)
	if !ok {
		// /AP/N is a single direct stream reference (no sub-states): no
		// export value can be derived from it alone.
		return nil
	}
	for _, k := range nDict.Keys {
		if k.Value != "Off" {
			v := k.Value
			return &v
		}
	}
	return nil
}
