package pdfobj

import (
	"fmt"
	"io"

	"github.com/fieldbem/pdfrename/internal/bemerrors"
	"github.com/fieldbem/pdfrename/internal/pdfobj/security"
	"github.com/fieldbem/pdfrename/internal/pdfobj/xref"
)

// Document is the result of Open: a parsed PDF ready for graph traversal.
type Document struct {
	parser    *Parser
	security  *security.Handler
	Version   string
	ObjectIDs []ObjectID
}

// Open parses reader's header/xref/trailer/catalog and, if the document is
// encrypted, authenticates with passphrase. An empty passphrase is valid
// for documents that only set an owner password.
func Open(reader io.ReadSeeker, passphrase string) (*Document, error) {
	p := NewParser(reader)
	if err := p.Parse(); err != nil {
		return nil, bemerrors.PdfInvalid("failed to parse PDF structure", err)
	}

	doc := &Document{parser: p, Version: p.GetVersion()}

	encryptObj := p.GetTrailer().Get("Encrypt")
	if encryptObj.Type() != TypeNull {
		handler, err := buildSecurityHandler(p, encryptObj)
		if err != nil {
			return nil, bemerrors.PdfInvalid("failed to parse encryption dictionary", err)
		}
		if err := handler.Authenticate([]byte(passphrase)); err != nil {
			return nil, bemerrors.PdfEncrypted("passphrase did not authenticate", err)
		}
		doc.security = handler
	}

	doc.ObjectIDs = p.ObjectIDs()

	return doc, nil
}

// NewDirectDocument wraps an already-built object graph (no byte stream
// behind it) as a Document. Indirect references within root still resolve
// against objects, keyed by ID, since components further down the pipeline
// build and rewrite graphs entirely in memory between C1's initial parse
// and C7's eventual write-back.
func NewDirectDocument(root *Dictionary, trailer *Dictionary, objects map[ObjectID]PDFObject) *Document {
	if trailer == nil {
		trailer = NewDictionary()
	}
	objCache := objects
	if objCache == nil {
		objCache = make(map[ObjectID]PDFObject)
	}
	p := &Parser{
		catalog:     root,
		trailer:     trailer,
		objectCache: objCache,
		entries:     make(map[ObjectID]*xref.Entry),
	}
	doc := &Document{parser: p}
	for id := range objCache {
		doc.ObjectIDs = append(doc.ObjectIDs, id)
	}
	return doc
}

// Root returns the document catalog dictionary.
func (d *Document) Root() *Dictionary {
	return d.parser.GetCatalog()
}

// StartXRefOffset returns the byte offset this document's startxref was
// found at when it was opened, for chaining an incremental update's new
// trailer /Prev back to it.
func (d *Document) StartXRefOffset() int64 {
	return d.parser.GetStartXRefOffset()
}

// FileSize returns the size in bytes of the document as originally read,
// the byte count an incremental update must copy verbatim before
// appending its new object bodies and xref section.
func (d *Document) FileSize() int64 {
	return d.parser.GetFileSize()
}

// Trailer returns the trailer dictionary.
func (d *Document) Trailer() *Dictionary {
	return d.parser.GetTrailer()
}

// Resolve resolves obj if it is an indirect reference, decrypting string
// and stream payloads when the document is encrypted.
func (d *Document) Resolve(obj PDFObject) (PDFObject, error) {
	if obj == nil {
		return &Null{}, nil
	}
	ref, isRef := obj.(*IndirectRef)
	resolved, err := d.parser.ResolveIndirectObject(obj)
	if err != nil {
		return nil, bemerrors.DanglingRef(err.Error())
	}

	if isRef && d.security != nil && d.security.IsEncrypted() {
		resolved, err = d.decrypt(resolved, ref.ObjectID)
		if err != nil {
			return nil, err
		}
	}

	return decodeStreamFilters(resolved), nil
}

// decodeStreamFilters applies any /Filter chain on obj so callers see plain
// bytes rather than the stream's on-disk (often Flate-compressed) form. A
// filter this package doesn't implement, or malformed filtered data, is not
// fatal: the stream is left as-is, since most callers never touch stream
// data at all and only need the dictionary around it.
func decodeStreamFilters(obj PDFObject) PDFObject {
	stream, ok := obj.(*Stream)
	if !ok {
		return obj
	}
	for _, name := range stream.GetFilter() {
		if _, known := filterDecoders[name]; !known {
			return obj
		}
	}
	decoded, err := DecodeStream(stream)
	if err != nil {
		return obj
	}

	dict := NewDictionary()
	for _, k := range stream.Dict.Keys {
		if k.Value == "Filter" || k.Value == "DecodeParms" {
			continue
		}
		dict.Set(k.Value, stream.Dict.Values[k.Value])
	}
	return &Stream{Dict: dict, Data: decoded, Length: int64(len(decoded))}
}

func (d *Document) decrypt(obj PDFObject, id ObjectID) (PDFObject, error) {
	switch o := obj.(type) {
	case *String:
		plain, err := d.security.DecryptObject(int(id.Number), int(id.Generation), []byte(o.Value))
		if err != nil {
			return obj, nil // leave undecryptable strings as-is; not fatal for field renaming
		}
		return &String{Value: string(plain), IsHex: o.IsHex}, nil
	case *Stream:
		plain, err := d.security.DecryptObject(int(id.Number), int(id.Generation), o.Data)
		if err != nil {
			return obj, nil
		}
		return &Stream{Dict: o.Dict, Data: plain, Length: int64(len(plain))}, nil
	case *Array:
		out := &Array{Elements: make([]PDFObject, len(o.Elements))}
		for i, e := range o.Elements {
			dec, err := d.decrypt(e, id)
			if err != nil {
				return nil, err
			}
			out.Elements[i] = dec
		}
		return out, nil
	case *Dictionary:
		out := NewDictionary()
		for _, k := range o.Keys {
			v, err := d.decrypt(o.Values[k.Value], id)
			if err != nil {
				return nil, err
			}
			out.Set(k.Value, v)
		}
		return out, nil
	default:
		return obj, nil
	}
}

func buildSecurityHandler(p *Parser, encryptObj PDFObject) (*security.Handler, error) {
	resolved, err := p.ResolveIndirectObject(encryptObj)
	if err != nil {
		return nil, err
	}
	dict, ok := resolved.(*Dictionary)
	if !ok {
		return nil, fmt.Errorf("Encrypt entry is not a dictionary")
	}

	ed := &security.EncryptionDictionary{
		Filter:          dict.GetName("Filter"),
		V:               int(dict.GetInt("V")),
		Length:          int(dict.GetInt("Length")),
		R:               int(dict.GetInt("R")),
		P:               int32(dict.GetInt("P")),
		EncryptMetadata: true,
	}
	if ed.Length == 0 {
		ed.Length = 40
	}
	if o := dict.Get("O"); o.Type() == TypeString {
		ed.O = []byte(o.(*String).Value)
	}
	if u := dict.Get("U"); u.Type() == TypeString {
		ed.U = []byte(u.(*String).Value)
	}

	var fileID []byte
	idArr := p.GetTrailer().GetArray("ID")
	if idArr.Len() > 0 {
		if s, ok := idArr.Get(0).(*String); ok {
			fileID = []byte(s.Value)
		}
	}

	return security.NewHandler(ed, fileID), nil
}

// Permissions returns the document's decoded permission bits. An
// unencrypted document has no restrictions.
func (d *Document) Permissions() security.Permissions {
	if d.security == nil {
		return security.Permissions{Modify: true, Annotate: true, FillForms: true}
	}
	return d.security.Permissions()
}
