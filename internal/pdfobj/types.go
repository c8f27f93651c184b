// Package pdfobj implements the PDF object model, lexer, parser and
// incremental writer that the rest of the pipeline builds on: C2 walks the
// Dictionary/Array graph rooted at a Document's catalog, C7 rewrites field
// names in place on that same graph, and the safety layer re-opens the
// written bytes through this package to confirm the edit round-trips.
package pdfobj

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectType is the discriminant returned by every PDFObject implementation.
type ObjectType int

const (
	TypeNull ObjectType = iota
	TypeBool
	TypeNumber
	TypeString
	TypeName
	TypeArray
	TypeDictionary
	TypeStream
	TypeIndirectRef
	TypeKeyword
)

func (t ObjectType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeName:
		return "name"
	case TypeArray:
		return "array"
	case TypeDictionary:
		return "dictionary"
	case TypeStream:
		return "stream"
	case TypeIndirectRef:
		return "indirect_ref"
	case TypeKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// PDFObject is the base interface every value in the parsed graph satisfies.
type PDFObject interface {
	Type() ObjectType
	String() string
}

// ObjectID identifies an indirect object by number and generation.
type ObjectID struct {
	Number     int64
	Generation int64
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%d %d", id.Number, id.Generation)
}

// Null is the PDF null object.
type Null struct{}

func (n *Null) Type() ObjectType { return TypeNull }
func (n *Null) String() string   { return "null" }

// Bool is a PDF boolean.
type Bool struct {
	Value bool
}

func (b *Bool) Type() ObjectType { return TypeBool }
func (b *Bool) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// Number is a PDF numeric object, holding either an int64 or a float64.
type Number struct {
	Value interface{}
}

func (n *Number) Type() ObjectType { return TypeNumber }
func (n *Number) String() string {
	switch v := n.Value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "0"
	}
}

func (n *Number) Int() int64 {
	switch v := n.Value.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func (n *Number) Float() float64 {
	switch v := n.Value.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 0.0
	}
}

// String is a PDF string object, literal or hex.
type String struct {
	Value    string
	IsHex    bool
	Encoding string
}

func (s *String) Type() ObjectType { return TypeString }
func (s *String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%s>", s.Value)
	}
	return fmt.Sprintf("(%s)", s.Value)
}

// Name is a PDF name object (a dictionary key or a /Value token).
type Name struct {
	Value string
}

func (n *Name) Type() ObjectType { return TypeName }
func (n *Name) String() string   { return "/" + n.Value }

// Array is an ordered PDF array.
type Array struct {
	Elements []PDFObject
}

func (a *Array) Type() ObjectType { return TypeArray }
func (a *Array) String() string {
	parts := make([]string, 0, len(a.Elements))
	for _, elem := range a.Elements {
		parts = append(parts, elem.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (a *Array) Len() int { return len(a.Elements) }

func (a *Array) Get(index int) PDFObject {
	if index >= 0 && index < len(a.Elements) {
		return a.Elements[index]
	}
	return &Null{}
}

func (a *Array) Add(obj PDFObject) {
	a.Elements = append(a.Elements, obj)
}

// Dictionary is a PDF dictionary, preserving key insertion order so a
// rewritten /T entry lands where the original did in the serialized bytes.
type Dictionary struct {
	Keys   []Name
	Values map[string]PDFObject
}

func NewDictionary() *Dictionary {
	return &Dictionary{
		Keys:   make([]Name, 0),
		Values: make(map[string]PDFObject),
	}
}

func (d *Dictionary) Type() ObjectType { return TypeDictionary }
func (d *Dictionary) String() string {
	parts := make([]string, 0, len(d.Keys))
	for _, key := range d.Keys {
		parts = append(parts, key.String()+" "+d.Values[key.Value].String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

func (d *Dictionary) Get(key string) PDFObject {
	if obj, exists := d.Values[key]; exists {
		return obj
	}
	return &Null{}
}

func (d *Dictionary) Set(key string, value PDFObject) {
	if _, exists := d.Values[key]; !exists {
		d.Keys = append(d.Keys, Name{Value: key})
	}
	d.Values[key] = value
}

func (d *Dictionary) Has(key string) bool {
	_, exists := d.Values[key]
	return exists
}

func (d *Dictionary) Remove(key string) {
	if _, exists := d.Values[key]; !exists {
		return
	}
	delete(d.Values, key)
	for i, k := range d.Keys {
		if k.Value == key {
			d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
			break
		}
	}
}

func (d *Dictionary) Len() int { return len(d.Keys) }

// Typed accessors return the zero value when the key is absent or holds a
// different type, so callers walking the AcroForm tree don't need a type
// switch at every inherited-attribute lookup.
func (d *Dictionary) GetString(key string) string {
	if obj := d.Get(key); obj.Type() == TypeString {
		return obj.(*String).Value
	}
	return ""
}

func (d *Dictionary) GetInt(key string) int64 {
	if obj := d.Get(key); obj.Type() == TypeNumber {
		return obj.(*Number).Int()
	}
	return 0
}

func (d *Dictionary) GetFloat(key string) float64 {
	if obj := d.Get(key); obj.Type() == TypeNumber {
		return obj.(*Number).Float()
	}
	return 0.0
}

func (d *Dictionary) GetBool(key string) bool {
	if obj := d.Get(key); obj.Type() == TypeBool {
		return obj.(*Bool).Value
	}
	return false
}

func (d *Dictionary) GetName(key string) string {
	if obj := d.Get(key); obj.Type() == TypeName {
		return obj.(*Name).Value
	}
	return ""
}

func (d *Dictionary) GetArray(key string) *Array {
	if obj := d.Get(key); obj.Type() == TypeArray {
		return obj.(*Array)
	}
	return &Array{}
}

func (d *Dictionary) GetDictionary(key string) *Dictionary {
	if obj := d.Get(key); obj.Type() == TypeDictionary {
		return obj.(*Dictionary)
	}
	return NewDictionary()
}

// Stream is a dictionary plus its raw, still-encoded byte payload. Decoding
// is the filter registry's job (see filters.go); Stream only carries bytes
// and the metadata needed to find and re-serialize them.
type Stream struct {
	Dict   *Dictionary
	Data   []byte
	Offset int64
	Length int64
}

func (s *Stream) Type() ObjectType { return TypeStream }
func (s *Stream) String() string {
	return fmt.Sprintf("%s\nstream\n[%d bytes]\nendstream", s.Dict.String(), len(s.Data))
}

// GetFilter returns the stream's /Filter names in application order,
// normalizing the single-name and array forms the spec allows.
func (s *Stream) GetFilter() []string {
	filterObj := s.Dict.Get("Filter")
	switch f := filterObj.(type) {
	case *Name:
		return []string{f.Value}
	case *Array:
		var filters []string
		for _, elem := range f.Elements {
			if name, ok := elem.(*Name); ok {
				filters = append(filters, name.Value)
			}
		}
		return filters
	default:
		return nil
	}
}

func (s *Stream) GetLength() int64 {
	if s.Length > 0 {
		return s.Length
	}
	if lengthObj := s.Dict.Get("Length"); lengthObj.Type() == TypeNumber {
		return lengthObj.(*Number).Int()
	}
	return int64(len(s.Data))
}

// IndirectRef is a PDF "N G R" reference to another object.
type IndirectRef struct {
	ObjectID ObjectID
}

func (r *IndirectRef) Type() ObjectType { return TypeIndirectRef }
func (r *IndirectRef) String() string   { return fmt.Sprintf("%s R", r.ObjectID.String()) }

// Keyword is a bare PDF operator/identifier that isn't null/true/false, kept
// around verbatim rather than rejected so unrecognized content-stream
// operators round-trip unchanged.
type Keyword struct {
	Value string
}

func (k *Keyword) Type() ObjectType { return TypeKeyword }
func (k *Keyword) String() string   { return k.Value }

// IndirectObject pairs a parsed object body with the ID it was declared
// under ("N G obj ... endobj").
type IndirectObject struct {
	ID     ObjectID
	Object PDFObject
}

func (o *IndirectObject) String() string {
	return fmt.Sprintf("%s obj\n%s\nendobj", o.ID.String(), o.Object.String())
}

// ParseError reports a lexical or structural failure at a byte offset into
// the source document.
type ParseError struct {
	Message  string
	Position int64
}

func (e *ParseError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("PDF parse error at position %d: %s", e.Position, e.Message)
	}
	return fmt.Sprintf("PDF parse error: %s", e.Message)
}

func NewParseError(msg string, pos int64) *ParseError {
	return &ParseError{Message: msg, Position: pos}
}

// Structural keywords and the header's version marker. Only 1.4 is used as
// a default today; the parser accepts whatever version string a document
// declares and passes it through unmodified.
const (
	PDFHeaderPattern = "%PDF-"
	PDFVersion14     = "1.4"

	ObjKeyword       = "obj"
	EndObjKeyword    = "endobj"
	StreamKeyword    = "stream"
	EndStreamKeyword = "endstream"
	XRefKeyword      = "xref"
	TrailerKeyword   = "trailer"
	StartXRefKeyword = "startxref"
)
