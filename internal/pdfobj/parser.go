package pdfobj

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fieldbem/pdfrename/internal/pdfobj/xref"
)

// Parser walks a PDF document's header, xref chain, trailer, and catalog,
// then resolves indirect objects on demand as the AcroForm walk (C2) and
// the rename pass (C7) touch them.
type Parser struct {
	reader      io.ReadSeeker
	lexer       *Lexer
	version     string
	xrefParser  *xref.Parser
	entries     map[ObjectID]*xref.Entry
	trailer     *Dictionary
	catalog     *Dictionary
	objectCache map[ObjectID]PDFObject
	fileSize    int64
	startXRef   int64
}

// NewParser builds a Parser reading from reader. Call Parse before using
// any other method.
func NewParser(reader io.ReadSeeker) *Parser {
	return &Parser{
		reader:      reader,
		objectCache: make(map[ObjectID]PDFObject),
		entries:     make(map[ObjectID]*xref.Entry),
		xrefParser:  xref.NewParser(reader),
	}
}

// Parse reads the header, follows the xref /Prev chain, parses the
// trailer, and resolves the document catalog.
func (p *Parser) Parse() error {
	size, err := p.reader.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to get file size: %w", err)
	}
	p.fileSize = size

	if _, err := p.reader.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	if err := p.parseHeader(); err != nil {
		return fmt.Errorf("header parse failed: %w", err)
	}
	if err := p.parseXRefChain(); err != nil {
		return fmt.Errorf("xref parse failed: %w", err)
	}
	if err := p.parseTrailer(); err != nil {
		return fmt.Errorf("trailer parse failed: %w", err)
	}
	if err := p.loadCatalog(); err != nil {
		return fmt.Errorf("catalog load failed: %w", err)
	}
	return nil
}

func (p *Parser) parseHeader() error {
	scanner := bufio.NewScanner(p.reader)
	if !scanner.Scan() {
		return NewParseError("failed to read PDF header", 0)
	}

	headerLine := scanner.Text()
	if !strings.HasPrefix(headerLine, PDFHeaderPattern) {
		return NewParseError("invalid PDF header", 0)
	}

	p.version = strings.TrimPrefix(headerLine, PDFHeaderPattern)
	if p.version == "" {
		p.version = PDFVersion14
	}
	return nil
}

// parseXRefChain locates startxref, follows the table's /Prev chain via
// the xref subpackage, and flattens the result into entries keyed by
// ObjectID so resolveIndirectObject has a single lookup to do.
func (p *Parser) parseXRefChain() error {
	startXRefOffset, err := p.findStartXRef()
	if err != nil {
		return fmt.Errorf("failed to find startxref: %w", err)
	}
	p.startXRef = startXRefOffset

	if err := p.xrefParser.Parse(startXRefOffset); err != nil {
		return fmt.Errorf("failed to parse xref chain: %w", err)
	}
	if err := p.xrefParser.ValidateConsistency(); err != nil {
		fmt.Printf("Warning: xref consistency check failed: %v\n", err)
	}

	for _, objNum := range p.xrefParser.ObjectNumbers() {
		entry := p.xrefParser.LatestEntry(objNum)
		if entry == nil {
			continue
		}
		p.entries[ObjectID{Number: int64(objNum), Generation: int64(entry.Generation)}] = entry
	}
	return nil
}

// findStartXRef finds the startxref offset by reading from the end of the file
func (p *Parser) findStartXRef() (int64, error) {
	readSize := int64(1024)
	if readSize > p.fileSize {
		readSize = p.fileSize
	}

	startPos := p.fileSize - readSize
	if _, err := p.reader.Seek(startPos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek to end of file: %w", err)
	}

	data := make([]byte, readSize)
	if _, err := io.ReadFull(p.reader, data); err != nil {
		return 0, fmt.Errorf("failed to read end of file: %w", err)
	}

	content := string(data)
	startXRefIndex := strings.LastIndex(content, StartXRefKeyword)
	if startXRefIndex == -1 {
		return 0, NewParseError("startxref keyword not found", p.fileSize)
	}

	afterKeyword := content[startXRefIndex+len(StartXRefKeyword):]
	lines := strings.Split(afterKeyword, "\n")
	if len(lines) < 2 {
		return 0, NewParseError("missing offset after startxref", p.fileSize)
	}

	offsetStr := strings.TrimSpace(lines[1])
	offset, err := strconv.ParseInt(offsetStr, 10, 64)
	if err != nil {
		return 0, NewParseError("invalid startxref offset", p.fileSize)
	}
	return offset, nil
}

// parseTrailer parses the trailer dictionary. The "trailer" keyword itself
// was already consumed while the xref subpackage walked the /Prev chain;
// this reads the dictionary body through the real lexer/parser rather than
// the line-oriented scan xref.Parser uses internally, since the catalog
// and Encrypt references it holds need full object-model fidelity.
func (p *Parser) parseTrailer() error {
	trailerObj, err := p.parseObject()
	if err != nil {
		return fmt.Errorf("failed to parse trailer dictionary: %w", err)
	}
	if trailerObj.Type() != TypeDictionary {
		return NewParseError("trailer must be a dictionary", p.lexer.GetPosition())
	}
	p.trailer = trailerObj.(*Dictionary)
	return nil
}

func (p *Parser) loadCatalog() error {
	if p.trailer == nil {
		return NewParseError("trailer not parsed", 0)
	}

	rootObj := p.trailer.Get("Root")
	if rootObj.Type() != TypeIndirectRef {
		return NewParseError("trailer Root must be an indirect reference", 0)
	}

	catalogObj, err := p.resolveIndirectObject(rootObj)
	if err != nil {
		return fmt.Errorf("failed to resolve catalog: %w", err)
	}
	if catalogObj.Type() != TypeDictionary {
		return NewParseError("catalog must be a dictionary", 0)
	}

	p.catalog = catalogObj.(*Dictionary)
	if p.catalog.GetName("Type") != "Catalog" {
		return NewParseError("invalid catalog type", 0)
	}
	return nil
}

func (p *Parser) resolveIndirectObject(obj PDFObject) (PDFObject, error) {
	ref, ok := obj.(*IndirectRef)
	if !ok {
		return obj, nil
	}

	if cached, exists := p.objectCache[ref.ObjectID]; exists {
		return cached, nil
	}

	entry := p.entries[ref.ObjectID]
	if entry == nil {
		return nil, NewParseError(fmt.Sprintf("object %s not found in xref table", ref.ObjectID), 0)
	}
	if entry.Type != xref.EntryInUse {
		return nil, NewParseError(fmt.Sprintf("object %s is not in use", ref.ObjectID), 0)
	}

	if _, err := p.reader.Seek(entry.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to object %s: %w", ref.ObjectID, err)
	}
	p.lexer = NewLexer(p.reader)

	indirectObj, err := p.parseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse indirect object %s: %w", ref.ObjectID, err)
	}

	p.objectCache[ref.ObjectID] = indirectObj.Object
	return indirectObj.Object, nil
}

func (p *Parser) parseIndirectObject() (*IndirectObject, error) {
	numToken, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read object number: %w", err)
	}
	if numToken.Type != TokenNumber {
		return nil, NewParseError("expected object number", numToken.Pos)
	}
	objNum, err := strconv.ParseInt(numToken.Value, 10, 64)
	if err != nil {
		return nil, NewParseError("invalid object number", numToken.Pos)
	}

	genToken, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read generation number: %w", err)
	}
	if genToken.Type != TokenNumber {
		return nil, NewParseError("expected generation number", genToken.Pos)
	}
	generation, err := strconv.ParseInt(genToken.Value, 10, 64)
	if err != nil {
		return nil, NewParseError("invalid generation number", genToken.Pos)
	}

	objToken, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read obj keyword: %w", err)
	}
	if objToken.Type != TokenObjStart {
		return nil, NewParseError("expected 'obj' keyword", objToken.Pos)
	}

	obj, err := p.parseObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object content: %w", err)
	}

	endObjToken, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read endobj keyword: %w", err)
	}
	if endObjToken.Type != TokenObjEnd {
		return nil, NewParseError("expected 'endobj' keyword", endObjToken.Pos)
	}

	return &IndirectObject{
		ID:     ObjectID{Number: objNum, Generation: generation},
		Object: obj,
	}, nil
}

// parseObject reads one token from the lexer and dispatches on its type.
func (p *Parser) parseObject() (PDFObject, error) {
	token, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if token.Type == TokenNumber {
		return p.parseNumberOrRef(token)
	}
	return p.objectFromToken(token)
}

// objectFromToken converts an already-read token into a PDF object. Shared
// between parseObject (fresh reads) and parseArray (which must classify a
// token it peeked ahead of time, so it can't go through parseNumberOrRef's
// own lookahead).
func (p *Parser) objectFromToken(token Token) (PDFObject, error) {
	switch token.Type {
	case TokenKeyword:
		switch token.Value {
		case "null":
			return &Null{}, nil
		case "true":
			return &Bool{Value: true}, nil
		case "false":
			return &Bool{Value: false}, nil
		default:
			return &Keyword{Value: token.Value}, nil
		}
	case TokenNumber:
		return p.parseNumber(token)
	case TokenString:
		return &String{Value: token.Value, IsHex: false}, nil
	case TokenHexString:
		return &String{Value: token.Value, IsHex: true}, nil
	case TokenName:
		return &Name{Value: token.Value}, nil
	case TokenArrayStart:
		return p.parseArray()
	case TokenDictStart:
		return p.parseDictionary()
	default:
		return nil, NewParseError(fmt.Sprintf("unexpected token type: %s", token.Type), token.Pos)
	}
}

func (p *Parser) parseNumber(token Token) (PDFObject, error) {
	if strings.Contains(token.Value, ".") {
		val, err := strconv.ParseFloat(token.Value, 64)
		if err != nil {
			return nil, NewParseError("invalid real number", token.Pos)
		}
		return &Number{Value: val}, nil
	}
	val, err := strconv.ParseInt(token.Value, 10, 64)
	if err != nil {
		return nil, NewParseError("invalid integer", token.Pos)
	}
	return &Number{Value: val}, nil
}

func (p *Parser) parseArray() (PDFObject, error) {
	array := &Array{Elements: make([]PDFObject, 0)}
	for {
		token, err := p.lexer.NextToken()
		if err != nil {
			return nil, fmt.Errorf("failed to read array token: %w", err)
		}
		if token.Type == TokenArrayEnd {
			break
		}
		obj, err := p.objectFromToken(token)
		if err != nil {
			return nil, fmt.Errorf("failed to parse array element: %w", err)
		}
		array.Add(obj)
	}
	return array, nil
}

func (p *Parser) parseDictionary() (PDFObject, error) {
	dict := NewDictionary()
	for {
		token, err := p.lexer.NextToken()
		if err != nil {
			return nil, fmt.Errorf("failed to read dictionary token: %w", err)
		}
		if token.Type == TokenDictEnd {
			break
		}
		if token.Type != TokenName {
			return nil, NewParseError("expected name for dictionary key", token.Pos)
		}
		key := token.Value

		value, err := p.parseObject()
		if err != nil {
			return nil, fmt.Errorf("failed to parse dictionary value for key %s: %w", key, err)
		}
		dict.Set(key, value)
	}
	return p.checkForStream(dict)
}

// parseNumberOrRef disambiguates "N" from "N G R" by looking two tokens
// ahead; on anything else it rewinds the reader and re-anchors the lexer
// at the saved position rather than trying to push tokens back.
func (p *Parser) parseNumberOrRef(numToken Token) (PDFObject, error) {
	num, err := p.parseNumber(numToken)
	if err != nil {
		return nil, err
	}

	pos, _ := p.reader.Seek(0, io.SeekCurrent)

	token2, err := p.lexer.NextToken()
	if err != nil {
		return num, nil
	}
	if token2.Type == TokenNumber {
		token3, err := p.lexer.NextToken()
		if err == nil && token3.Type == TokenIndirectRef {
			objNum := num.(*Number).Int()
			generation, _ := strconv.ParseInt(token2.Value, 10, 64)
			return &IndirectRef{ObjectID: ObjectID{Number: objNum, Generation: generation}}, nil
		}
	}

	p.reader.Seek(pos, io.SeekStart)
	p.lexer = NewLexer(p.reader)
	return num, nil
}

// checkForStream looks ahead for a "stream" keyword after a dictionary and,
// if present, reads exactly dict's /Length bytes as the stream's raw body.
func (p *Parser) checkForStream(dict *Dictionary) (PDFObject, error) {
	currentPos, _ := p.reader.Seek(0, io.SeekCurrent)

	token, err := p.lexer.NextToken()
	if err != nil || token.Type != TokenStreamStart {
		p.reader.Seek(currentPos, io.SeekStart)
		p.lexer = NewLexer(p.reader)
		return dict, nil
	}

	length := dict.GetInt("Length")
	if length <= 0 {
		return nil, NewParseError("stream missing or invalid Length", token.Pos)
	}

	bufReader := bufio.NewReader(p.reader)
	for {
		ch, err := bufReader.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("failed to read after stream: %w", err)
		}
		if ch == '\n' {
			break
		}
		if ch == '\r' {
			if next, err := bufReader.ReadByte(); err == nil && next != '\n' {
				bufReader.UnreadByte()
			}
			break
		}
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(bufReader, data); err != nil {
		return nil, fmt.Errorf("failed to read stream data: %w", err)
	}

	p.lexer = NewLexer(bufReader)
	endToken, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read endstream: %w", err)
	}
	if endToken.Type != TokenStreamEnd {
		return nil, NewParseError("expected 'endstream'", endToken.Pos)
	}

	return &Stream{Dict: dict, Data: data, Length: length}, nil
}

func (p *Parser) GetVersion() string                      { return p.version }
func (p *Parser) GetCatalog() *Dictionary                 { return p.catalog }
func (p *Parser) GetTrailer() *Dictionary                 { return p.trailer }
func (p *Parser) GetObjectCache() map[ObjectID]PDFObject  { return p.objectCache }

// ObjectIDs returns every object identifier this parser knows about, from
// both the resolved-object cache and the raw xref entry table, so a caller
// enumerating a Document's graph sees objects it hasn't had reason to
// resolve yet.
func (p *Parser) ObjectIDs() []ObjectID {
	ids := make([]ObjectID, 0, len(p.objectCache)+len(p.entries))
	for id := range p.objectCache {
		ids = append(ids, id)
	}
	for id := range p.entries {
		ids = append(ids, id)
	}
	return ids
}

// GetStartXRefOffset returns the byte offset of the startxref this parser
// found when it opened the document; the incremental writer chains its new
// trailer's /Prev to this value.
func (p *Parser) GetStartXRefOffset() int64 {
	return p.startXRef
}

// GetFileSize returns the size in bytes of the document as originally read.
func (p *Parser) GetFileSize() int64 {
	return p.fileSize
}

// ResolveIndirectObject resolves an indirect object reference.
func (p *Parser) ResolveIndirectObject(obj PDFObject) (PDFObject, error) {
	return p.resolveIndirectObject(obj)
}
