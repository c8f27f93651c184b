package pdfobj

import (
	"bytes"
	"compress/flate"
	"compress/lzw"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// filterDecoder decodes one stage of a stream's /Filter chain.
type filterDecoder interface {
	decode(data []byte, params *Dictionary) ([]byte, error)
}

// filterDecoders holds every filter the rename pipeline can reverse. Image
// codecs (CCITTFax, JBIG2, DCT, JPX) are deliberately absent: field
// dictionaries, AcroForm structures, and JS actions are never themselves
// image data, and an unsupported filter simply leaves a stream's raw bytes
// alone rather than failing the whole document (see DecodeStream).
var filterDecoders = map[string]filterDecoder{
	"FlateDecode":     flateDecoder{},
	"ASCIIHexDecode":  asciiHexDecoder{},
	"ASCII85Decode":   ascii85Decoder{},
	"LZWDecode":       lzwDecoder{},
	"RunLengthDecode": runLengthDecoder{},
}

// DecodeStream runs stream's data through every filter named in its /Filter
// entry, in order. A stream naming a filter this package doesn't implement
// is returned with its data undecoded rather than erroring, since most
// callers (field and metadata inspection) can tolerate an opaque payload
// for a filter they'll never need to read through.
func DecodeStream(stream *Stream) ([]byte, error) {
	data := stream.Data
	filters := stream.GetFilter()
	if len(filters) == 0 {
		return data, nil
	}

	for i, name := range filters {
		decoder, ok := filterDecoders[name]
		if !ok {
			return stream.Data, nil
		}
		decoded, err := decoder.decode(data, decodeParamsAt(stream.Dict, i))
		if err != nil {
			return nil, fmt.Errorf("decode with %s: %w", name, err)
		}
		data = decoded
	}
	return data, nil
}

// decodeParamsAt returns the DecodeParms dictionary governing filter stage
// i: either the sole dictionary for a single filter, or the i-th entry of
// a parallel array for a filter chain.
func decodeParamsAt(dict *Dictionary, i int) *Dictionary {
	parms := dict.Get("DecodeParms")
	switch p := parms.(type) {
	case *Dictionary:
		if i == 0 {
			return p
		}
	case *Array:
		if i < p.Len() {
			if d, ok := p.Get(i).(*Dictionary); ok {
				return d
			}
		}
	}
	return nil
}

type flateDecoder struct{}

func (flateDecoder) decode(data []byte, params *Dictionary) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	reader := flate.NewReader(bytes.NewReader(data))
	defer reader.Close()

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if params != nil && params.GetInt("Predictor") > 1 {
		return applyPredictor(decoded, params)
	}
	return decoded, nil
}

// applyPredictor reverses the PNG or TIFF row filter a Flate-compressed
// stream's /DecodeParms may have applied on top of the deflate stage
// itself (ISO 32000-1 table 8, /Predictor).
func applyPredictor(data []byte, params *Dictionary) ([]byte, error) {
	predictor := params.GetInt("Predictor")
	columns := intOrDefault(params.GetInt("Columns"), 1)
	bitsPerComponent := intOrDefault(params.GetInt("BitsPerComponent"), 8)
	colors := intOrDefault(params.GetInt("Colors"), 1)

	switch predictor {
	case 2:
		return applyTIFFPredictor(data, columns, bitsPerComponent, colors)
	case 10, 11, 12, 13, 14, 15:
		return applyPNGPredictor(data, columns, bitsPerComponent, colors)
	default:
		return data, nil
	}
}

func intOrDefault(v int64, def int) int {
	if v == 0 {
		return def
	}
	return int(v)
}

func applyTIFFPredictor(data []byte, columns, bitsPerComponent, colors int) ([]byte, error) {
	if bitsPerComponent != 8 {
		return nil, fmt.Errorf("TIFF predictor only supports 8 bits per component, got %d", bitsPerComponent)
	}
	rowSize := columns * colors
	if rowSize == 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of row size %d", len(data), rowSize)
	}

	result := make([]byte, len(data))
	copy(result, data)
	for row := 0; row < len(data)/rowSize; row++ {
		rowStart := row * rowSize
		for col := 1; col < columns; col++ {
			for c := 0; c < colors; c++ {
				idx := rowStart + col*colors + c
				result[idx] = byte(int(result[idx]) + int(result[idx-colors]))
			}
		}
	}
	return result, nil
}

func applyPNGPredictor(data []byte, columns, bitsPerComponent, colors int) ([]byte, error) {
	bytesPerPixel := (bitsPerComponent*colors + 7) / 8
	rowSize := (columns*bitsPerComponent*colors + 7) / 8
	totalRowSize := rowSize + 1
	if totalRowSize == 0 || len(data)%totalRowSize != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of row size %d", len(data), totalRowSize)
	}

	numRows := len(data) / totalRowSize
	result := make([]byte, numRows*rowSize)
	for row := 0; row < numRows; row++ {
		srcStart := row * totalRowSize
		dstStart := row * rowSize
		tag := data[srcStart]
		rowData := data[srcStart+1 : srcStart+totalRowSize]
		copy(result[dstStart:], rowData)

		for i := 0; i < rowSize; i++ {
			var left, up, upLeft byte
			if i >= bytesPerPixel {
				left = result[dstStart+i-bytesPerPixel]
			}
			if row > 0 {
				up = result[(row-1)*rowSize+i]
				if i >= bytesPerPixel {
					upLeft = result[(row-1)*rowSize+i-bytesPerPixel]
				}
			}
			switch tag {
			case 0: // None
			case 1: // Sub
				result[dstStart+i] += left
			case 2: // Up
				result[dstStart+i] += up
			case 3: // Average
				result[dstStart+i] += byte((int(left) + int(up)) / 2)
			case 4: // Paeth
				result[dstStart+i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG predictor tag: %d", tag)
			}
		}
	}
	return result, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

type asciiHexDecoder struct{}

func (asciiHexDecoder) decode(data []byte, _ *Dictionary) ([]byte, error) {
	var hexStr strings.Builder
	for _, b := range data {
		if b == '>' {
			break
		}
		if (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f') {
			hexStr.WriteByte(b)
		}
	}
	hexData := hexStr.String()
	if len(hexData)%2 == 1 {
		hexData += "0"
	}
	return hex.DecodeString(hexData)
}

type ascii85Decoder struct{}

func (ascii85Decoder) decode(data []byte, _ *Dictionary) ([]byte, error) {
	start, end := ascii85Bounds(data)
	if start >= end {
		return []byte{}, nil
	}

	var clean []byte
	for i := start; i < end; i++ {
		b := data[i]
		if (b >= '!' && b <= 'u') || b == 'z' {
			clean = append(clean, b)
		}
	}

	var result []byte
	for i := 0; i < len(clean); {
		if clean[i] == 'z' {
			result = append(result, 0, 0, 0, 0)
			i++
			continue
		}

		var group [5]byte
		groupSize := 0
		for groupSize < 5 && i < len(clean) && clean[i] != 'z' {
			group[groupSize] = clean[i] - '!'
			groupSize++
			i++
		}
		if groupSize == 0 {
			break
		}
		for j := groupSize; j < 5; j++ {
			group[j] = 84 // 'u' - '!'
		}

		value := uint32(group[0])*85*85*85*85 +
			uint32(group[1])*85*85*85 +
			uint32(group[2])*85*85 +
			uint32(group[3])*85 +
			uint32(group[4])
		decoded := []byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}

		outputBytes := groupSize - 1
		if outputBytes > 4 {
			outputBytes = 4
		}
		result = append(result, decoded[:outputBytes]...)
	}
	return result, nil
}

func ascii85Bounds(data []byte) (start, end int) {
	end = len(data)
	for i := 0; i < len(data)-1; i++ {
		if data[i] == '<' && data[i+1] == '~' {
			start = i + 2
			break
		}
	}
	for i := start; i < len(data)-1; i++ {
		if data[i] == '~' && data[i+1] == '>' {
			end = i
			break
		}
	}
	return start, end
}

type lzwDecoder struct{}

func (lzwDecoder) decode(data []byte, _ *Dictionary) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	reader := lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	defer reader.Close()
	return io.ReadAll(reader)
}

type runLengthDecoder struct{}

func (runLengthDecoder) decode(data []byte, _ *Dictionary) ([]byte, error) {
	var result []byte
	for i := 0; i < len(data); {
		length := int(data[i])
		i++
		switch {
		case length == 128:
			return result, nil
		case length < 128:
			count := length + 1
			if i+count > len(data) {
				return nil, fmt.Errorf("run-length literal run needs %d bytes, only %d remain", count, len(data)-i)
			}
			result = append(result, data[i:i+count]...)
			i += count
		default:
			count := 257 - length
			if i >= len(data) {
				return nil, fmt.Errorf("run-length replicate run has no value byte")
			}
			value := data[i]
			i++
			for j := 0; j < count; j++ {
				result = append(result, value)
			}
		}
	}
	return result, nil
}
