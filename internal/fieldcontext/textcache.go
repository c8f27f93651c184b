// Package fieldcontext recovers the nearby text, label, section header, and
// visual grouping that surround each extracted Field, so the Name Engine
// has more to work with than the field's own (often meaningless) existing
// identifier.
package fieldcontext

import (
	"os"
	"sync"

	"github.com/ledongthuc/pdf"
)

// TextRun is one word-level span of page text with its baseline position,
// in PDF user-space coordinates (origin bottom-left, Y increasing upward).
type TextRun struct {
	Text     string
	X        float64
	Y        float64
	FontSize float64
}

// PageTextCache extracts and memoizes per-page text runs from a PDF opened
// via github.com/ledongthuc/pdf, the same library the teacher wraps for
// page text. Context extraction visits every field on a page, so without
// memoization the same page would be re-decoded once per field on it.
type PageTextCache struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	reader   *pdf.Reader
	capacity int
	items    map[int][]TextRun
	order    []int // page numbers, oldest-evicted-first
}

// NewPageTextCache opens path with ledongthuc/pdf and prepares an
// LRU-bounded cache of decoded page text, capacity pages at a time.
func NewPageTextCache(path string, capacity int) (*PageTextCache, error) {
	if capacity <= 0 {
		capacity = 32
	}
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &PageTextCache{
		path:     path,
		file:     f,
		reader:   reader,
		capacity: capacity,
		items:    make(map[int][]TextRun),
	}, nil
}

// Close releases the underlying file handle.
func (c *PageTextCache) Close() error {
	return c.file.Close()
}

// Runs returns the text runs for a 1-based page number, decoding and
// caching them on first access.
func (c *PageTextCache) Runs(page int) ([]TextRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if runs, ok := c.items[page]; ok {
		c.touch(page)
		return runs, nil
	}

	if page < 1 || page > c.reader.NumPage() {
		return nil, nil
	}

	p := c.reader.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, err
	}

	var runs []TextRun
	for _, row := range rows {
		for _, word := range row.Content {
			runs = append(runs, TextRun{
				Text:     word.S,
				X:        word.X,
				Y:        word.Y,
				FontSize: word.FontSize,
			})
		}
	}

	c.put(page, runs)
	return runs, nil
}

func (c *PageTextCache) touch(page int) {
	for i, p := range c.order {
		if p == page {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, page)
}

func (c *PageTextCache) put(page int, runs []TextRun) {
	c.items[page] = runs
	c.touch(page)
	if len(c.order) > c.capacity {
		evict := c.order[0]
		c.order = c.order[1:]
		delete(c.items, evict)
	}
}
