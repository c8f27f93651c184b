// Package training holds the historical (context -> approved name)
// evidence the Name Engine draws on for its exact-match and
// similarity-adapted generation stages. Modeled on the teacher's
// classification rule set: load once from a corpus, build derived indices,
// and serve lookups from an immutable, read-only structure thereafter.
package training

import (
	"sort"
	"strings"

	"github.com/fieldbem/pdfrename/internal/bemgrammar"
)

// Record is one normalized training example: a field's context paired
// with the name a human approved for it.
type Record struct {
	Label         string   `json:"label"`
	NearbyText    []string `json:"nearby_text"`
	Section       string   `json:"section"`
	Kind          string   `json:"kind"`
	PagePositionX float64  `json:"page_position_x"`
	PagePositionY float64  `json:"page_position_y"`
	ApprovedName  string   `json:"approved_name"`
}

// Match is one lookup result: a candidate name plus the evidence strength
// behind it.
type Match struct {
	Name    string
	Support int
	Score   float64
}

// NamingPattern is a generalization mined from the training set, consumed
// by the Name Engine's rule-based generation stage.
type NamingPattern struct {
	TriggerTokens []string
	Block         string
	Element       string
	ModifierHint  string
	Support       int
	Confidence    float64
}

// Store is the immutable, in-memory index built from a training corpus.
type Store struct {
	byFingerprint map[string][]nameSupport
	records       []Record
	patterns      []NamingPattern
	pageExtentX   float64
	pageExtentY   float64
}

type nameSupport struct {
	name  string
	count int
}

const (
	bandCount        = 4 // quantile buckets per spatial axis
	defaultPageWidth = 612.0
	defaultPageHeight = 792.0
)

// Load consumes a sequence of normalized records, discarding any whose
// ApprovedName fails the BEM grammar, and builds the fingerprint index and
// pattern catalog. The returned Store never mutates after this call.
func Load(records []Record) *Store {
	s := &Store{byFingerprint: make(map[string][]nameSupport)}

	maxX, maxY := defaultPageWidth, defaultPageHeight
	for _, r := range records {
		if r.PagePositionX > maxX {
			maxX = r.PagePositionX
		}
		if r.PagePositionY > maxY {
			maxY = r.PagePositionY
		}
	}
	s.pageExtentX, s.pageExtentY = maxX, maxY

	for _, r := range records {
		name := strings.TrimSpace(r.ApprovedName)
		if !bemgrammar.Valid(name) {
			continue
		}
		r.ApprovedName = name
		s.records = append(s.records, r)

		fp := s.fingerprint(r.Label, r.Section, r.Kind, r.PagePositionX, r.PagePositionY)
		s.addSupport(fp, name)
	}

	s.patterns = minePatterns(s.records)

	return s
}

func (s *Store) addSupport(fingerprint, name string) {
	list := s.byFingerprint[fingerprint]
	for i := range list {
		if list[i].name == name {
			list[i].count++
			s.byFingerprint[fingerprint] = list
			return
		}
	}
	s.byFingerprint[fingerprint] = append(list, nameSupport{name: name, count: 1})
}

// fingerprint builds the lowercased (label, section, kind, horizontal_band,
// vertical_band) tuple used for exact-match lookups.
func (s *Store) fingerprint(label, section, kind string, x, y float64) string {
	hBand := band(x, s.pageExtentX)
	vBand := band(y, s.pageExtentY)
	return strings.Join([]string{
		bemgrammar.Normalize(label),
		bemgrammar.Normalize(section),
		bemgrammar.Normalize(kind),
		hBand,
		vBand,
	}, "|")
}

func band(v, extent float64) string {
	if extent <= 0 {
		return "b0"
	}
	idx := int((v / extent) * float64(bandCount))
	if idx < 0 {
		idx = 0
	}
	if idx >= bandCount {
		idx = bandCount - 1
	}
	return "b" + string(rune('0'+idx))
}

// LookupContext is the subset of FieldContext/Field attributes a lookup
// needs; kept decoupled from the acroform/fieldcontext packages so
// training has no upstream dependency on them.
type LookupContext struct {
	Label      string
	NearbyText []string
	Section    string
	Kind       string
	X, Y       float64
}

// LookupExact returns (name, support) pairs for training records whose
// fingerprint matches ctx's exactly, ordered by descending support.
func (s *Store) LookupExact(ctx LookupContext) []Match {
	fp := s.fingerprint(ctx.Label, ctx.Section, ctx.Kind, ctx.X, ctx.Y)
	list := s.byFingerprint[fp]
	if len(list) == 0 {
		return nil
	}
	out := make([]Match, len(list))
	for i, ns := range list {
		out[i] = Match{Name: ns.name, Support: ns.count}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Support > out[j].Support })
	return out
}

// Patterns returns the mined NamingPattern catalog.
func (s *Store) Patterns() []NamingPattern {
	return s.patterns
}

// Records exposes the normalized training set read-only, for similarity
// lookups.
func (s *Store) Records() []Record {
	return s.records
}
