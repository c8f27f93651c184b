// Package bemgrammar holds the normative BEM name grammar shared by the
// Training Store (which discards records that fail it) and the Name
// Engine (which enforces it as the last generation stage), so the two
// components can never drift on what counts as a valid name.
package bemgrammar

import (
	"regexp"
	"strings"
)

const MaxLength = 50

// ReservedBlocks names blocks that may never lead a generated or accepted
// name, even if they otherwise satisfy the segment grammar.
var ReservedBlocks = map[string]bool{
	"group":  true,
	"custom": true,
	"temp":   true,
	"field":  true,
	"form":   true,
	"pdf":    true,
}

var segmentPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

var fullPattern = regexp.MustCompile(
	`^([a-z][a-z0-9]*(?:-[a-z0-9]+)*)` + // block
		`(?:_([a-z][a-z0-9]*(?:-[a-z0-9]+)*))?` + // optional element
		`(?:__([a-z][a-z0-9]*(?:-[a-z0-9]+)*))?$`, // optional modifier
)

// Parse decomposes name into block/element/modifier per the grammar
// block ('_' element)? ('__' modifier)?, reporting ok=false if name does
// not match the shape at all (independent of length/reserved-word checks).
func Parse(name string) (block, element, modifier string, ok bool) {
	m := fullPattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// Valid reports whether name satisfies the full BEM grammar: shape, total
// length, and the reserved-leading-block rule.
func Valid(name string) bool {
	if !ValidShape(name) {
		return false
	}
	block, _, _, _ := Parse(name)
	return !ReservedBlocks[block]
}

// ValidShape reports whether name satisfies the grammar's shape and
// length rules, ignoring the reserved-leading-block rule. The generation
// pipeline's terminal fallback stage deliberately uses the reserved
// "form" block as a guaranteed-available escape name, so it validates
// against this relaxed form rather than Valid.
func ValidShape(name string) bool {
	if len(name) == 0 || len(name) > MaxLength {
		return false
	}
	_, _, _, ok := Parse(name)
	return ok
}

// ValidSegment reports whether s alone satisfies a single segment's
// grammar ([a-z][a-z0-9]*(-[a-z0-9]+)*), useful when building a name up
// from independently-generated block/element/modifier candidates.
func ValidSegment(s string) bool {
	return segmentPattern.MatchString(s)
}

// Normalize lowercases and trims s; callers still need to run the result
// through ValidSegment/Valid before treating it as usable.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
