package fieldcontext

import (
	"sort"
	"strconv"
	"strings"
)

const (
	proximityInflate = 100.0
	visualGridSize   = 100.0
	horizontalSlack  = 20.0
	nearbyTextCap    = 10
)

var labelIndicators = []string{"name", "address", "phone", "email", "date", "ssn", "amount", "signature"}

// FieldContext is the surrounding-text evidence C3 attaches to a Field,
// consumed by C5's preservation analysis and rule-based generation stage.
type FieldContext struct {
	Label         string
	SectionHeader string
	NearbyText    []string
	TextAbove     string
	TextBelow     string
	TextLeft      string
	TextRight     string
	VisualGroup   string
	Confidence    float64
}

type positioned struct {
	run  TextRun
	cx   float64
	cy   float64
	w    float64
	h    float64
	dist float64
}

// Extract computes a FieldContext for a field's rectangle on the given
// page, using cache's memoized per-page text runs.
func Extract(cache *PageTextCache, page int, rect [4]float64) (*FieldContext, error) {
	runs, err := cache.Runs(page)
	if err != nil {
		return nil, err
	}
	return ExtractFromRuns(runs, rect), nil
}

// ExtractFromRuns is the geometry-only core of Extract, split out so it can
// be exercised directly against a synthetic run list without decoding a PDF.
func ExtractFromRuns(runs []TextRun, rect [4]float64) *FieldContext {
	rx1, ry1, rx2, ry2 := rect[0], rect[1], rect[2], rect[3]
	cx, cy := (rx1+rx2)/2, (ry1+ry2)/2

	ix1, iy1 := rx1-proximityInflate, ry1-proximityInflate
	ix2, iy2 := rx2+proximityInflate, ry2+proximityInflate

	var inProximity []positioned
	for _, run := range runs {
		text := strings.TrimSpace(run.Text)
		if text == "" {
			continue
		}
		p := positionOf(run)
		if p.cx < ix1 || p.cx > ix2 || p.cy < iy1 || p.cy > iy2 {
			continue
		}
		p.dist = distance(p.cx, p.cy, cx, cy)
		inProximity = append(inProximity, p)
	}
	sort.Slice(inProximity, func(i, j int) bool { return inProximity[i].dist < inProximity[j].dist })

	nearby := dedupeCapped(inProximity, nearbyTextCap)

	ctx := &FieldContext{
		NearbyText:  nearby,
		TextAbove:   nearestDirectional(inProximity, rx1, rx2, ry1, ry2, directionAbove),
		TextBelow:   nearestDirectional(inProximity, rx1, rx2, ry1, ry2, directionBelow),
		TextLeft:    nearestDirectional(inProximity, rx1, rx2, ry1, ry2, directionLeft),
		TextRight:   nearestDirectional(inProximity, rx1, rx2, ry1, ry2, directionRight),
		VisualGroup: visualGroupKey(cx, cy),
	}
	ctx.Label = deriveLabel(nearby, ctx.TextLeft)
	ctx.SectionHeader = findSectionHeader(runs, ry2)
	ctx.Confidence = computeConfidence(ctx)

	return ctx
}

func positionOf(run TextRun) positioned {
	w := float64(len(strings.TrimSpace(run.Text))) * run.FontSize * 0.5
	h := run.FontSize
	if h == 0 {
		h = 10
	}
	return positioned{run: run, cx: run.X + w/2, cy: run.Y + h/2, w: w, h: h}
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx, dy := x1-x2, y1-y2
	return dx*dx + dy*dy // squared distance is sufficient for ordering
}

func dedupeCapped(runs []positioned, cap int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range runs {
		text := strings.TrimSpace(p.run.Text)
		if seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
		if len(out) >= cap {
			break
		}
	}
	return out
}

type direction int

const (
	directionAbove direction = iota
	directionBelow
	directionLeft
	directionRight
)

func nearestDirectional(runs []positioned, rx1, rx2, ry1, ry2 float64, dir direction) string {
	var best *positioned
	var bestDist float64
	for i := range runs {
		p := &runs[i]
		switch dir {
		case directionAbove:
			if p.cy <= ry2 || !horizontallyOverlaps(p.cx, rx1, rx2) {
				continue
			}
		case directionBelow:
			if p.cy >= ry1 || !horizontallyOverlaps(p.cx, rx1, rx2) {
				continue
			}
		case directionLeft:
			if p.cx >= rx1 || !verticallyOverlaps(p.cy, ry1, ry2) {
				continue
			}
		case directionRight:
			if p.cx <= rx2 || !verticallyOverlaps(p.cy, ry1, ry2) {
				continue
			}
		}
		if best == nil || p.dist < bestDist {
			best = p
			bestDist = p.dist
		}
	}
	if best == nil {
		return ""
	}
	return strings.TrimSpace(best.run.Text)
}

func horizontallyOverlaps(x, rx1, rx2 float64) bool {
	return x >= rx1-horizontalSlack && x <= rx2+horizontalSlack
}

func verticallyOverlaps(y, ry1, ry2 float64) bool {
	return y >= ry1-horizontalSlack && y <= ry2+horizontalSlack
}

func deriveLabel(nearby []string, textLeft string) string {
	for _, t := range nearby {
		if strings.HasSuffix(t, ":") {
			return t
		}
	}
	for _, t := range nearby {
		lower := strings.ToLower(t)
		for _, ind := range labelIndicators {
			if strings.Contains(lower, ind) {
				return t
			}
		}
	}
	if textLeft != "" {
		return textLeft
	}
	if len(nearby) > 0 {
		return nearby[0]
	}
	return ""
}

// findSectionHeader scans all of the page's runs for the nearest one above
// fieldTop (the field's rectangle's upper edge) that reads as a heading:
// all-caps, or ending in a word that names a section.
func findSectionHeader(runs []TextRun, fieldTop float64) string {
	var best string
	haveBest := false
	var bestDist float64
	for i := range runs {
		run := &runs[i]
		text := strings.TrimSpace(run.Text)
		if text == "" {
			continue
		}
		if run.Y <= fieldTop {
			continue
		}
		if !isHeading(text) {
			continue
		}
		dist := run.Y - fieldTop
		if !haveBest || dist < bestDist {
			best = text
			bestDist = dist
			haveBest = true
		}
	}
	return best
}

func isHeading(text string) bool {
	if strings.HasSuffix(text, "Information") || strings.HasSuffix(text, "Section") {
		return true
	}
	hasLetter := false
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func visualGroupKey(cx, cy float64) string {
	gx := int(cx / visualGridSize)
	gy := int(cy / visualGridSize)
	return strconv.Itoa(gx) + ":" + strconv.Itoa(gy)
}

func computeConfidence(ctx *FieldContext) float64 {
	score := 0.3
	if ctx.Label != "" && (strings.HasSuffix(ctx.Label, ":") || matchesIndicator(ctx.Label)) {
		score += 0.3
	}
	if len(ctx.NearbyText) >= 3 {
		score += 0.2
	}
	if ctx.SectionHeader != "" {
		score += 0.1
	}
	if ctx.TextAbove != "" || ctx.TextBelow != "" || ctx.TextLeft != "" || ctx.TextRight != "" {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func matchesIndicator(s string) bool {
	lower := strings.ToLower(s)
	for _, ind := range labelIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}
