package training

import "strings"

const (
	weightText           = 0.35
	weightSpatial        = 0.20
	weightKind           = 0.15
	weightSectionHeader  = 0.20
	weightVisualGroup    = 0.10
	similarityMinScore   = 0.5
	similarityMaxResults = 5
)

// LookupSimilar scores every training record against ctx using the
// weighted multi-factor formula (text 0.35, spatial 0.20, kind 0.15,
// section-header 0.20, visual-group 0.10) and returns the
// similarityMaxResults highest-scoring matches at or above
// similarityMinScore, ordered by descending score.
func (s *Store) LookupSimilar(ctx LookupContext) []Match {
	type scored struct {
		name  string
		score float64
	}
	var candidates []scored

	ctxHBand := band(ctx.X, s.pageExtentX)
	ctxVBand := band(ctx.Y, s.pageExtentY)
	ctxTokens := tokenSet(ctx.Label, ctx.NearbyText)

	for _, r := range s.records {
		score := 0.0
		score += weightText * textSimilarity(ctxTokens, tokenSet(r.Label, r.NearbyText))
		if band(r.PagePositionX, s.pageExtentX) == ctxHBand && band(r.PagePositionY, s.pageExtentY) == ctxVBand {
			score += weightSpatial
		}
		if strings.EqualFold(r.Kind, ctx.Kind) {
			score += weightKind
		}
		if r.Section != "" && strings.EqualFold(r.Section, ctx.Section) {
			score += weightSectionHeader
		}
		if sameVisualGroup(r, ctx, s.pageExtentX, s.pageExtentY) {
			score += weightVisualGroup
		}
		if score < similarityMinScore {
			continue
		}
		candidates = append(candidates, scored{name: r.ApprovedName, score: score})
	}

	// Merge duplicate names, keeping the best score and tallying support.
	merged := make(map[string]*Match)
	var order []string
	for _, c := range candidates {
		m, ok := merged[c.name]
		if !ok {
			m = &Match{Name: c.name}
			merged[c.name] = m
			order = append(order, c.name)
		}
		m.Support++
		if c.score > m.Score {
			m.Score = c.score
		}
	}

	out := make([]Match, 0, len(order))
	for _, name := range order {
		out = append(out, *merged[name])
	}
	sortMatchesDesc(out)
	if len(out) > similarityMaxResults {
		out = out[:similarityMaxResults]
	}
	return out
}

func sortMatchesDesc(matches []Match) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Score > matches[j-1].Score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

func tokenSet(label string, nearby []string) map[string]bool {
	set := make(map[string]bool)
	addTokens(set, label)
	for _, t := range nearby {
		addTokens(set, t)
	}
	return set
}

func addTokens(set map[string]bool, text string) {
	text = strings.ToLower(text)
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if field != "" {
			set[field] = true
		}
	}
}

// textSimilarity is Jaccard overlap over the two token sets.
func textSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a)
	for tok := range b {
		if !a[tok] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func sameVisualGroup(r Record, ctx LookupContext, extentX, extentY float64) bool {
	gx1 := int(r.PagePositionX / visualBucketSize)
	gy1 := int(r.PagePositionY / visualBucketSize)
	gx2 := int(ctx.X / visualBucketSize)
	gy2 := int(ctx.Y / visualBucketSize)
	return gx1 == gx2 && gy1 == gy2
}

const visualBucketSize = 100.0

func minePatterns(records []Record) []NamingPattern {
	agg := make(map[string]*NamingPattern)
	var order []string

	for _, r := range records {
		block, element, modifier, ok := parseApproved(r.ApprovedName)
		if !ok {
			continue
		}
		for tok := range tokenSet(r.Label, r.NearbyText) {
			k := tok
			p, exists := agg[k]
			if !exists {
				p = &NamingPattern{TriggerTokens: []string{tok}, Block: block, Element: element, ModifierHint: modifier}
				agg[k] = p
				order = append(order, k)
			}
			p.Support++
		}
	}

	var out []NamingPattern
	for _, k := range order {
		p := agg[k]
		p.Confidence = float64(p.Support) / float64(len(records))
		out = append(out, *p)
	}
	return out
}

func parseApproved(name string) (block, element, modifier string, ok bool) {
	parts := strings.SplitN(name, "__", 2)
	modifier = ""
	rest := parts[0]
	if len(parts) == 2 {
		modifier = parts[1]
	}
	blockElem := strings.SplitN(rest, "_", 2)
	block = blockElem[0]
	if len(blockElem) == 2 {
		element = blockElem[1]
	}
	if block == "" {
		return "", "", "", false
	}
	return block, element, modifier, true
}
