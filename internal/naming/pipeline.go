package naming

import (
	"fmt"
	"strings"

	"github.com/fieldbem/pdfrename/internal/bemgrammar"
	"github.com/fieldbem/pdfrename/internal/fieldcontext"
	"github.com/fieldbem/pdfrename/internal/training"
)

// Action is the C5 decision classification for a field.
type Action string

const (
	ActionPreserve    Action = "preserve"
	ActionImprove     Action = "improve"
	ActionRestructure Action = "restructure"
)

// Source identifies which stage of the pipeline produced a name.
type Source string

const (
	SourceExactMatch     Source = "exact_match"
	SourceAdaptedPattern Source = "adapted_pattern"
	SourceRule           Source = "rule"
	SourceFallback       Source = "fallback"
)

// NameDecision is C5's output for one field, consumed by the planner.
type NameDecision struct {
	Action       Action
	NewName      string
	Confidence   float64
	Source       Source
	Rationale    string
	Alternatives []string
}

// FieldInput is the subset of Field+FieldContext the pipeline needs,
// decoupled from the acroform package so naming has no upstream
// dependency on it.
type FieldInput struct {
	ID             string
	CurrentName    string
	Kind           string
	IsRadioGroup   bool
	IsRadioWidget  bool
	RadioGroupName string // already-assigned parent name, for widgets
	ExportValue    string
	Context        fieldcontext.FieldContext
}

const (
	exactMatchMinSupport = 2
	maxValidationRetries = 5
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "for": true,
	"and": true, "or": true, "please": true, "enter": true, "your": true,
}

// Engine runs the full preservation/generation/validation pipeline across
// a batch of fields, tracking already-assigned names for uniqueness.
type Engine struct {
	store    *training.Store
	assigned map[string]bool
}

// NewEngine builds an Engine backed by a loaded training Store.
func NewEngine(store *training.Store) *Engine {
	return &Engine{store: store, assigned: make(map[string]bool)}
}

// Decide produces a validated, unique NameDecision for one field. For a
// radio widget, call Decide on the group container first so
// input.RadioGroupName is available.
func (e *Engine) Decide(input FieldInput) NameDecision {
	if input.IsRadioWidget && input.RadioGroupName != "" {
		return e.decideRadioWidget(input)
	}

	decision := e.preserveOrImprove(input)
	if decision == nil {
		d := e.generate(input)
		decision = &d
	}

	e.validateAndAssign(decision)
	return *decision
}

func (e *Engine) decideRadioWidget(input FieldInput) NameDecision {
	tail := NormalizeSegment(input.ExportValue, fmt.Sprintf("option-%d", len(e.assigned)+1))
	name := input.RadioGroupName + "__" + tail
	decision := NameDecision{
		Action:     ActionRestructure,
		NewName:    name,
		Confidence: 0.7,
		Source:     SourceRule,
		Rationale:  "widget name derived from radio group prefix + export value",
	}
	e.validateAndAssign(&decision)
	return decision
}

// preserveOrImprove implements §4.5.1. Returns nil to fall through to
// generation.
func (e *Engine) preserveOrImprove(input FieldInput) *NameDecision {
	name := strings.TrimSpace(input.CurrentName)
	if name == "" {
		return nil
	}

	if bemgrammar.Valid(name) {
		matches := e.store.LookupExact(toLookupContext(input))
		for _, m := range matches {
			if m.Name == name && m.Support >= 1 {
				return &NameDecision{
					Action:     ActionPreserve,
					NewName:    name,
					Confidence: 0.9,
					Source:     SourceExactMatch,
					Rationale:  "current name matches grammar and is supported by training",
				}
			}
		}
		return nil
	}

	normalized := NormalizeExisting(name)
	if bemgrammar.Valid(normalized) {
		return &NameDecision{
			Action:     ActionImprove,
			NewName:    normalized,
			Confidence: 0.6,
			Source:     SourceRule,
			Rationale:  "casing/separator normalization of existing name",
		}
	}

	return nil
}

// generate implements §4.5.2's four-stage pipeline, first success wins.
func (e *Engine) generate(input FieldInput) NameDecision {
	ctx := toLookupContext(input)

	if exact := e.store.LookupExact(ctx); len(exact) > 0 {
		top := exact[0]
		dominates := len(exact) == 1 || top.Support >= 2*exact[1].Support
		if top.Support >= exactMatchMinSupport && dominates {
			return NameDecision{
				Action:     ActionRestructure,
				NewName:    top.Name,
				Confidence: 0.9,
				Source:     SourceExactMatch,
				Rationale:  "single dominant exact-match training candidate",
			}
		}
	}

	if similar := e.store.LookupSimilar(ctx); len(similar) > 0 {
		candidate := similar[0].Name
		if e.assigned[candidate] {
			candidate = adaptElement(candidate, input.Context.Label)
		}
		return NameDecision{
			Action:       ActionRestructure,
			NewName:      candidate,
			Confidence:   0.7,
			Source:       SourceAdaptedPattern,
			Rationale:    "adapted from closest similarity-ranked training pattern",
			Alternatives: namesOf(similar[1:]),
		}
	}

	if name, ok := EvaluateRules(input.Kind, input.Context.Label, input.Context.NearbyText); ok {
		return NameDecision{
			Action:     ActionRestructure,
			NewName:    name,
			Confidence: 0.6,
			Source:     SourceRule,
			Rationale:  "matched fixed semantic rule table",
		}
	}

	tail := NormalizeSegment(firstNonEmpty(input.Context.Label, input.ID), "unlabeled")
	return NameDecision{
		Action:     ActionRestructure,
		NewName:    "form_" + input.Kind + "__" + tail,
		Confidence: 0.4,
		Source:     SourceFallback,
		Rationale:  "no training or rule match; generic fallback",
	}
}

// validateAndAssign implements §4.5.3: grammar/reserved/length check,
// then conflict resolution via a numeric modifier suffix, bounded retry.
func (e *Engine) validateAndAssign(d *NameDecision) {
	name := d.NewName
	isGrammatical := func(n string) bool {
		if d.Source == SourceFallback {
			return bemgrammar.ValidShape(n)
		}
		return bemgrammar.Valid(n)
	}

	for attempt := 0; attempt < maxValidationRetries; attempt++ {
		if !isGrammatical(name) {
			name = sanitizeToGrammar(name)
			d.Rationale += "; sanitized to satisfy grammar"
			continue
		}
		if !e.assigned[name] {
			break
		}
		name = disambiguate(name, attempt+2)
		d.Rationale += fmt.Sprintf("; disambiguated to avoid collision (%s)", name)
	}
	if !isGrammatical(name) || e.assigned[name] {
		name = disambiguate(name, len(e.assigned)+2)
	}
	d.NewName = name
	e.assigned[name] = true
}

func sanitizeToGrammar(name string) string {
	block, element, modifier, ok := bemgrammar.Parse(name)
	if ok {
		return reassemble(block, element, modifier)
	}
	seg := NormalizeSegment(name, "field")
	if len(seg) > bemgrammar.MaxLength {
		seg = seg[:bemgrammar.MaxLength]
	}
	if bemgrammar.ReservedBlocks[seg] {
		seg = "x-" + seg
	}
	return seg
}

func reassemble(block, element, modifier string) string {
	out := block
	if element != "" {
		out += "_" + element
	}
	if modifier != "" {
		out += "__" + modifier
	}
	if len(out) > bemgrammar.MaxLength {
		out = out[:bemgrammar.MaxLength]
	}
	return out
}

func disambiguate(name string, n int) string {
	block, element, _, ok := bemgrammar.Parse(name)
	if !ok {
		block, element = name, ""
	}
	suffix := fmt.Sprintf("%d", n)
	candidate := reassemble(block, element, suffix)
	if len(candidate) > bemgrammar.MaxLength {
		trimBy := len(candidate) - bemgrammar.MaxLength
		if len(block) > trimBy {
			block = block[:len(block)-trimBy]
		}
		candidate = reassemble(block, element, suffix)
	}
	return candidate
}

func adaptElement(name, label string) string {
	block, _, modifier, ok := bemgrammar.Parse(name)
	if !ok {
		return name
	}
	token := NormalizeSegment(stripStopWords(label), "field")
	return reassemble(block, token, modifier)
}

func stripStopWords(label string) string {
	fields := strings.Fields(strings.ToLower(label))
	var kept []string
	for _, f := range fields {
		f = strings.Trim(f, ":,.")
		if f == "" || stopWords[f] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func toLookupContext(input FieldInput) training.LookupContext {
	return training.LookupContext{
		Label:      input.Context.Label,
		NearbyText: input.Context.NearbyText,
		Section:    input.Context.SectionHeader,
		Kind:       input.Kind,
	}
}

func namesOf(matches []training.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Name
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
