// Package planner converts a field_id -> new_name decision map into an
// ordered ModificationPlan of object-graph edits, discovering dependent
// references (JavaScript actions, calculation-order arrays) that must be
// rewritten alongside each field's own T entry.
package planner

import (
	"fmt"
	"strings"

	"github.com/fieldbem/pdfrename/internal/acroform"
	"github.com/fieldbem/pdfrename/internal/pdfobj"
)

const (
	largePlanThreshold      = 500
	largePlanPenalty        = 0.1
	exportNameChangePenalty = 0.05
	defaultSafetyThreshold  = 0.5
)

// DependentRef is one occurrence of a field's old fully-qualified name
// found inside another object (a JS action, a calculation-order array, a
// named-destination-like annotation), collected so C7 can rewrite it
// alongside the field's own T entry.
type DependentRef struct {
	ObjectRef  pdfobj.ObjectID
	Kind       string // "js_action", "calculation_order", "named_dest"
	OldText    string
	NewText    string
	Rewritable bool
}

// FieldModification is one ordered edit in a ModificationPlan.
type FieldModification struct {
	FieldID       string
	ObjectRef     pdfobj.ObjectID
	OldName       string
	NewName       string
	NewLocalTitle string
	DependentRefs []DependentRef
}

// Conflict is a detected issue that does not by itself block the plan
// but is surfaced in the report (e.g. a sibling collision after applying
// the plan).
type Conflict struct {
	FieldID string
	Message string
}

// ModificationPlan is C6's output, consumed by C7.
type ModificationPlan struct {
	Edits       []FieldModification
	Conflicts   []Conflict
	Blockers    []string
	SafetyScore float64
}

// Applicable reports whether the plan meets the safety bar: no blockers
// and a safety score at or above threshold.
func (p *ModificationPlan) Applicable(threshold float64) bool {
	return len(p.Blockers) == 0 && p.SafetyScore >= threshold
}

// Plan builds a ModificationPlan for fields (the flat extracted field
// list) given decisions, a field_id -> new_name map. doc supplies access
// to the object graph for dependent-reference discovery.
func Plan(doc *pdfobj.Document, fields []*acroform.Field, decisions map[string]string) *ModificationPlan {
	byID := make(map[string]*acroform.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	ordered := topoOrder(fields)

	plan := &ModificationPlan{}
	exportNameChanges := 0

	for _, f := range ordered {
		newName, ok := decisions[f.ID]
		if !ok {
			continue
		}
		parentNewName := ""
		if f.ParentID != "" {
			if parentNew, ok := decisions[f.ParentID]; ok {
				parentNewName = parentNew
			}
		}

		localTitle := deriveLocalTitle(newName, parentNewName)

		refs := discoverDependentRefs(doc, f.Name, newName)

		plan.Edits = append(plan.Edits, FieldModification{
			FieldID:       f.ID,
			ObjectRef:     f.ObjectRef,
			OldName:       f.Name,
			NewName:       newName,
			NewLocalTitle: localTitle,
			DependentRefs: refs,
		})

		if f.Kind == acroform.KindRadioWidget && f.ExportValue != nil {
			exportNameChanges++
		}

		for _, ref := range refs {
			if !ref.Rewritable {
				plan.Blockers = append(plan.Blockers, fmt.Sprintf("field %s: cannot rewrite %s reference", f.ID, ref.Kind))
			}
		}
	}

	plan.Conflicts = detectSiblingConflicts(ordered, decisions)
	plan.SafetyScore = computeSafetyScore(len(plan.Edits), len(plan.Blockers), exportNameChanges)

	return plan
}

// OrderParentFirst exposes topoOrder for callers outside this package
// that need the same parent-before-child ordering before naming or
// planning a field set — e.g. the Name Engine must decide a radio
// group's name before its widgets.
func OrderParentFirst(fields []*acroform.Field) []*acroform.Field {
	return topoOrder(fields)
}

// topoOrder returns fields ordered so that a parent always precedes its
// children, preserving each field's relative position otherwise.
func topoOrder(fields []*acroform.Field) []*acroform.Field {
	depth := make(map[string]int)
	byID := make(map[string]*acroform.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}
	var depthOf func(id string) int
	depthOf = func(id string) int {
		if d, ok := depth[id]; ok {
			return d
		}
		f, ok := byID[id]
		if !ok || f.ParentID == "" {
			depth[id] = 0
			return 0
		}
		d := depthOf(f.ParentID) + 1
		depth[id] = d
		return d
	}
	for _, f := range fields {
		depthOf(f.ID)
	}

	out := make([]*acroform.Field, len(fields))
	copy(out, fields)
	// stable insertion sort by depth keeps sibling order intact.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && depth[out[j].ID] < depth[out[j-1].ID] {
			out[j], out[j-1] = out[j-1], out[j]
			j--
		}
	}
	return out
}

// deriveLocalTitle computes the T entry value from a field's desired
// fully-qualified new name by stripping its parent's new fully-qualified
// name prefix, per §4.6.1. If newName does not carry parentNewName as a
// prefix (the decision engine did not preserve the hierarchical relation),
// the full new name is used as the local title unchanged.
func deriveLocalTitle(newName, parentNewName string) string {
	if parentNewName == "" {
		return newName
	}
	if !strings.HasPrefix(newName, parentNewName) {
		return newName
	}
	rest := newName[len(parentNewName):]
	return strings.TrimLeft(rest, "_")
}

func detectSiblingConflicts(fields []*acroform.Field, decisions map[string]string) []Conflict {
	type key struct {
		parent string
		local  string
	}
	seen := make(map[key]string)
	var conflicts []Conflict

	parentNewName := make(map[string]string)
	for _, f := range fields {
		if newName, ok := decisions[f.ID]; ok {
			parentNewName[f.ID] = newName
		}
	}

	for _, f := range fields {
		newName, ok := decisions[f.ID]
		if !ok {
			continue
		}
		local := deriveLocalTitle(newName, parentNewName[f.ParentID])
		k := key{parent: f.ParentID, local: local}
		if prior, exists := seen[k]; exists && prior != f.ID {
			conflicts = append(conflicts, Conflict{
				FieldID: f.ID,
				Message: fmt.Sprintf("sibling name collision on local title %q with field %s", local, prior),
			})
			continue
		}
		seen[k] = f.ID
	}
	return conflicts
}

func computeSafetyScore(plannedEdits, blockers, exportNameChanges int) float64 {
	if plannedEdits == 0 {
		return 1.0
	}
	score := 1.0 - float64(blockers)/float64(plannedEdits)
	if plannedEdits > largePlanThreshold {
		score -= largePlanPenalty
	}
	if exportNameChanges > 0 {
		score -= exportNameChangePenalty
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
