package emit

import (
	"encoding/json"
	"io"
	"time"

	"github.com/fieldbem/pdfrename/internal/acroform"
	"github.com/fieldbem/pdfrename/internal/fieldcontext"
	"github.com/fieldbem/pdfrename/internal/naming"
	"github.com/fieldbem/pdfrename/internal/planner"
	"github.com/google/uuid"
)

// DocumentMeta describes the processed document for the report's top-level
// "document" object.
type DocumentMeta struct {
	SourcePath   string    `json:"source_path"`
	ModifiedPath string    `json:"modified_path"`
	FieldCount   int       `json:"field_count"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// DecisionReport mirrors naming.NameDecision for JSON output.
type DecisionReport struct {
	Action       string   `json:"action"`
	NewName      string   `json:"new_name"`
	Confidence   float64  `json:"confidence"`
	Source       string   `json:"source"`
	Rationale    string   `json:"rationale"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// ContextReport mirrors fieldcontext.FieldContext for JSON output.
type ContextReport struct {
	Label         string   `json:"label,omitempty"`
	SectionHeader string   `json:"section_header,omitempty"`
	NearbyText    []string `json:"nearby_text,omitempty"`
	VisualGroup   string   `json:"visual_group,omitempty"`
	Confidence    float64  `json:"confidence"`
}

// ModificationReport records what the planner/safemod pipeline did for one
// field: the rewritten name and local title, any dependent references
// discovered, and any plan blockers naming that field.
type ModificationReport struct {
	Applied       bool     `json:"applied"`
	OldName       string   `json:"old_name,omitempty"`
	NewName       string   `json:"new_name,omitempty"`
	NewLocalTitle string   `json:"new_local_title,omitempty"`
	DependentRefs int      `json:"dependent_refs"`
	Blockers      []string `json:"blockers,omitempty"`
}

// FieldReport is one entry in the report's "fields" array.
type FieldReport struct {
	ID           string              `json:"id"`
	OriginalName string              `json:"original_name"`
	Decision     DecisionReport      `json:"decision"`
	Context      ContextReport       `json:"context"`
	Modification *ModificationReport `json:"modification,omitempty"`
}

// Report is the full structured processing report written to
// <name>_report.json.
type Report struct {
	Document    DocumentMeta  `json:"document"`
	Fields      []FieldReport `json:"fields"`
	Warnings    []string      `json:"warnings"`
	SafetyScore float64       `json:"safety_score"`
}

// WriteReport marshals report as indented JSON to w.
func WriteReport(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// NewUUID produces the opaque unique id stored in the mapping CSV's UUID
// column and usable as a report field's correlation id.
func NewUUID() string {
	return uuid.NewString()
}

// BuildDecisionReport converts a naming.NameDecision into its JSON form.
func BuildDecisionReport(d naming.NameDecision) DecisionReport {
	return DecisionReport{
		Action:       string(d.Action),
		NewName:      d.NewName,
		Confidence:   d.Confidence,
		Source:       string(d.Source),
		Rationale:    d.Rationale,
		Alternatives: d.Alternatives,
	}
}

// BuildContextReport converts a fieldcontext.FieldContext into its JSON
// form.
func BuildContextReport(c fieldcontext.FieldContext) ContextReport {
	return ContextReport{
		Label:         c.Label,
		SectionHeader: c.SectionHeader,
		NearbyText:    c.NearbyText,
		VisualGroup:   c.VisualGroup,
		Confidence:    c.Confidence,
	}
}

// BuildModificationReport summarizes a single field's planned edit and
// any blockers the plan recorded under that field's id.
func BuildModificationReport(edit *planner.FieldModification, blockersByField map[string][]string) *ModificationReport {
	if edit == nil {
		return &ModificationReport{Applied: false}
	}
	return &ModificationReport{
		Applied:       true,
		OldName:       edit.OldName,
		NewName:       edit.NewName,
		NewLocalTitle: edit.NewLocalTitle,
		DependentRefs: len(edit.DependentRefs),
		Blockers:      blockersByField[edit.FieldID],
	}
}

// BuildMappingRow assembles one mapping.csv row from a field, its context,
// and its naming decision. formID and unifiedFieldID are supplied by the
// caller since neither is recoverable from the PDF alone; order is the
// row's position in the field's flattened traversal order.
func BuildMappingRow(f *acroform.Field, ctx *fieldcontext.FieldContext, decision naming.NameDecision, formID, unifiedFieldID, uuidValue string, order int, now time.Time) MappingRow {
	row := MappingRow{
		ID:             f.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
		FormID:         formID,
		Order:          order,
		ApiName:        decision.NewName,
		UUID:           uuidValue,
		Type:           string(f.Kind),
		ParentID:       f.ParentID,
		Acrofieldlabel: f.Name,
		Height:         rectHeight(f),
		Page:           f.Page,
		Width:          rectWidth(f),
		X:              rectX(f),
		Y:              rectY(f),
		UnifiedFieldID: unifiedFieldID,
		Hidden:         f.HasFlag(acroform.FlagReadonly),
		ShowGroupLabel: f.IsGroupContainer,
	}
	if ctx != nil {
		row.Label = ctx.Label
		row.SectionID = ctx.SectionHeader
		row.PartialLabel = ctx.Label
	}
	return row
}

func rectX(f *acroform.Field) float64 {
	if !f.HasRect {
		return 0
	}
	return f.Rect[0]
}

func rectY(f *acroform.Field) float64 {
	if !f.HasRect {
		return 0
	}
	return f.Rect[1]
}

func rectWidth(f *acroform.Field) float64 {
	if !f.HasRect {
		return 0
	}
	return f.Rect[2] - f.Rect[0]
}

func rectHeight(f *acroform.Field) float64 {
	if !f.HasRect {
		return 0
	}
	return f.Rect[3] - f.Rect[1]
}
