// Package emit produces two of the per-run artifacts C8 is responsible
// for: the mapping CSV (bit-exact with the historical training schema)
// and the structured JSON processing report. The BackupRecord sidecar is
// written by safemod; the report does not include it.
package emit

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"ID", "Created at", "Updated at", "Label", "Description", "Form ID",
	"Order", "Api name", "UUID", "Type", "Parent ID", "Delete Parent ID",
	"Acrofieldlabel", "Section ID", "Excluded", "Partial label", "Custom",
	"Show group label", "Height", "Page", "Width", "X", "Y",
	"Unified field ID", "Delete", "Hidden", "Toggle description",
}

// MappingRow is one row of the per-field tabular record, column-for-column
// with the historical training CSV schema.
type MappingRow struct {
	ID                string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Label             string
	Description       string
	FormID            string
	Order             int
	ApiName           string
	UUID              string
	Type              string
	ParentID          string
	DeleteParentID    string
	Acrofieldlabel    string
	SectionID         string
	Excluded          bool
	PartialLabel      string
	Custom            bool
	ShowGroupLabel    bool
	Height            float64
	Page              int
	Width             float64
	X                 float64
	Y                 float64
	UnifiedFieldID    string
	Delete            bool
	Hidden            bool
	ToggleDescription string
}

// utf8BOM precedes the CSV body per the mapping file's encoding rule.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteMappingCSV writes the UTF-8-BOM, LF-terminated, RFC4180-quoted
// mapping.csv body for rows to w.
func WriteMappingCSV(w io.Writer, rows []MappingRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = false

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r MappingRow) record() []string {
	return []string{
		r.ID,
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
		r.Label,
		r.Description,
		r.FormID,
		strconv.Itoa(r.Order),
		r.ApiName,
		r.UUID,
		r.Type,
		r.ParentID,
		r.DeleteParentID,
		r.Acrofieldlabel,
		r.SectionID,
		formatBool(r.Excluded),
		r.PartialLabel,
		formatBool(r.Custom),
		formatBool(r.ShowGroupLabel),
		formatFloat(r.Height),
		strconv.Itoa(r.Page),
		formatFloat(r.Width),
		formatFloat(r.X),
		formatFloat(r.Y),
		r.UnifiedFieldID,
		formatBool(r.Delete),
		formatBool(r.Hidden),
		r.ToggleDescription,
	}
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
