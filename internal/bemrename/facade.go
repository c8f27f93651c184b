// Package bemrename is the single facade the CLI and MCP surfaces call
// into, tying C1 through C8 together behind the five operations external
// collaborators see: analyze, plan, apply, rollback, and process (which
// bundles analyze, decide, plan and apply). Mirrors the teacher's internal/pdf.Service
// role as the one type everything else depends on.
package bemrename

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldbem/pdfrename/internal/acroform"
	"github.com/fieldbem/pdfrename/internal/bemerrors"
	"github.com/fieldbem/pdfrename/internal/emit"
	"github.com/fieldbem/pdfrename/internal/fieldcontext"
	"github.com/fieldbem/pdfrename/internal/naming"
	"github.com/fieldbem/pdfrename/internal/pdfobj"
	"github.com/fieldbem/pdfrename/internal/planner"
	"github.com/fieldbem/pdfrename/internal/safemod"
	"github.com/fieldbem/pdfrename/internal/training"
)

// Metadata summarizes the opened document for analyze's response.
type Metadata struct {
	SourcePath string
	FieldCount int
	PageCount  int
	Encrypted  bool
}

// AnalyzeResult is analyze's response: the document metadata, its
// flattened field tree, and per-field context. Contexts is keyed by
// field id; a field with no rectangle (a radio group container) has no
// entry.
type AnalyzeResult struct {
	Doc      *pdfobj.Document
	Fields   []*acroform.Field
	Contexts map[string]*fieldcontext.FieldContext
	Warnings []*bemerrors.Error
	Metadata Metadata

	// file backs Doc's lazy object resolution; C1's parser reads object
	// bodies from it on first Resolve, not just during Extract, so it
	// must stay open for as long as Doc is used. Close releases it.
	file *os.File
}

// Close releases the file handle backing Doc. Safe to call on a nil
// receiver or after an earlier Close.
func (a *AnalyzeResult) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// FieldDecision bundles one field with the context it was decided from
// and the decision itself, the unit C8's report is built from.
type FieldDecision struct {
	Field    *acroform.Field
	Context  *fieldcontext.FieldContext
	Decision naming.NameDecision
}

// Plan is plan()'s response: the object-graph ModificationPlan plus the
// FieldDecisions that produced it, carried together so apply() has
// enough to build the mapping CSV and JSON report without re-deciding.
type Plan struct {
	SourcePath       string
	Doc              *pdfobj.Document
	ModificationPlan *planner.ModificationPlan
	Decisions        []FieldDecision
	OriginalFields   []*acroform.Field

	analysis *AnalyzeResult // owns the open file backing Doc; released by Close
}

// Close releases the file handle backing Doc. Apply calls this once it
// no longer needs Doc; callers that build a Plan and never Apply it
// should call Close themselves to avoid leaking the handle.
func (p *Plan) Close() error {
	if p == nil || p.analysis == nil {
		return nil
	}
	return p.analysis.Close()
}

// ApplyResult is apply()'s response.
type ApplyResult struct {
	ModifiedPath string
	MappingPath  string
	ReportPath   string
	BackupID     string
	Report       safemod.IntegrityReport
}

// RollbackResult is rollback()'s response.
type RollbackResult struct {
	RestoredPath string
}

// ProcessOptions configures process(), the analyze+decide+plan+apply
// bundle.
type ProcessOptions struct {
	Passphrase      string
	OutDir          string
	SafetyThreshold float64
	FormID          string
}

// Facade is the entry point; one Facade wraps one immutable, shared
// Training Store and is safe to call concurrently for distinct
// documents (§5's worker model — no shared mutable state per run).
type Facade struct {
	store *training.Store
}

// NewFacade builds a Facade backed by a loaded training Store. A nil
// store is valid: every lookup then returns no matches and C5 falls
// through to rule-based and fallback generation only.
func NewFacade(store *training.Store) *Facade {
	if store == nil {
		store = training.Load(nil)
	}
	return &Facade{store: store}
}

// Analyze implements C1-C3: parse path, extract the field tree, and
// recover per-field context.
func (f *Facade) Analyze(path, passphrase string) (*AnalyzeResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, bemerrors.IoFailure(fmt.Sprintf("opening %s failed", path), err)
	}

	doc, err := pdfobj.Open(file, passphrase)
	if err != nil {
		file.Close()
		return nil, err
	}

	extractor := acroform.NewExtractor(doc, 0)
	fields, warnings, err := extractor.Extract()
	if err != nil {
		file.Close()
		return nil, err
	}

	contexts, ctxErr := buildContexts(path, fields)
	if ctxErr != nil {
		file.Close()
		return nil, bemerrors.IoFailure("building field context failed", ctxErr)
	}

	encrypted := doc.Trailer().Get("Encrypt").Type() != pdfobj.TypeNull
	pageCount := acroform.BuildPageIndex(doc).Count()

	return &AnalyzeResult{
		Doc:      doc,
		Fields:   fields,
		Contexts: contexts,
		Warnings: warnings,
		Metadata: Metadata{
			SourcePath: path,
			FieldCount: len(fields),
			PageCount:  pageCount,
			Encrypted:  encrypted,
		},
		file: file,
	}, nil
}

// buildContexts opens path a second time with the ledongthuc/pdf text
// decoder C3 wraps and computes a FieldContext for every field that has
// a resolved rectangle and page.
func buildContexts(path string, fields []*acroform.Field) (map[string]*fieldcontext.FieldContext, error) {
	cache, err := fieldcontext.NewPageTextCache(path, 32)
	if err != nil {
		return nil, err
	}
	defer cache.Close()

	contexts := make(map[string]*fieldcontext.FieldContext, len(fields))
	for _, field := range fields {
		if !field.HasRect || field.Page <= 0 {
			continue
		}
		ctx, err := fieldcontext.Extract(cache, field.Page, field.Rect)
		if err != nil {
			continue
		}
		contexts[field.ID] = ctx
	}
	return contexts, nil
}

// Decide runs C5 over every field in an AnalyzeResult, deciding radio
// groups before the widgets nested under them so a widget's decision
// can use its group's already-assigned name.
func (f *Facade) Decide(analysis *AnalyzeResult) []FieldDecision {
	engine := naming.NewEngine(f.store)
	ordered := planner.OrderParentFirst(analysis.Fields)

	newNames := make(map[string]string, len(ordered))
	out := make([]FieldDecision, 0, len(ordered))

	for _, field := range ordered {
		ctx := analysis.Contexts[field.ID]
		input := naming.FieldInput{
			ID:            field.ID,
			CurrentName:   field.Name,
			Kind:          string(field.Kind),
			IsRadioGroup:  field.Kind == acroform.KindRadioGroup,
			IsRadioWidget: field.Kind == acroform.KindRadioWidget,
		}
		if ctx != nil {
			input.Context = *ctx
		}
		if field.ExportValue != nil {
			input.ExportValue = *field.ExportValue
		}
		if input.IsRadioWidget {
			input.RadioGroupName = newNames[field.ParentID]
		}

		decision := engine.Decide(input)
		newNames[field.ID] = decision.NewName
		out = append(out, FieldDecision{Field: field, Context: ctx, Decision: decision})
	}
	return out
}

// Plan implements C6: re-opens path, re-extracts its field tree, and
// builds an ordered ModificationPlan from decisions.
func (f *Facade) Plan(path, passphrase string, decisions []FieldDecision) (*Plan, error) {
	analysis, err := f.Analyze(path, passphrase)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]string, len(decisions))
	for _, d := range decisions {
		byID[d.Field.ID] = d.Decision.NewName
	}

	modPlan := planner.Plan(analysis.Doc, analysis.Fields, byID)
	return &Plan{
		SourcePath:       path,
		Doc:              analysis.Doc,
		ModificationPlan: modPlan,
		Decisions:        decisions,
		OriginalFields:   analysis.Fields,
		analysis:         analysis,
	}, nil
}

const defaultSafetyThreshold = 0.5

// Apply implements C7+C8: applies plan's edits under lock with backup
// and rollback, then writes the mapping CSV and JSON report next to the
// modified document. The plan must already satisfy Applicable(threshold);
// callers that skip this check get a PlanBlocker error here instead.
func (f *Facade) Apply(plan *Plan, opts ProcessOptions) (*ApplyResult, error) {
	defer plan.Close()

	threshold := opts.SafetyThreshold
	if threshold <= 0 {
		threshold = defaultSafetyThreshold
	}
	if !plan.ModificationPlan.Applicable(threshold) {
		return nil, bemerrors.PlanBlocker(
			fmt.Sprintf("plan has %d blocker(s) or safety score %.2f below threshold %.2f",
				len(plan.ModificationPlan.Blockers), plan.ModificationPlan.SafetyScore, threshold))
	}

	paths := derivePaths(plan.SourcePath, opts.OutDir)
	backupID := emit.NewUUID()
	now := time.Now().UTC()

	safeResult, err := safemod.Apply(plan.SourcePath, plan.Doc, plan.OriginalFields, plan.ModificationPlan, paths.modifiedPath, backupID, now)
	if err != nil {
		return nil, err
	}

	if err := writeMapping(paths.mappingPath, plan, opts.FormID, now); err != nil {
		return nil, bemerrors.IoFailure("writing mapping.csv failed", err)
	}
	if err := writeReport(paths.reportPath, plan, safeResult, now); err != nil {
		return nil, bemerrors.IoFailure("writing report.json failed", err)
	}

	return &ApplyResult{
		ModifiedPath: safeResult.ModifiedPath,
		MappingPath:  paths.mappingPath,
		ReportPath:   paths.reportPath,
		BackupID:     backupID,
		Report:       safeResult.Report,
	}, nil
}

// Rollback restores a document from its BackupRecord sidecar (the
// identifier a caller received as ApplyResult.BackupID is embedded in
// that sidecar's file name; this library has no separate backup
// registry to look the id up against).
func (f *Facade) Rollback(backupSidecarPath string) (*RollbackResult, error) {
	record, err := safemod.LoadBackupRecord(backupSidecarPath)
	if err != nil {
		return nil, bemerrors.IoFailure("loading backup record failed", err)
	}
	if err := safemod.RestoreBackup(record, record.OriginalPath); err != nil {
		return nil, bemerrors.IoFailure("restoring backup failed", err)
	}
	return &RollbackResult{RestoredPath: record.OriginalPath}, nil
}

// Process bundles analyze+decide+plan+apply into the single call the
// spec's process() names.
func (f *Facade) Process(path string, opts ProcessOptions) (*ApplyResult, error) {
	analysis, err := f.Analyze(path, opts.Passphrase)
	if err != nil {
		return nil, err
	}

	decisions := f.Decide(analysis)

	byID := make(map[string]string, len(decisions))
	for _, d := range decisions {
		byID[d.Field.ID] = d.Decision.NewName
	}
	modPlan := planner.Plan(analysis.Doc, analysis.Fields, byID)

	plan := &Plan{
		SourcePath:       path,
		Doc:              analysis.Doc,
		ModificationPlan: modPlan,
		Decisions:        decisions,
		OriginalFields:   analysis.Fields,
		analysis:         analysis,
	}

	return f.Apply(plan, opts)
}

type outputPaths struct {
	modifiedPath string
	mappingPath  string
	reportPath   string
}

func derivePaths(sourcePath, outDir string) outputPaths {
	dir := filepath.Dir(sourcePath)
	if outDir != "" {
		dir = outDir
	}
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	return outputPaths{
		modifiedPath: filepath.Join(dir, stem+"_parsed.pdf"),
		mappingPath:  filepath.Join(dir, stem+"_mapping.csv"),
		reportPath:   filepath.Join(dir, stem+"_report.json"),
	}
}

func writeMapping(path string, plan *Plan, formID string, now time.Time) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	rows := make([]emit.MappingRow, 0, len(plan.Decisions))
	for i, fd := range plan.Decisions {
		rows = append(rows, emit.BuildMappingRow(fd.Field, fd.Context, fd.Decision, formID, fd.Field.ID, emit.NewUUID(), i, now))
	}
	return emit.WriteMappingCSV(out, rows)
}

func writeReport(path string, plan *Plan, safeResult *safemod.ApplyResult, now time.Time) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	editsByField := make(map[string]*planner.FieldModification, len(plan.ModificationPlan.Edits))
	for i := range plan.ModificationPlan.Edits {
		editsByField[plan.ModificationPlan.Edits[i].FieldID] = &plan.ModificationPlan.Edits[i]
	}
	blockersByField := blockersByFieldID(plan.ModificationPlan)

	fields := make([]emit.FieldReport, 0, len(plan.Decisions))
	for _, fd := range plan.Decisions {
		var ctx fieldcontext.FieldContext
		if fd.Context != nil {
			ctx = *fd.Context
		}
		fields = append(fields, emit.FieldReport{
			ID:           fd.Field.ID,
			OriginalName: fd.Field.Name,
			Decision:     emit.BuildDecisionReport(fd.Decision),
			Context:      emit.BuildContextReport(ctx),
			Modification: emit.BuildModificationReport(editsByField[fd.Field.ID], blockersByField),
		})
	}

	warnings := make([]string, 0, len(plan.ModificationPlan.Blockers))
	warnings = append(warnings, plan.ModificationPlan.Blockers...)
	for _, c := range plan.ModificationPlan.Conflicts {
		warnings = append(warnings, fmt.Sprintf("%s: %s", c.FieldID, c.Message))
	}

	report := emit.Report{
		Document: emit.DocumentMeta{
			SourcePath:   plan.SourcePath,
			ModifiedPath: safeResult.ModifiedPath,
			FieldCount:   len(plan.OriginalFields),
			ProcessedAt:  now,
		},
		Fields:      fields,
		Warnings:    warnings,
		SafetyScore: plan.ModificationPlan.SafetyScore,
	}
	return emit.WriteReport(out, report)
}

// blockersByFieldID collects, per field id, one message for each
// dependent reference of that field's planned edit that is not
// rewritable. The plan's Blockers strings themselves are not read.
func blockersByFieldID(plan *planner.ModificationPlan) map[string][]string {
	out := make(map[string][]string)
	for _, fm := range plan.Edits {
		for _, ref := range fm.DependentRefs {
			if !ref.Rewritable {
				out[fm.FieldID] = append(out[fm.FieldID], fmt.Sprintf("cannot rewrite %s reference", ref.Kind))
			}
		}
	}
	return out
}
