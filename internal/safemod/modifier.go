package safemod

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fieldbem/pdfrename/internal/acroform"
	"github.com/fieldbem/pdfrename/internal/bemerrors"
	"github.com/fieldbem/pdfrename/internal/pdfobj"
	"github.com/fieldbem/pdfrename/internal/planner"
)

// Status is the overall integrity outcome of an apply run.
type Status string

const (
	StatusSafe     Status = "safe"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// IntegrityReport is C7.6's result: overall status plus per-check
// booleans and any offending field IDs.
type IntegrityReport struct {
	Status             Status
	FieldSetUnchanged  bool
	NamesApplied       bool
	HierarchyPreserved bool
	GeometryPreserved  bool
	AcroFormReachable  bool
	OffendingFieldIDs  []string
	RolledBack         bool
}

func (r *IntegrityReport) fail(fieldID string) {
	r.OffendingFieldIDs = append(r.OffendingFieldIDs, fieldID)
}

func (r *IntegrityReport) ok() bool {
	return r.FieldSetUnchanged && r.NamesApplied && r.HierarchyPreserved && r.GeometryPreserved && r.AcroFormReachable
}

// ApplyResult is what Apply returns, whether or not rollback occurred.
type ApplyResult struct {
	ModifiedPath string
	Backup       *BackupRecord
	Report       IntegrityReport
}

// Apply runs the full protocol: lock, backup, incremental-update write,
// re-parse validation, and rollback to the backup on any validation
// failure. Only plans with no blockers should reach Apply; callers must
// check plan.Applicable(safetyThreshold) first.
func Apply(sourcePath string, doc *pdfobj.Document, originalFields []*acroform.Field, plan *planner.ModificationPlan, outPath, backupID string, now time.Time) (*ApplyResult, error) {
	if perms := doc.Permissions(); !perms.AllowsRename() {
		return nil, bemerrors.PermissionDenied(fmt.Sprintf("document permissions forbid renaming fields (%s)", perms))
	}

	lock, err := AcquireLock(sourcePath)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	backup, err := CreateBackup(sourcePath, backupID, digestPlan(plan), now)
	if err != nil {
		return nil, err
	}

	if err := writeModifiedDocument(sourcePath, doc, plan, outPath); err != nil {
		_ = RestoreBackup(backup, outPath)
		return nil, fmt.Errorf("writing modified document: %w", err)
	}

	report, valid := validate(outPath, originalFields, plan)
	if !valid {
		if rollbackErr := RestoreBackup(backup, outPath); rollbackErr != nil {
			return nil, bemerrors.IoFailure("rollback after validation failure also failed", rollbackErr)
		}
		report.RolledBack = true
		report.Status = StatusCritical
		return &ApplyResult{ModifiedPath: outPath, Backup: backup, Report: report},
			bemerrors.ValidationFailure("post-apply validation failed", report.OffendingFieldIDs...)
	}

	return &ApplyResult{ModifiedPath: outPath, Backup: backup, Report: report}, nil
}

// writeModifiedDocument builds the Update list for every planned edit
// (T rewrite plus any rewritable dependent JS-action strings) and commits
// it via C1's incremental-update writer.
func writeModifiedDocument(sourcePath string, doc *pdfobj.Document, plan *planner.ModificationPlan, outPath string) error {
	var updates []pdfobj.Update

	for _, edit := range plan.Edits {
		if edit.ObjectRef == (pdfobj.ObjectID{}) {
			continue
		}
		resolved, err := doc.Resolve(&pdfobj.IndirectRef{ObjectID: edit.ObjectRef})
		if err != nil {
			return fmt.Errorf("resolving field object for %s: %w", edit.FieldID, err)
		}
		dict, ok := resolved.(*pdfobj.Dictionary)
		if !ok {
			return fmt.Errorf("field object for %s is not a dictionary", edit.FieldID)
		}
		updated := cloneDictionary(dict)
		updated.Set("T", &pdfobj.String{Value: edit.NewLocalTitle})
		updates = append(updates, pdfobj.Update{ID: edit.ObjectRef, Object: updated})

		for _, ref := range edit.DependentRefs {
			if ref.Kind != "js_action" || !ref.Rewritable {
				continue
			}
			actionResolved, err := doc.Resolve(&pdfobj.IndirectRef{ObjectID: ref.ObjectRef})
			if err != nil {
				continue
			}
			actionDict, ok := actionResolved.(*pdfobj.Dictionary)
			if !ok {
				continue
			}
			updates = append(updates, pdfobj.Update{ID: ref.ObjectRef, Object: rewriteJSAction(actionDict, ref.OldText, ref.NewText)})
		}
	}

	base, err := os.Open(sourcePath)
	if err != nil {
		return bemerrors.IoFailure("reopening source document failed", err)
	}
	defer base.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return bemerrors.IoFailure("creating output document failed", err)
	}
	defer out.Close()

	var rootRef *pdfobj.IndirectRef
	if ref, ok := doc.Trailer().Get("Root").(*pdfobj.IndirectRef); ok {
		rootRef = ref
	}
	var infoRef *pdfobj.IndirectRef
	if ref, ok := doc.Trailer().Get("Info").(*pdfobj.IndirectRef); ok {
		infoRef = ref
	}
	fileID := doc.Trailer().Get("ID")
	if fileID.Type() == pdfobj.TypeNull {
		fileID = nil
	}

	_, err = pdfobj.WriteIncremental(out, base, doc.FileSize(), doc.StartXRefOffset(), rootRef, infoRef, fileID, updates)
	return err
}

func cloneDictionary(d *pdfobj.Dictionary) *pdfobj.Dictionary {
	clone := pdfobj.NewDictionary()
	for _, k := range d.Keys {
		clone.Set(k.Value, d.Values[k.Value])
	}
	return clone
}

func rewriteJSAction(actionDict *pdfobj.Dictionary, oldText, newText string) *pdfobj.Dictionary {
	clone := cloneDictionary(actionDict)
	if js, ok := clone.Get("JS").(*pdfobj.String); ok {
		rewritten := strings.ReplaceAll(js.Value, "\""+oldText+"\"", "\""+newText+"\"")
		rewritten = strings.ReplaceAll(rewritten, "'"+oldText+"'", "'"+newText+"'")
		clone.Set("JS", &pdfobj.String{Value: rewritten, IsHex: js.IsHex})
	}
	return clone
}

// validate implements C7.4: re-open the output via C1 and re-run C2,
// asserting field-set totality, applied names, hierarchy, and geometry.
func validate(outPath string, originalFields []*acroform.Field, plan *planner.ModificationPlan) (IntegrityReport, bool) {
	report := IntegrityReport{Status: StatusSafe}

	f, err := os.Open(outPath)
	if err != nil {
		report.Status = StatusCritical
		return report, false
	}
	defer f.Close()

	doc, err := pdfobj.Open(f, "")
	if err != nil {
		report.Status = StatusCritical
		return report, false
	}

	extractor := acroform.NewExtractor(doc, 0)
	newFields, _, err := extractor.Extract()
	if err != nil {
		report.Status = StatusCritical
		return report, false
	}

	byID := make(map[string]*acroform.Field, len(newFields))
	for _, f := range newFields {
		byID[f.ID] = f
	}

	report.FieldSetUnchanged = len(newFields) == len(originalFields)
	if !report.FieldSetUnchanged {
		report.Status = StatusCritical
	}

	plannedNames := make(map[string]string, len(plan.Edits))
	for _, edit := range plan.Edits {
		plannedNames[edit.FieldID] = edit.NewName
	}

	report.NamesApplied = true
	report.HierarchyPreserved = true
	report.GeometryPreserved = true

	originalByID := make(map[string]*acroform.Field, len(originalFields))
	for _, f := range originalFields {
		originalByID[f.ID] = f
	}

	for id, wantName := range plannedNames {
		got, ok := byID[id]
		if !ok {
			report.NamesApplied = false
			report.fail(id)
			continue
		}
		if got.Name != wantName {
			report.NamesApplied = false
			report.fail(id)
		}
		orig, hasOrig := originalByID[id]
		if hasOrig {
			if got.ParentID != orig.ParentID {
				report.HierarchyPreserved = false
				report.fail(id)
			}
			if got.HasRect != orig.HasRect || got.Rect != orig.Rect || got.Page != orig.Page {
				report.GeometryPreserved = false
				report.fail(id)
			}
		}
	}

	report.AcroFormReachable = doc.Root().Get("AcroForm").Type() != pdfobj.TypeNull

	if !report.ok() {
		if report.Status != StatusCritical {
			report.Status = StatusWarning
		}
		return report, false
	}
	return report, true
}

// digestPlan produces a stable content hash of a plan's edits, recorded
// in the BackupRecord so a rollback can be checked against the plan that
// produced the document it's restoring over.
func digestPlan(plan *planner.ModificationPlan) string {
	var b strings.Builder
	for _, e := range plan.Edits {
		fmt.Fprintf(&b, "%s:%s->%s;", e.FieldID, e.OldName, e.NewName)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}
