// Package bemerrors defines the typed error taxonomy shared by every
// component of the field-renaming core, modeled on the teacher's
// PDFError/ErrorType split but generalized to the rename domain's own
// failure kinds (§7 of the spec).
package bemerrors

import (
	"fmt"
	"time"
)

// Kind identifies one of the error kinds named in §7.
type Kind int

const (
	KindUnknown Kind = iota
	KindPdfInvalid
	KindPdfEncrypted
	KindDanglingRef
	KindCircularField
	KindBadRect
	KindLargeForm
	KindTrainingCorrupt
	KindNameGrammarViolation
	KindPlanBlocker
	KindValidationFailure
	KindBackupFailure
	KindTimeout
	KindIoFailure
	KindPermissionDenied
)

func (k Kind) String() string {
	switch k {
	case KindPdfInvalid:
		return "PdfInvalid"
	case KindPdfEncrypted:
		return "PdfEncrypted"
	case KindDanglingRef:
		return "DanglingRef"
	case KindCircularField:
		return "CircularField"
	case KindBadRect:
		return "BadRect"
	case KindLargeForm:
		return "LargeForm"
	case KindTrainingCorrupt:
		return "TrainingCorrupt"
	case KindNameGrammarViolation:
		return "NameGrammarViolation"
	case KindPlanBlocker:
		return "PlanBlocker"
	case KindValidationFailure:
		return "ValidationFailure"
	case KindBackupFailure:
		return "BackupFailure"
	case KindTimeout:
		return "Timeout"
	case KindIoFailure:
		return "IoFailure"
	case KindPermissionDenied:
		return "PermissionDenied"
	default:
		return "Unknown"
	}
}

// Severity distinguishes warnings (processing continues) from fatal
// failures (the run stops).
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityFatal
)

// Error is the concrete error value every component returns or collects.
type Error struct {
	Kind      Kind
	Message   string
	FieldIDs  []string
	Severity  Severity
	Timestamp time.Time
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, sev Severity, msg string, cause error, fieldIDs ...string) *Error {
	return &Error{
		Kind:      kind,
		Message:   msg,
		FieldIDs:  fieldIDs,
		Severity:  sev,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// Fatal-severity constructors.

func PdfInvalid(msg string, cause error) *Error {
	return newErr(KindPdfInvalid, SeverityFatal, msg, cause)
}

func PdfEncrypted(msg string, cause error) *Error {
	return newErr(KindPdfEncrypted, SeverityFatal, msg, cause)
}

func DanglingRef(msg string) *Error {
	return newErr(KindDanglingRef, SeverityFatal, msg, nil)
}

func TrainingCorrupt(msg string, cause error) *Error {
	return newErr(KindTrainingCorrupt, SeverityFatal, msg, cause)
}

func PlanBlocker(msg string, fieldIDs ...string) *Error {
	return newErr(KindPlanBlocker, SeverityFatal, msg, nil, fieldIDs...)
}

func ValidationFailure(msg string, fieldIDs ...string) *Error {
	return newErr(KindValidationFailure, SeverityFatal, msg, nil, fieldIDs...)
}

func BackupFailure(msg string, cause error) *Error {
	return newErr(KindBackupFailure, SeverityFatal, msg, cause)
}

func Timeout(msg string) *Error {
	return newErr(KindTimeout, SeverityFatal, msg, nil)
}

func IoFailure(msg string, cause error) *Error {
	return newErr(KindIoFailure, SeverityFatal, msg, cause)
}

// PermissionDenied reports that the document's encryption permissions
// forbid the modification safemod is about to attempt.
func PermissionDenied(msg string) *Error {
	return newErr(KindPermissionDenied, SeverityFatal, msg, nil)
}

// Warning-severity constructors; processing continues after these.

func CircularField(fieldID string) *Error {
	return newErr(KindCircularField, SeverityWarning,
		"field tree cycle detected", nil, fieldID)
}

func BadRect(fieldID string) *Error {
	return newErr(KindBadRect, SeverityWarning,
		"rectangle missing or malformed, defaulted to zeros", nil, fieldID)
}

func LargeForm(count, threshold int) *Error {
	return newErr(KindLargeForm, SeverityWarning,
		fmt.Sprintf("form has %d fields, exceeding threshold %d", count, threshold), nil)
}

func NameGrammarViolation(fieldID, name string) *Error {
	return newErr(KindNameGrammarViolation, SeverityWarning,
		fmt.Sprintf("generated name %q violates grammar after retries", name), nil, fieldID)
}

// IsFatal reports whether an error (if it is an *Error) should stop the run.
func IsFatal(err error) bool {
	var e *Error
	if as(err, &e) {
		return e.Severity == SeverityFatal
	}
	return err != nil
}

// As unwraps err looking for an *Error, the same walk IsFatal does,
// exposed for callers (the CLI's exit-code mapping) that need the Kind
// itself rather than just its fatality.
func As(err error) (*Error, bool) {
	var e *Error
	ok := as(err, &e)
	return e, ok
}

func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
