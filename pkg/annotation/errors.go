package annotation

import "github.com/saiteja-tally/taggo/pkg/errx"

var annotationErrors = errx.NewRegistry("ANNOTATION")

var (
	ErrUnknownField   = annotationErrors.Register("UNKNOWN_FIELD", errx.TypeInternal, 500, "Field is not part of the vocabulary")
	ErrShapeMismatch  = annotationErrors.Register("SHAPE_MISMATCH", errx.TypeInternal, 500, "Operation does not match the field shape")
	ErrRowOutOfRange  = annotationErrors.Register("ROW_OUT_OF_RANGE", errx.TypeInternal, 500, "Row index is outside the table")
	ErrDecode         = annotationErrors.Register("DECODE", errx.TypeValidation, 400, "Malformed annotation payload")
	ErrRecordNotFound = annotationErrors.Register("RECORD_NOT_FOUND", errx.TypeNotFound, 404, "Annotation record not found")
	ErrStorage        = annotationErrors.Register("STORAGE", errx.TypeExternal, 502, "Annotation storage request failed")
	ErrReviewerOnly   = annotationErrors.Register("REVIEWER_ONLY", errx.TypeAuthorization, 403, "Only reviewers may perform this action")
	ErrNotLoaded      = annotationErrors.Register("NOT_LOADED", errx.TypeBusiness, 409, "No record is loaded")
	ErrUnsavedEdits   = annotationErrors.Register("UNSAVED_EDITS", errx.TypeBusiness, 409, "Unsaved edits block this action")
)

// RecordNotLoaded builds the error for operations that need a loaded record.
func RecordNotLoaded() *errx.Error {
	return annotationErrors.New(ErrNotLoaded)
}

// UnsavedEdits builds the error for navigation away from a dirty working copy.
func UnsavedEdits() *errx.Error {
	return annotationErrors.New(ErrUnsavedEdits)
}

// ReviewerRequired builds the error for review actions by a non-reviewer.
func ReviewerRequired() *errx.Error {
	return annotationErrors.New(ErrReviewerOnly)
}

// RecordNotFound builds the error for a missing record id.
func RecordNotFound(id string) *errx.Error {
	return annotationErrors.New(ErrRecordNotFound).WithDetail("record_id", id)
}

// StorageFailed wraps a storage backend failure.
func StorageFailed(cause error) *errx.Error {
	return annotationErrors.NewWithCause(ErrStorage, cause)
}
