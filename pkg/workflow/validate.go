package workflow

import "github.com/saiteja-tally/taggo/pkg/errx"

// Commented is the slice of the data model validation needs: the paths of
// every field that currently carries a non-empty review comment.
type Commented interface {
	CommentedPaths() []string
}

// ValidateSave checks the comment preconditions for saving toward a target
// status. Rejection demands an explanation somewhere in the tree; forwarding
// toward labelled, in-review or accepted demands that every review note has
// been resolved first. Violations carry the offending field paths in the
// error details so the caller can point at them.
func ValidateSave(doc Commented, target Status) error {
	if !target.Valid() {
		return workflowErrors.New(ErrInvalidStatus).WithDetail("status", string(target))
	}

	paths := doc.CommentedPaths()

	switch target {
	case StatusRejected:
		if len(paths) == 0 {
			return workflowErrors.New(ErrCommentRequired)
		}
	case StatusLabelled, StatusInReview, StatusAccepted, StatusDone:
		if len(paths) > 0 {
			return workflowErrors.New(ErrCommentsPending).WithDetail("fields", paths)
		}
	}
	return nil
}

// ValidateTransition checks that a status transition is legal, returning a
// rich error naming both endpoints when it is not.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return workflowErrors.New(ErrIllegalTransition).WithDetails(map[string]interface{}{
			"from": string(from),
			"to":   string(to),
		})
	}
	return nil
}

// NothingToSave builds the error returned when a save is attempted with a
// clean working copy.
func NothingToSave() *errx.Error {
	return workflowErrors.New(ErrNothingToSave)
}
