package workflow

import "github.com/saiteja-tally/taggo/pkg/errx"

var workflowErrors = errx.NewRegistry("WORKFLOW")

var (
	ErrNothingToSave     = workflowErrors.Register("NOTHING_TO_SAVE", errx.TypeValidation, 400, "No changes to save")
	ErrCommentRequired   = workflowErrors.Register("COMMENT_REQUIRED", errx.TypeBusiness, 422, "Rejection requires at least one review comment")
	ErrCommentsPending   = workflowErrors.Register("COMMENTS_PENDING", errx.TypeBusiness, 422, "Unresolved review comments block this transition")
	ErrIllegalTransition = workflowErrors.Register("ILLEGAL_TRANSITION", errx.TypeBusiness, 422, "Status transition is not allowed")
	ErrInvalidStatus     = workflowErrors.Register("INVALID_STATUS", errx.TypeValidation, 400, "Unknown workflow status")
)
