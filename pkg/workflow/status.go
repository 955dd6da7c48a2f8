// Package workflow governs the document review pipeline: which status a
// document is in, which actions each status permits, and which status
// transitions are legal.
package workflow

import "fmt"

// Status is a document's position in the labelling and review pipeline.
//
// This is the canonical vocabulary. An older deployment collapsed the
// pipeline to uploaded/pre-labelled -> labelled -> accepted/rejected; records
// from it map in-review to labelled and done to accepted on ingest.
type Status string

const (
	StatusUploaded    Status = "uploaded"
	StatusPreLabelled Status = "pre-labelled"
	StatusLabelled    Status = "labelled"
	StatusInReview    Status = "in-review"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusDone        Status = "done"
)

func (s Status) String() string { return string(s) }

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusPreLabelled, StatusLabelled, StatusInReview,
		StatusAccepted, StatusRejected, StatusDone:
		return true
	}
	return false
}

// Parse parses a status string.
func Parse(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown workflow status %q", s)
	}
	return st, nil
}

// Permissions describes which classes of action a status allows. Buttons and
// shortcuts derive from these two flags, never from status comparisons of
// their own.
type Permissions struct {
	AllowLabelling bool
	AllowReview    bool
}

// PermissionsFor derives the action permissions for a status.
func PermissionsFor(s Status) Permissions {
	switch s {
	case StatusUploaded, StatusPreLabelled, StatusRejected:
		return Permissions{AllowLabelling: true}
	case StatusLabelled, StatusInReview, StatusAccepted, StatusDone:
		return Permissions{AllowReview: true}
	default:
		return Permissions{}
	}
}

// transitions lists the legal forward edges of the pipeline.
var transitions = map[Status][]Status{
	StatusUploaded:    {StatusPreLabelled, StatusLabelled},
	StatusPreLabelled: {StatusLabelled},
	StatusLabelled:    {StatusInReview, StatusAccepted, StatusRejected},
	StatusInReview:    {StatusAccepted, StatusRejected},
	StatusRejected:    {StatusLabelled},
	StatusAccepted:    {StatusDone},
	StatusDone:        nil,
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
