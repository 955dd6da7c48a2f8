package annotation

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/saiteja-tally/taggo/pkg/workflow"
)

// Record is one uploaded document moving through the review pipeline. The
// annotation payload itself lives in blob storage keyed by FileKey; the
// record carries only workflow state.
type Record struct {
	ID           string          `db:"id" json:"id"`
	Status       workflow.Status `db:"status" json:"status"`
	AssignedUser *string         `db:"assigned_user" json:"assigned_user,omitempty"`
	History      History         `db:"history" json:"history"`
	InsertedTime time.Time       `db:"inserted_time" json:"inserted_time"`
	FileKey      string          `db:"file_key" json:"file_key"`
}

// History is the append-only audit trail, one line per status change.
type History []string

// Append records a status change as "<ts>: <status> by <user>".
func (h History) Append(at time.Time, status workflow.Status, user string) History {
	line := fmt.Sprintf("%s: %s by %s", at.UTC().Format(time.RFC3339), status, user)
	return append(h, line)
}

// AppendWithNote records a status change carrying an explanation, such as a
// rejection reason.
func (h History) AppendWithNote(at time.Time, status workflow.Status, user, note string) History {
	if note == "" {
		return h.Append(at, status, user)
	}
	line := fmt.Sprintf("%s: %s by %s (%s)", at.UTC().Format(time.RFC3339), status, user, note)
	return append(h, line)
}

// Value implements driver.Valuer as a Postgres text array.
func (h History) Value() (driver.Value, error) {
	return pq.Array([]string(h)).Value()
}

// Scan implements sql.Scanner from a Postgres text array.
func (h *History) Scan(src interface{}) error {
	var lines pq.StringArray
	if err := lines.Scan(src); err != nil {
		return err
	}
	*h = History(lines)
	return nil
}

// DocumentKey is the storage key of the original uploaded file. The upload
// pipeline stores the source PDF and the extracted payload side by side under
// the record id.
func (r Record) DocumentKey() string {
	return r.ID + ".pdf"
}

// AssignedTo reports whether the record is assigned to the given user.
func (r Record) AssignedTo(user string) bool {
	return r.AssignedUser != nil && *r.AssignedUser == user
}

// Permissions derives what the record's current status allows.
func (r Record) Permissions() workflow.Permissions {
	return workflow.PermissionsFor(r.Status)
}
