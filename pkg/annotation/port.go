package annotation

import (
	"context"
	"io"

	"github.com/saiteja-tally/taggo/pkg/workflow"
)

// RecordRepository persists workflow records.
type RecordRepository interface {
	Get(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, rec *Record) error
	UpdateStatus(ctx context.Context, id string, status workflow.Status, history History) error
	Assign(ctx context.Context, id string, user *string) error

	// Next and Prev walk the queue by insertion time. A non-nil assignee
	// restricts the walk to that user's records.
	Next(ctx context.Context, after *Record, assignee *string) (*Record, error)
	Prev(ctx context.Context, before *Record, assignee *string) (*Record, error)
}

// BlobStore persists annotation payloads and page images, bucketed by
// workflow status.
type BlobStore interface {
	GetJSON(ctx context.Context, status workflow.Status, key string) (*Document, error)
	PutJSON(ctx context.Context, status workflow.Status, key string, doc *Document) error
	GetObject(ctx context.Context, status workflow.Status, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, status workflow.Status, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, status workflow.Status, key string) error
}

// DraftStore holds in-progress working copies so a crashed session can
// resume. Entries expire on their own.
type DraftStore interface {
	SaveDraft(ctx context.Context, id string, doc *Document) error
	LoadDraft(ctx context.Context, id string) (*Document, error)
	DropDraft(ctx context.Context, id string) error
}
