// Package annotationsrv holds the application service for annotation
// records: loading and saving payloads, moving records through the review
// pipeline and walking the work queue.
package annotationsrv

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/kernel"
	"github.com/saiteja-tally/taggo/pkg/logx"
	"github.com/saiteja-tally/taggo/pkg/ptrx"
	"github.com/saiteja-tally/taggo/pkg/workflow"
)

// Service orchestrates the annotation ports. It implements the session's
// Store.
type Service struct {
	repo   annotation.RecordRepository
	blobs  annotation.BlobStore
	drafts annotation.DraftStore
	clock  func() time.Time
	log    *logx.Logger
}

// New builds the service. drafts may be nil when no draft cache is deployed.
func New(repo annotation.RecordRepository, blobs annotation.BlobStore, drafts annotation.DraftStore, log *logx.Logger) *Service {
	if log == nil {
		log = logx.GetDefaultLogger()
	}
	return &Service{repo: repo, blobs: blobs, drafts: drafts, clock: time.Now, log: log}
}

// WithClock overrides the clock, for history timestamps in tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Record fetches a record without its payload.
func (s *Service) Record(ctx context.Context, id string) (*annotation.Record, error) {
	return s.repo.Get(ctx, id)
}

// Load fetches a record and its payload. Records that have never been saved
// by a human read their payload from the uploaded bucket; afterwards the
// payload lives in the bucket of the record's own status. The payload is
// vocabulary normalized before it is returned.
func (s *Service) Load(ctx context.Context, id string) (*annotation.Record, *annotation.Document, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	doc, err := s.blobs.GetJSON(ctx, payloadStatus(rec.Status), rec.FileKey)
	if err != nil {
		return nil, nil, err
	}
	return rec, doc.Normalize(), nil
}

// payloadStatus maps a record status to the bucket its payload is read from.
// Pre-labelled records still read the model output from the uploaded bucket;
// every later status has had a save write into its own bucket.
func payloadStatus(st workflow.Status) workflow.Status {
	switch st {
	case workflow.StatusUploaded, workflow.StatusPreLabelled:
		return workflow.StatusUploaded
	default:
		return st
	}
}

// Save validates and persists a payload, moving the record to the target
// status. The payload is written to the target's bucket before the record row
// changes, so a crash in between leaves the record re-loadable from its old
// status. The updated record is returned; the caller's copy is untouched.
func (s *Service) Save(ctx context.Context, actor kernel.Actor, rec *annotation.Record, doc *annotation.Document, target workflow.Status) (*annotation.Record, error) {
	return s.save(ctx, actor, rec, doc, target, "")
}

func (s *Service) save(ctx context.Context, actor kernel.Actor, rec *annotation.Record, doc *annotation.Document, target workflow.Status, note string) (*annotation.Record, error) {
	if !actor.IsValid() {
		return nil, annotation.ReviewerRequired().WithDetail("reason", "missing actor")
	}
	if reviewTarget(target) && !actor.CanReview() {
		return nil, annotation.ReviewerRequired()
	}
	if err := workflow.ValidateSave(doc, target); err != nil {
		return nil, err
	}
	if err := workflow.ValidateTransition(rec.Status, target); err != nil {
		return nil, err
	}

	if err := s.blobs.PutJSON(ctx, target, rec.FileKey, doc); err != nil {
		return nil, err
	}

	next := *rec
	next.Status = target
	next.History = next.History.AppendWithNote(s.clock(), target, actor.Username, note)
	if err := s.repo.UpdateStatus(ctx, next.ID, next.Status, next.History); err != nil {
		return nil, err
	}

	// A finished review releases the record from its assignee's queue.
	if (target == workflow.StatusAccepted || target == workflow.StatusDone) && next.AssignedUser != nil {
		if err := s.repo.Assign(ctx, next.ID, nil); err != nil {
			return nil, err
		}
		next.AssignedUser = nil
	}

	if s.drafts != nil {
		if err := s.drafts.DropDraft(ctx, next.ID); err != nil {
			s.log.WithError(err).WithField("record", next.ID).Warn("stale draft left behind")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"record": next.ID,
		"status": next.Status.String(),
		"by":     actor.Username,
	}).Info("annotation saved")
	return &next, nil
}

func reviewTarget(st workflow.Status) bool {
	return st == workflow.StatusAccepted || st == workflow.StatusRejected || st == workflow.StatusDone
}

// Accept moves a labelled or in-review record to accepted. Reviewer only.
func (s *Service) Accept(ctx context.Context, actor kernel.Actor, id string) (*annotation.Record, error) {
	return s.transition(ctx, actor, id, workflow.StatusAccepted, "")
}

// Reject moves a record to rejected, recording the reason in the history.
// Reviewer only; the comment gate demands at least one review note in the
// payload.
func (s *Service) Reject(ctx context.Context, actor kernel.Actor, id, reason string) (*annotation.Record, error) {
	return s.transition(ctx, actor, id, workflow.StatusRejected, reason)
}

// Finalize moves an accepted record to done. Reviewer only.
func (s *Service) Finalize(ctx context.Context, actor kernel.Actor, id string) (*annotation.Record, error) {
	return s.transition(ctx, actor, id, workflow.StatusDone, "")
}

func (s *Service) transition(ctx context.Context, actor kernel.Actor, id string, target workflow.Status, note string) (*annotation.Record, error) {
	rec, doc, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, actor, rec, doc, target, note)
}

// Assign hands a record to a user, or unassigns it when user is nil.
// Reviewer only.
func (s *Service) Assign(ctx context.Context, actor kernel.Actor, id string, user *string) error {
	if !actor.CanReview() {
		return annotation.ReviewerRequired()
	}
	if err := s.repo.Assign(ctx, id, user); err != nil {
		return err
	}
	who := ptrx.ValueOr(user, "nobody")
	s.log.WithFields(map[string]interface{}{
		"record":   id,
		"assignee": who,
		"by":       actor.Username,
	}).Info("record assigned")
	return nil
}

// Next returns the id of the next record in the queue, "" at the end.
// Non-reviewers only walk their own assignments.
func (s *Service) Next(ctx context.Context, actor kernel.Actor, currentID string) (string, error) {
	return s.step(ctx, actor, currentID, s.repo.Next)
}

// Prev returns the id of the previous record in the queue, "" at the start.
func (s *Service) Prev(ctx context.Context, actor kernel.Actor, currentID string) (string, error) {
	return s.step(ctx, actor, currentID, s.repo.Prev)
}

type stepFunc func(ctx context.Context, from *annotation.Record, assignee *string) (*annotation.Record, error)

func (s *Service) step(ctx context.Context, actor kernel.Actor, currentID string, step stepFunc) (string, error) {
	current, err := s.repo.Get(ctx, currentID)
	if err != nil {
		return "", err
	}
	var assignee *string
	if !actor.CanReview() {
		assignee = &actor.Username
	}
	next, err := step(ctx, current, assignee)
	if err != nil {
		return "", err
	}
	if next == nil {
		return "", nil
	}
	return next.ID, nil
}

// Ingest registers a new uploaded document: the source file and its initial
// payload land in the uploaded bucket under a fresh record id, and the record
// enters the queue as uploaded. A nil doc starts from the bare vocabulary.
func (s *Service) Ingest(ctx context.Context, actor kernel.Actor, pdf io.Reader, doc *annotation.Document) (*annotation.Record, error) {
	if !actor.IsValid() {
		return nil, annotation.ReviewerRequired().WithDetail("reason", "missing actor")
	}
	if doc == nil {
		doc = annotation.NewDocument()
	}
	doc = doc.Normalize()

	rec := &annotation.Record{
		ID:           uuid.NewString(),
		Status:       workflow.StatusUploaded,
		InsertedTime: s.clock(),
	}
	rec.FileKey = rec.ID + ".json"
	rec.History = rec.History.Append(s.clock(), workflow.StatusUploaded, actor.Username)

	if err := s.blobs.PutObject(ctx, workflow.StatusUploaded, rec.DocumentKey(), pdf, "application/pdf"); err != nil {
		return nil, err
	}
	if err := s.blobs.PutJSON(ctx, workflow.StatusUploaded, rec.FileKey, doc); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"record": rec.ID,
		"by":     actor.Username,
	}).Info("document ingested")
	return rec, nil
}

// SaveDraft caches an in-progress working copy.
func (s *Service) SaveDraft(ctx context.Context, id string, doc *annotation.Document) error {
	if s.drafts == nil {
		return nil
	}
	return s.drafts.SaveDraft(ctx, id, doc)
}

// LoadDraft returns a cached working copy, or nil when none exists.
func (s *Service) LoadDraft(ctx context.Context, id string) (*annotation.Document, error) {
	if s.drafts == nil {
		return nil, nil
	}
	return s.drafts.LoadDraft(ctx, id)
}
