// Package triage is the interactive correction session: one loaded record,
// its working annotation copy, the selection and drawing state, and the save
// gate that decides when edits may move the record through the pipeline.
package triage

import (
	"context"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/bbox"
	"github.com/saiteja-tally/taggo/pkg/geomx"
	"github.com/saiteja-tally/taggo/pkg/kernel"
	"github.com/saiteja-tally/taggo/pkg/logx"
	"github.com/saiteja-tally/taggo/pkg/ocrx"
	"github.com/saiteja-tally/taggo/pkg/selection"
	"github.com/saiteja-tally/taggo/pkg/workflow"
)

// Store is the persistence the session runs against.
type Store interface {
	// Load returns the record and its annotation payload, vocabulary
	// normalized.
	Load(ctx context.Context, id string) (*annotation.Record, *annotation.Document, error)
	// Save persists the payload and moves the record to the target status.
	Save(ctx context.Context, actor kernel.Actor, rec *annotation.Record, doc *annotation.Document, target workflow.Status) (*annotation.Record, error)
	// Next and Prev return the id of the neighbouring record in the queue,
	// or "" at either end.
	Next(ctx context.Context, actor kernel.Actor, currentID string) (string, error)
	Prev(ctx context.Context, actor kernel.Actor, currentID string) (string, error)
}

// Session drives one user's work on one record. It is not safe for concurrent
// use.
type Session struct {
	store      Store
	dispatcher *ocrx.Dispatcher
	actor      kernel.Actor
	log        *logx.Logger

	Router  *selection.Router
	Drawing *bbox.Controller

	record      *annotation.Record
	working     *annotation.Document
	dataChanged bool
}

// NewSession builds a session for an actor. The viewer is supplied by the
// caller; the drawing controller and selection router are owned here.
func NewSession(store Store, dispatcher *ocrx.Dispatcher, viewer selection.Viewer, actor kernel.Actor, log *logx.Logger) *Session {
	if log == nil {
		log = logx.GetDefaultLogger()
	}
	s := &Session{
		store:      store,
		dispatcher: dispatcher,
		actor:      actor,
		log:        log,
		Drawing:    bbox.NewController(),
	}
	s.Router = selection.NewRouter(viewer, s.Drawing, s.lookup, s.ClearLocation, log)
	return s
}

func (s *Session) lookup(t selection.Target) (annotation.FieldValue, bool) {
	if s.working == nil {
		return annotation.FieldValue{}, false
	}
	var (
		v   annotation.FieldValue
		err error
	)
	if t.Cell() {
		v, err = s.working.Cell(t.Field, t.Row, t.Column)
	} else {
		v, err = s.working.Value(t.Field)
	}
	if err != nil {
		return annotation.FieldValue{}, false
	}
	return v, true
}

// Load fetches a record and resets the session around it.
func (s *Session) Load(ctx context.Context, id string) error {
	rec, doc, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	s.record = rec
	s.working = doc
	s.dataChanged = false
	s.Router.Clear()
	s.dispatcher.Invalidate()
	s.log.WithFields(map[string]interface{}{
		"record": rec.ID,
		"status": rec.Status.String(),
	}).Info("record loaded")
	return nil
}

// Record returns the loaded record, or nil.
func (s *Session) Record() *annotation.Record { return s.record }

// Document returns the working annotation copy, or nil.
func (s *Session) Document() *annotation.Document { return s.working }

// Dirty reports whether the working copy has unsaved edits.
func (s *Session) Dirty() bool { return s.dataChanged }

// Permissions derives the action permissions of the loaded record. Review
// actions additionally require a reviewer actor; that check happens on save.
func (s *Session) Permissions() workflow.Permissions {
	if s.record == nil {
		return workflow.Permissions{}
	}
	return s.record.Permissions()
}

// apply installs an edited copy of the working document, marking the session
// dirty and fencing off any in-flight recognition.
func (s *Session) apply(doc *annotation.Document, err error) error {
	if err != nil {
		return err
	}
	s.working = doc
	s.dataChanged = true
	s.dispatcher.Invalidate()
	return nil
}

// SetText edits the text of a field.
func (s *Session) SetText(path, text string) error {
	return s.apply(s.working.SetText(path, text))
}

// ClearLocation drops a field's bounding box, keeping its text.
func (s *Session) ClearLocation(path string) error {
	return s.apply(s.working.SetLocation(path, nil))
}

// SetComment attaches or clears a review comment on a field.
func (s *Session) SetComment(path string, comment *string) error {
	return s.apply(s.working.SetComment(path, comment))
}

// UpdateCell patches one table cell.
func (s *Session) UpdateCell(table string, row int, col string, patch annotation.CellPatch) error {
	return s.apply(s.working.UpdateCell(table, row, col, patch))
}

// AddRow appends a blank row to a table.
func (s *Session) AddRow(table string) error {
	return s.apply(s.working.AddRow(table))
}

// DeleteRow removes a table row.
func (s *Session) DeleteRow(table string, row int) error {
	return s.apply(s.working.DeleteRow(table, row))
}

// BeginDraw starts an armed drag on a page.
func (s *Session) BeginDraw(pageNo int, at geomx.Point) error {
	return s.Drawing.PointerDown(pageNo, at)
}

// MoveDraw updates the live rubber band.
func (s *Session) MoveDraw(at geomx.Point) {
	s.Drawing.PointerMove(at)
}

// FinishDraw ends the drag: the drawn box becomes the field's location at
// once, then the crop goes through recognition and, if the document has not
// changed in the meantime, the recognized text replaces the field's text.
// A zero-area box commits like any other but skips recognition. Recognition
// never touches the location, and a stale or failed recognition leaves the
// typed text alone.
func (s *Session) FinishDraw(ctx context.Context, at geomx.Point, dims geomx.PageDims, scale float64) error {
	commit, err := s.Drawing.PointerUp(at)
	if err != nil {
		return err
	}
	defer s.Drawing.Resolve()

	loc := annotation.Location{
		PageNo: commit.PageNo,
		LTWH:   geomx.PixelToNorm(commit.Rect, dims, scale),
	}
	if err := s.apply(s.working.SetLocation(commit.Path, &loc)); err != nil {
		return err
	}
	if commit.Rect.Degenerate() {
		return nil
	}

	res, err := s.dispatcher.Dispatch(ctx, commit.PageNo, commit.Rect)
	if err != nil {
		s.log.WithError(err).WithField("path", commit.Path).Warn("recognition skipped, box kept")
		return nil
	}
	return s.apply(s.working.SetText(commit.Path, res.Text))
}

// Save persists the working copy toward a target status. It refuses a clean
// working copy, enforces the comment gate for the target, and requires a
// reviewer for review statuses. A failed save keeps every edit in place.
func (s *Session) Save(ctx context.Context, target workflow.Status) error {
	if !s.dataChanged {
		return workflow.NothingToSave()
	}
	return s.finish(ctx, target)
}

// Accept moves the record to accepted without requiring edits.
func (s *Session) Accept(ctx context.Context) error {
	return s.finish(ctx, workflow.StatusAccepted)
}

// Reject moves the record to rejected; the comment gate demands at least one
// review note explaining why.
func (s *Session) Reject(ctx context.Context) error {
	return s.finish(ctx, workflow.StatusRejected)
}

// SubmitForReview hands labelled work to the review queue.
func (s *Session) SubmitForReview(ctx context.Context) error {
	return s.finish(ctx, workflow.StatusInReview)
}

func (s *Session) finish(ctx context.Context, target workflow.Status) error {
	if s.record == nil {
		return annotation.RecordNotLoaded()
	}
	if reviewTarget(target) && !s.actor.CanReview() {
		return annotation.ReviewerRequired()
	}
	if err := workflow.ValidateSave(s.working, target); err != nil {
		return err
	}
	if err := workflow.ValidateTransition(s.record.Status, target); err != nil {
		return err
	}

	rec, err := s.store.Save(ctx, s.actor, s.record, s.working, target)
	if err != nil {
		return err
	}
	s.record = rec
	s.dataChanged = false
	s.log.WithFields(map[string]interface{}{
		"record": rec.ID,
		"status": rec.Status.String(),
	}).Info("record saved")
	return nil
}

// reviewTarget reports whether a status may only be reached by a reviewer.
func reviewTarget(s workflow.Status) bool {
	return s == workflow.StatusAccepted || s == workflow.StatusRejected || s == workflow.StatusDone
}

// Discard drops every unsaved edit by re-fetching the persisted payload, so
// a save that landed elsewhere since the load is picked up too. A failed
// fetch leaves the session untouched, edits included.
func (s *Session) Discard(ctx context.Context) error {
	if s.record == nil {
		return annotation.RecordNotLoaded()
	}
	return s.Load(ctx, s.record.ID)
}

// NextRecord loads the next record in the queue, refusing to walk away from
// unsaved edits. At the end of the queue the current record stays loaded.
func (s *Session) NextRecord(ctx context.Context) error {
	return s.navigate(ctx, s.store.Next)
}

// PrevRecord loads the previous record in the queue.
func (s *Session) PrevRecord(ctx context.Context) error {
	return s.navigate(ctx, s.store.Prev)
}

func (s *Session) navigate(ctx context.Context, step func(context.Context, kernel.Actor, string) (string, error)) error {
	if s.record == nil {
		return annotation.RecordNotLoaded()
	}
	if s.dataChanged {
		return annotation.UnsavedEdits()
	}
	id, err := step(ctx, s.actor, s.record.ID)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	return s.Load(ctx, id)
}
