package triage_test

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/errx"
	"github.com/saiteja-tally/taggo/pkg/geomx"
	"github.com/saiteja-tally/taggo/pkg/kernel"
	"github.com/saiteja-tally/taggo/pkg/ocrx"
	"github.com/saiteja-tally/taggo/pkg/triage"
	"github.com/saiteja-tally/taggo/pkg/workflow"
)

type fakeStore struct {
	records map[string]*annotation.Record
	docs    map[string]*annotation.Document
	queue   []string

	loadErr   error
	saveErr   error
	saveCalls int
	savedDoc  *annotation.Document
}

func (s *fakeStore) Load(ctx context.Context, id string) (*annotation.Record, *annotation.Document, error) {
	if s.loadErr != nil {
		return nil, nil, s.loadErr
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, nil, annotation.RecordNotLoaded()
	}
	cp := *rec
	return &cp, s.docs[id], nil
}

func (s *fakeStore) Save(ctx context.Context, actor kernel.Actor, rec *annotation.Record, doc *annotation.Document, target workflow.Status) (*annotation.Record, error) {
	s.saveCalls++
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.savedDoc = doc
	next := *rec
	next.Status = target
	next.History = next.History.Append(time.Now(), target, actor.Username)
	s.records[rec.ID] = &next
	s.docs[rec.ID] = doc
	cp := next
	return &cp, nil
}

func (s *fakeStore) Next(ctx context.Context, actor kernel.Actor, currentID string) (string, error) {
	for i, id := range s.queue {
		if id == currentID && i+1 < len(s.queue) {
			return s.queue[i+1], nil
		}
	}
	return "", nil
}

func (s *fakeStore) Prev(ctx context.Context, actor kernel.Actor, currentID string) (string, error) {
	for i, id := range s.queue {
		if id == currentID && i > 0 {
			return s.queue[i-1], nil
		}
	}
	return "", nil
}

type nullViewer struct{}

func (nullViewer) ShowPage(int)                  {}
func (nullViewer) Highlight(annotation.Location) {}
func (nullViewer) ClearHighlight()               {}

type pageSource struct{}

func (pageSource) Page(ctx context.Context, pageNo int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 600, 800)), nil
}

type scriptedRecognizer struct {
	text  string
	err   error
	calls int
}

func (r *scriptedRecognizer) Recognize(ctx context.Context, crop image.Image) (ocrx.Result, error) {
	r.calls++
	if r.err != nil {
		return ocrx.Result{}, r.err
	}
	return ocrx.Result{Text: r.text, Conf: 0.95}, nil
}

func storeWith(t *testing.T, status workflow.Status) *fakeStore {
	t.Helper()
	payload := `{
		"InvoiceDate": {"text": "", "location": {"pageNo": 0, "ltwh": [0, 0, 0, 0]}},
		"Table": [
			{"ItemName": {"text": "Widget", "location": {"pageNo": 0, "ltwh": [0, 0, 0, 0]}},
			 "ItemRate": {"text": "10.00", "location": {"pageNo": 0, "ltwh": [0, 0, 0, 0]}}}
		]
	}`
	var doc annotation.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &fakeStore{
		records: map[string]*annotation.Record{
			"doc-1": {ID: "doc-1", Status: status, FileKey: "doc-1.json", InsertedTime: time.Now()},
		},
		docs:  map[string]*annotation.Document{"doc-1": &doc},
		queue: []string{"doc-1"},
	}
}

func newSession(t *testing.T, store triage.Store, rec ocrx.Recognizer, actor kernel.Actor) *triage.Session {
	t.Helper()
	if rec == nil {
		rec = &scriptedRecognizer{text: "12/01/2024"}
	}
	dispatcher := ocrx.NewDispatcher(pageSource{}, rec, nil)
	return triage.NewSession(store, dispatcher, nullViewer{}, actor, nil)
}

var labeller = kernel.Actor{Username: "alice"}
var reviewer = kernel.Actor{Username: "bob", Reviewer: true}

func TestDrawRecognizePopulate(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	s := newSession(t, store, &scriptedRecognizer{text: "12/01/2024"}, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	s.Drawing.Arm("InvoiceDate")
	if err := s.BeginDraw(1, geomx.Point{X: 60, Y: 160}); err != nil {
		t.Fatalf("BeginDraw: %v", err)
	}
	s.MoveDraw(geomx.Point{X: 240, Y: 200})
	dims := geomx.PageDims{Width: 600, Height: 800}
	if err := s.FinishDraw(context.Background(), geomx.Point{X: 240, Y: 200}, dims, 1); err != nil {
		t.Fatalf("FinishDraw: %v", err)
	}

	v, err := s.Document().Value("InvoiceDate")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v.Text != "12/01/2024" {
		t.Fatalf("recognized text not populated, got %q", v.Text)
	}
	if v.Location.PageNo != 1 {
		t.Fatalf("location page not set: %+v", v.Location)
	}
	want := geomx.LTWH{0.1, 0.2, 0.3, 0.05}
	for i := range want {
		if diff := v.Location.LTWH[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("normalized box %v, want %v", v.Location.LTWH, want)
		}
	}
	if !s.Dirty() {
		t.Fatal("session must be dirty after a draw")
	}
}

func TestFinishDraw_PointClickCommitsBoxWithoutRecognition(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	rec := &scriptedRecognizer{text: "must not land"}
	s := newSession(t, store, rec, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	s.Drawing.Arm("InvoiceDate")
	if err := s.BeginDraw(1, geomx.Point{X: 120, Y: 80}); err != nil {
		t.Fatalf("BeginDraw: %v", err)
	}
	dims := geomx.PageDims{Width: 600, Height: 800}
	if err := s.FinishDraw(context.Background(), geomx.Point{X: 120, Y: 80}, dims, 1); err != nil {
		t.Fatalf("a zero-area drag is a legal commit: %v", err)
	}

	v, err := s.Document().Value("InvoiceDate")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v.Location.IsUnset() || v.Location.PageNo != 1 {
		t.Fatalf("degenerate box must be stored with its page, got %+v", v.Location)
	}
	want := geomx.LTWH{0.2, 0.1, 0, 0}
	for i := range want {
		if diff := v.Location.LTWH[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("normalized box %v, want %v", v.Location.LTWH, want)
		}
	}
	if rec.calls != 0 {
		t.Fatalf("zero-area crop must skip recognition, got %d calls", rec.calls)
	}
	if v.Text != "" {
		t.Fatalf("text must stay untouched, got %q", v.Text)
	}
	if !s.Dirty() {
		t.Fatal("session must be dirty after the commit")
	}
}

func TestFinishDraw_RecognitionFailureKeepsBox(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	s := newSession(t, store, &scriptedRecognizer{err: errors.New("service down")}, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetText("InvoiceDate", "typed by hand"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	s.Drawing.Arm("InvoiceDate")
	if err := s.BeginDraw(1, geomx.Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("BeginDraw: %v", err)
	}
	dims := geomx.PageDims{Width: 600, Height: 800}
	if err := s.FinishDraw(context.Background(), geomx.Point{X: 100, Y: 50}, dims, 1); err != nil {
		t.Fatalf("FinishDraw must not fail the edit: %v", err)
	}

	v, _ := s.Document().Value("InvoiceDate")
	if v.Location.IsUnset() {
		t.Fatal("box must be kept when recognition fails")
	}
	if v.Text != "typed by hand" {
		t.Fatalf("failed recognition must not clobber text, got %q", v.Text)
	}
}

func TestSave_RefusesCleanCopy(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	s := newSession(t, store, nil, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := s.Save(context.Background(), workflow.StatusLabelled)
	if err == nil {
		t.Fatal("saving with no edits must fail")
	}
	var e *errx.Error
	if !errors.As(err, &e) || e.Code != workflow.ErrNothingToSave.Code {
		t.Fatalf("expected nothing-to-save, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatal("store must not be touched")
	}
}

func TestSave_HappyPath(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	s := newSession(t, store, nil, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetText("InvoiceDate", "12/01/2024"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	if err := s.Save(context.Background(), workflow.StatusLabelled); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Fatal("session must be clean after save")
	}
	if s.Record().Status != workflow.StatusLabelled {
		t.Fatalf("record status %s", s.Record().Status)
	}
	if len(s.Record().History) != 1 {
		t.Fatalf("expected one history line, got %v", s.Record().History)
	}
}

func TestSave_FailurePreservesEdits(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	store.saveErr = errors.New("connection reset")
	s := newSession(t, store, nil, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetText("InvoiceDate", "12/01/2024"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	if err := s.Save(context.Background(), workflow.StatusLabelled); err == nil {
		t.Fatal("expected save failure")
	}
	if !s.Dirty() {
		t.Fatal("edits must survive a failed save")
	}
	v, _ := s.Document().Value("InvoiceDate")
	if v.Text != "12/01/2024" {
		t.Fatalf("edit lost: %+v", v)
	}
}

func TestReject_RequiresComment(t *testing.T) {
	store := storeWith(t, workflow.StatusLabelled)
	s := newSession(t, store, nil, reviewer)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := s.Reject(context.Background())
	var e *errx.Error
	if !errors.As(err, &e) || e.Code != workflow.ErrCommentRequired.Code {
		t.Fatalf("expected comment-required, got %v", err)
	}

	note := "date is wrong"
	if err := s.SetComment("InvoiceDate", &note); err != nil {
		t.Fatalf("SetComment: %v", err)
	}
	if err := s.Reject(context.Background()); err != nil {
		t.Fatalf("Reject with comment: %v", err)
	}
	if s.Record().Status != workflow.StatusRejected {
		t.Fatalf("status %s", s.Record().Status)
	}
}

func TestAccept_ReviewerOnly(t *testing.T) {
	store := storeWith(t, workflow.StatusLabelled)
	s := newSession(t, store, nil, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := s.Accept(context.Background())
	var e *errx.Error
	if !errors.As(err, &e) || e.Code != annotation.ErrReviewerOnly.Code {
		t.Fatalf("expected reviewer-only, got %v", err)
	}
}

func TestAccept_BlockedByPendingComments(t *testing.T) {
	store := storeWith(t, workflow.StatusLabelled)
	s := newSession(t, store, nil, reviewer)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	note := "needs a second look"
	if err := s.SetComment("Table", nil); err == nil {
		t.Fatal("comment on a tabular field by path must fail")
	}
	if err := s.UpdateCell("Table", 0, "ItemRate", annotation.CellPatch{Comment: &note}); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	err := s.Accept(context.Background())
	var e *errx.Error
	if !errors.As(err, &e) || e.Code != workflow.ErrCommentsPending.Code {
		t.Fatalf("expected comments-pending, got %v", err)
	}
}

func TestIllegalTransitionRefused(t *testing.T) {
	store := storeWith(t, workflow.StatusDone)
	s := newSession(t, store, nil, reviewer)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetText("InvoiceDate", "x"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	err := s.Save(context.Background(), workflow.StatusLabelled)
	var e *errx.Error
	if !errors.As(err, &e) || e.Code != workflow.ErrIllegalTransition.Code {
		t.Fatalf("expected illegal-transition, got %v", err)
	}
}

func TestDiscardRefetchesPersistedPayload(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	s := newSession(t, store, nil, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetText("InvoiceDate", "scratch"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	// Another save landed in the store since this session loaded.
	var latest annotation.Document
	if err := json.Unmarshal([]byte(`{"InvoiceDate": {"text": "03/03/2026", "location": {"pageNo": 0, "ltwh": [0, 0, 0, 0]}}}`), &latest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	store.docs["doc-1"] = &latest

	if err := s.Discard(context.Background()); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if s.Dirty() {
		t.Fatal("discard must clean the session")
	}
	v, _ := s.Document().Value("InvoiceDate")
	if v.Text != "03/03/2026" {
		t.Fatalf("discard must pick up the persisted payload, got %q", v.Text)
	}
}

func TestDiscard_FetchFailureKeepsEdits(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	s := newSession(t, store, nil, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetText("InvoiceDate", "scratch"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	store.loadErr = errors.New("connection reset")
	if err := s.Discard(context.Background()); err == nil {
		t.Fatal("expected the re-fetch to fail")
	}
	if !s.Dirty() {
		t.Fatal("edits must survive a failed discard")
	}
	v, _ := s.Document().Value("InvoiceDate")
	if v.Text != "scratch" {
		t.Fatalf("edit lost: %+v", v)
	}
}

func TestNavigationBlockedWhileDirty(t *testing.T) {
	store := storeWith(t, workflow.StatusUploaded)
	store.records["doc-2"] = &annotation.Record{ID: "doc-2", Status: workflow.StatusUploaded, FileKey: "doc-2.json"}
	store.docs["doc-2"] = annotation.NewDocument().Normalize()
	store.queue = []string{"doc-1", "doc-2"}

	s := newSession(t, store, nil, labeller)
	if err := s.Load(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetText("InvoiceDate", "x"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	err := s.NextRecord(context.Background())
	var e *errx.Error
	if !errors.As(err, &e) || e.Code != annotation.ErrUnsavedEdits.Code {
		t.Fatalf("expected unsaved-edits, got %v", err)
	}

	if err := s.Discard(context.Background()); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if err := s.NextRecord(context.Background()); err != nil {
		t.Fatalf("NextRecord: %v", err)
	}
	if s.Record().ID != "doc-2" {
		t.Fatalf("expected doc-2 loaded, got %s", s.Record().ID)
	}

	// End of queue keeps the current record.
	if err := s.NextRecord(context.Background()); err != nil {
		t.Fatalf("NextRecord at end: %v", err)
	}
	if s.Record().ID != "doc-2" {
		t.Fatalf("expected doc-2 to stay, got %s", s.Record().ID)
	}
}
