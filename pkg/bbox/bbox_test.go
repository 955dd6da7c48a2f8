package bbox_test

import (
	"errors"
	"testing"

	"github.com/saiteja-tally/taggo/pkg/bbox"
	"github.com/saiteja-tally/taggo/pkg/errx"
	"github.com/saiteja-tally/taggo/pkg/geomx"
)

func TestDrawLifecycle(t *testing.T) {
	c := bbox.NewController()
	c.Arm("InvoiceDate")

	if err := c.PointerDown(1, geomx.Point{X: 100, Y: 200}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	if c.State() != bbox.StateDrawing {
		t.Fatalf("expected drawing, got %v", c.State())
	}

	c.PointerMove(geomx.Point{X: 250, Y: 240})
	rect, ok := c.Rect()
	if !ok {
		t.Fatal("expected a live rectangle")
	}
	want := geomx.PixelRect{Left: 100, Top: 200, Width: 150, Height: 40}
	if rect != want {
		t.Fatalf("rubber band %+v, want %+v", rect, want)
	}

	commit, err := c.PointerUp(geomx.Point{X: 250, Y: 240})
	if err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	if commit.Path != "InvoiceDate" || commit.PageNo != 1 || commit.Rect != want {
		t.Fatalf("unexpected commit %+v", commit)
	}
	if c.State() != bbox.StateCommitting {
		t.Fatalf("expected committing, got %v", c.State())
	}

	c.Resolve()
	if c.State() != bbox.StateIdle || c.Armed() != "" {
		t.Fatalf("expected idle and disarmed after resolve, got %v armed=%q", c.State(), c.Armed())
	}
}

func TestPointerDown_RequiresArming(t *testing.T) {
	c := bbox.NewController()
	err := c.PointerDown(1, geomx.Point{X: 1, Y: 1})
	if err == nil {
		t.Fatal("expected error while disarmed")
	}
	var e *errx.Error
	if !errors.As(err, &e) || e.Code != bbox.ErrNotArmed.Code {
		t.Fatalf("expected not-armed error, got %v", err)
	}
}

func TestReverseDragNormalizes(t *testing.T) {
	c := bbox.NewController()
	c.Arm("TotalAmount")

	if err := c.PointerDown(2, geomx.Point{X: 300, Y: 400}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	commit, err := c.PointerUp(geomx.Point{X: 100, Y: 350})
	if err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	want := geomx.PixelRect{Left: 100, Top: 350, Width: 200, Height: 50}
	if commit.Rect != want {
		t.Fatalf("reverse drag rect %+v, want %+v", commit.Rect, want)
	}
}

func TestDegenerateDragCommits(t *testing.T) {
	c := bbox.NewController()
	c.Arm("InvoiceNumber")

	if err := c.PointerDown(1, geomx.Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	commit, err := c.PointerUp(geomx.Point{X: 50, Y: 90})
	if err != nil {
		t.Fatalf("zero-width drag must still commit: %v", err)
	}
	if !commit.Rect.Degenerate() {
		t.Fatalf("expected a degenerate rect, got %+v", commit.Rect)
	}
	if commit.Path != "InvoiceNumber" || commit.PageNo != 1 {
		t.Fatalf("unexpected commit %+v", commit)
	}
	if c.State() != bbox.StateCommitting {
		t.Fatalf("expected committing, got %v", c.State())
	}
}

func TestCommittingBlocksNewDrags(t *testing.T) {
	c := bbox.NewController()
	c.Arm("InvoiceDate")
	if err := c.PointerDown(1, geomx.Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	if _, err := c.PointerUp(geomx.Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("PointerUp: %v", err)
	}

	if err := c.PointerDown(1, geomx.Point{X: 5, Y: 5}); err == nil {
		t.Fatal("new drag must be refused while committing")
	}

	c.Arm("Other")
	if c.Armed() != "InvoiceDate" {
		t.Fatalf("re-arming mid-commit must be refused, got %q", c.Armed())
	}
}

func TestRearmingCancelsLiveDrag(t *testing.T) {
	c := bbox.NewController()
	c.Arm("InvoiceDate")
	if err := c.PointerDown(1, geomx.Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}

	c.Arm("TotalAmount")
	if c.State() != bbox.StateIdle {
		t.Fatalf("re-arming should cancel the drag, got %v", c.State())
	}
	if _, ok := c.Rect(); ok {
		t.Fatal("no rubber band after cancel")
	}
}
