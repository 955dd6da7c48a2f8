// Package bbox is the bounding-box drawing tool: an armed pointer drag over a
// page image yields one pixel rectangle, handed off for cropping and
// recognition while the tool waits for the result.
package bbox

import (
	"github.com/saiteja-tally/taggo/pkg/errx"
	"github.com/saiteja-tally/taggo/pkg/geomx"
)

// State is the drawing tool's phase.
type State int

const (
	// StateIdle means no drag is in progress.
	StateIdle State = iota
	// StateDrawing means the pointer is down and the rubber band is live.
	StateDrawing
	// StateCommitting means a rectangle has been handed off and the tool
	// refuses new drags until the result is resolved.
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateCommitting:
		return "committing"
	}
	return "unknown"
}

var bboxErrors = errx.NewRegistry("BBOX")

var (
	ErrNotArmed = bboxErrors.Register("NOT_ARMED", errx.TypeBusiness, 409, "No field is waiting for a bounding box")
	ErrBadPhase = bboxErrors.Register("BAD_PHASE", errx.TypeInternal, 500, "Pointer event does not match the drawing phase")
)

// Controller runs the draw state machine for one page viewer. It is not safe
// for concurrent use; the session serializes pointer events.
type Controller struct {
	state  State
	armed  string
	pageNo int
	anchor geomx.Point
	cursor geomx.Point
}

// NewController returns an idle, disarmed controller.
func NewController() *Controller {
	return &Controller{}
}

// State returns the current phase.
func (c *Controller) State() State { return c.state }

// Armed returns the field path waiting for a box, or "".
func (c *Controller) Armed() string { return c.armed }

// Arm marks a field path as waiting for the next drag. Re-arming while a drag
// is live cancels the drag; re-arming while committing is refused so a stale
// result cannot land on the wrong field.
func (c *Controller) Arm(path string) {
	if c.state == StateCommitting {
		return
	}
	c.armed = path
	c.state = StateIdle
}

// Disarm clears the pending field and cancels any live drag. A committing
// hand-off is left to resolve on its own.
func (c *Controller) Disarm() {
	if c.state == StateCommitting {
		return
	}
	c.armed = ""
	c.state = StateIdle
}

// PointerDown starts a drag at the given pixel position on a page. Presses
// while disarmed or mid-commit are ignored and reported.
func (c *Controller) PointerDown(pageNo int, at geomx.Point) error {
	if c.armed == "" {
		return bboxErrors.New(ErrNotArmed)
	}
	if c.state != StateIdle {
		return bboxErrors.New(ErrBadPhase).WithDetail("state", c.state.String())
	}
	c.state = StateDrawing
	c.pageNo = pageNo
	c.anchor = at
	c.cursor = at
	return nil
}

// PointerMove updates the live corner of the rubber band. Moves outside a
// drag are ignored.
func (c *Controller) PointerMove(at geomx.Point) {
	if c.state != StateDrawing {
		return
	}
	c.cursor = at
}

// Rect returns the rubber-band rectangle of the live drag. Drags in any
// direction yield the same normalized rectangle.
func (c *Controller) Rect() (geomx.PixelRect, bool) {
	if c.state != StateDrawing {
		return geomx.PixelRect{}, false
	}
	return geomx.RectFromPoints(c.anchor, c.cursor), true
}

// Commit describes a finished drag handed off for recognition.
type Commit struct {
	Path   string
	PageNo int
	Rect   geomx.PixelRect
}

// PointerUp ends the drag, moving the tool to committing and returning the
// rectangle for hand-off. Degenerate rectangles commit like any other; only
// the recognition crop skips them downstream.
func (c *Controller) PointerUp(at geomx.Point) (Commit, error) {
	if c.state != StateDrawing {
		return Commit{}, bboxErrors.New(ErrBadPhase).WithDetail("state", c.state.String())
	}
	c.cursor = at
	c.state = StateCommitting
	return Commit{Path: c.armed, PageNo: c.pageNo, Rect: geomx.RectFromPoints(c.anchor, c.cursor)}, nil
}

// Resolve ends the committing phase once the recognition result has been
// applied or abandoned. The tool disarms; a new selection must re-arm it.
func (c *Controller) Resolve() {
	c.state = StateIdle
	c.armed = ""
}
