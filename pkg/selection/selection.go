// Package selection routes field activation between the field list and the
// page viewer: clicking a field with a known region jumps the viewer there,
// clicking one without a region arms the drawing tool instead.
package selection

import (
	"strconv"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/logx"
)

// Target identifies what is selected. Row is meaningful only when Column is
// non-empty.
type Target struct {
	Field  string
	Row    int
	Column string
}

// Cell reports whether the target addresses a table cell.
func (t Target) Cell() bool { return t.Column != "" }

// Path renders the target as a dotted field path.
func (t Target) Path() string {
	if !t.Cell() {
		return t.Field
	}
	return t.Field + "[" + strconv.Itoa(t.Row) + "]." + t.Column
}

// Viewer is the page display the router drives.
type Viewer interface {
	ShowPage(pageNo int)
	Highlight(loc annotation.Location)
	ClearHighlight()
}

// Armer arms the bounding-box tool for a field path.
type Armer interface {
	Arm(path string)
	Disarm()
}

// Lookup resolves a target to its current value in the working document.
type Lookup func(t Target) (annotation.FieldValue, bool)

// ClearRegion drops the stored bounding box of a field, keeping its text.
type ClearRegion func(path string) error

// Router tracks the active selection and drives the viewer and the drawing
// tool in response. It is not safe for concurrent use; the session serializes
// access.
type Router struct {
	viewer Viewer
	armer  Armer
	lookup Lookup
	clear  ClearRegion
	log    *logx.Logger

	current      *Target
	inputFocused bool
}

// NewRouter builds a router over the given viewer and drawing tool.
func NewRouter(viewer Viewer, armer Armer, lookup Lookup, clear ClearRegion, log *logx.Logger) *Router {
	if log == nil {
		log = logx.GetDefaultLogger()
	}
	return &Router{viewer: viewer, armer: armer, lookup: lookup, clear: clear, log: log}
}

// Current returns the active selection, or nil.
func (r *Router) Current() *Target {
	if r.current == nil {
		return nil
	}
	t := *r.current
	return &t
}

// Select activates a target. A target with a known region jumps the viewer to
// its page and highlights it; one without a region arms the drawing tool so
// the next drag supplies the box.
func (r *Router) Select(t Target) {
	r.current = &t

	v, ok := r.lookup(t)
	if ok && !v.Location.IsUnset() {
		r.armer.Disarm()
		r.viewer.ShowPage(v.Location.PageNo)
		r.viewer.Highlight(v.Location)
		return
	}
	r.viewer.ClearHighlight()
	r.armer.Arm(t.Path())
	r.log.WithField("path", t.Path()).Debug("armed drawing for field without region")
}

// Clear drops the selection, the highlight and any armed drawing.
func (r *Router) Clear() {
	r.current = nil
	r.viewer.ClearHighlight()
	r.armer.Disarm()
}

// ChangeView is called when the user switches document view or page set; any
// selection from the previous view is meaningless there.
func (r *Router) ChangeView() {
	r.Clear()
}

// SetInputFocus tracks whether a text input owns the keyboard. Shortcuts are
// suppressed while typing.
func (r *Router) SetInputFocus(focused bool) {
	r.inputFocused = focused
}

// Key names the shortcuts the router understands.
type Key int

const (
	KeyNone Key = iota
	KeyEscape
	KeyRedraw
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// HandleKey applies a keyboard shortcut against the active selection. It
// reports whether the key was consumed.
func (r *Router) HandleKey(k Key) bool {
	if r.inputFocused {
		return false
	}
	switch k {
	case KeyEscape:
		if r.current == nil {
			return false
		}
		r.Clear()
		return true
	case KeyRedraw:
		if r.current == nil {
			return false
		}
		// Drawing is only legal for a field without a stored region, so
		// redrawing drops the old region first.
		path := r.current.Path()
		if v, ok := r.lookup(*r.current); ok && !v.Location.IsUnset() {
			if err := r.clear(path); err != nil {
				r.log.WithError(err).WithField("path", path).Warn("stored region kept, redraw ignored")
				return true
			}
		}
		r.viewer.ClearHighlight()
		r.armer.Arm(path)
		return true
	}
	return false
}

// Navigate moves a cell selection with the arrow keys: up and down clamp the
// row to the table, left and right walk the visible columns. Non-cell
// selections and unknown keys are not consumed.
func (r *Router) Navigate(k Key, rowCount int, visibleCols []string) bool {
	if r.inputFocused || r.current == nil || !r.current.Cell() {
		return false
	}
	if rowCount <= 0 || len(visibleCols) == 0 {
		return false
	}

	next := *r.current
	switch k {
	case KeyUp:
		if next.Row > 0 {
			next.Row--
		}
	case KeyDown:
		if next.Row < rowCount-1 {
			next.Row++
		}
	case KeyLeft, KeyRight:
		i := indexOf(visibleCols, next.Column)
		if i < 0 {
			i = 0
		} else if k == KeyLeft && i > 0 {
			i--
		} else if k == KeyRight && i < len(visibleCols)-1 {
			i++
		}
		next.Column = visibleCols[i]
	default:
		return false
	}

	if next.Row >= rowCount {
		next.Row = rowCount - 1
	}
	r.Select(next)
	return true
}

func indexOf(cols []string, col string) int {
	for i, c := range cols {
		if c == col {
			return i
		}
	}
	return -1
}
