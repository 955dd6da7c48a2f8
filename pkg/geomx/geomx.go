// Package geomx converts between the pixel space of a rendered document page
// and the normalized [0,1] coordinate space annotations are stored in.
package geomx

// PageDims holds the intrinsic dimensions of a page at scale 1.
type PageDims struct {
	Width  float64
	Height float64
}

// Valid reports whether the page has finished rendering, i.e. both
// dimensions are known and positive.
func (d PageDims) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Point is a position in pixel space.
type Point struct {
	X float64
	Y float64
}

// PixelRect is an axis-aligned rectangle in pixel space.
type PixelRect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Degenerate reports whether the rectangle has zero area.
func (r PixelRect) Degenerate() bool {
	return r.Width == 0 || r.Height == 0
}

// RectFromPoints builds the rectangle spanned by two corner points,
// regardless of drag direction.
func RectFromPoints(a, b Point) PixelRect {
	return PixelRect{
		Left:   min(a.X, b.X),
		Top:    min(a.Y, b.Y),
		Width:  abs(a.X - b.X),
		Height: abs(a.Y - b.Y),
	}
}

// LTWH is a normalized rectangle: left, top, width, height as fractions of
// page width and height.
type LTWH [4]float64

// IsZero reports whether all four components are zero.
func (l LTWH) IsZero() bool {
	return l == LTWH{}
}

// PixelToNorm converts a pixel rectangle on a page rendered at the given
// scale into normalized coordinates. Values are not clamped to [0,1]: a drag
// past the page edge stores out-of-bounds fractions, matching what gets
// rendered back.
func PixelToNorm(r PixelRect, dims PageDims, scale float64) LTWH {
	return LTWH{
		r.Left / (dims.Width * scale),
		r.Top / (dims.Height * scale),
		r.Width / (dims.Width * scale),
		r.Height / (dims.Height * scale),
	}
}

// NormToPixel is the inverse of PixelToNorm. It positions the highlight
// overlay for a stored location on the rendered page.
func NormToPixel(l LTWH, dims PageDims, scale float64) PixelRect {
	return PixelRect{
		Left:   l[0] * dims.Width * scale,
		Top:    l[1] * dims.Height * scale,
		Width:  l[2] * dims.Width * scale,
		Height: l[3] * dims.Height * scale,
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func abs(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
