package geomx_test

import (
	"math"
	"testing"

	"github.com/saiteja-tally/taggo/pkg/geomx"
)

const tolerance = 1e-9

func rectsClose(a, b geomx.PixelRect) bool {
	return math.Abs(a.Left-b.Left) < tolerance &&
		math.Abs(a.Top-b.Top) < tolerance &&
		math.Abs(a.Width-b.Width) < tolerance &&
		math.Abs(a.Height-b.Height) < tolerance
}

func TestPixelToNorm(t *testing.T) {
	dims := geomx.PageDims{Width: 600, Height: 800}
	r := geomx.PixelRect{Left: 60, Top: 160, Width: 180, Height: 40}

	got := geomx.PixelToNorm(r, dims, 1)
	want := geomx.LTWH{0.1, 0.2, 0.3, 0.05}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Fatalf("component %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPixelToNormHonorsScale(t *testing.T) {
	dims := geomx.PageDims{Width: 600, Height: 800}
	r := geomx.PixelRect{Left: 120, Top: 320, Width: 360, Height: 80}

	// The same on-page region drawn at 2x zoom covers twice the pixels.
	got := geomx.PixelToNorm(r, dims, 2)
	want := geomx.LTWH{0.1, 0.2, 0.3, 0.05}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Fatalf("component %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		rect  geomx.PixelRect
		dims  geomx.PageDims
		scale float64
	}{
		{"unit scale", geomx.PixelRect{Left: 10, Top: 20, Width: 30, Height: 40}, geomx.PageDims{Width: 595, Height: 842}, 1},
		{"zoomed in", geomx.PixelRect{Left: 33.5, Top: 7.25, Width: 120.75, Height: 64.5}, geomx.PageDims{Width: 612, Height: 792}, 1.75},
		{"zoomed out", geomx.PixelRect{Left: 0, Top: 0, Width: 5, Height: 5}, geomx.PageDims{Width: 1024, Height: 1448}, 0.4},
		{"degenerate", geomx.PixelRect{Left: 100, Top: 100, Width: 0, Height: 0}, geomx.PageDims{Width: 595, Height: 842}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			norm := geomx.PixelToNorm(tc.rect, tc.dims, tc.scale)
			back := geomx.NormToPixel(norm, tc.dims, tc.scale)
			if !rectsClose(tc.rect, back) {
				t.Fatalf("round trip drifted: %+v -> %+v", tc.rect, back)
			}
		})
	}
}

func TestOutOfBoundsNotClamped(t *testing.T) {
	dims := geomx.PageDims{Width: 100, Height: 100}
	r := geomx.PixelRect{Left: 90, Top: 90, Width: 50, Height: 50}

	got := geomx.PixelToNorm(r, dims, 1)
	if got[0]+got[2] <= 1 {
		t.Fatalf("expected rect extending past page edge to stay unclamped, got %v", got)
	}
}

func TestRectFromPoints(t *testing.T) {
	// Dragging up-left must yield the same rect as dragging down-right.
	a := geomx.Point{X: 50, Y: 80}
	b := geomx.Point{X: 10, Y: 20}

	got := geomx.RectFromPoints(a, b)
	want := geomx.PixelRect{Left: 10, Top: 20, Width: 40, Height: 60}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if !geomx.RectFromPoints(a, a).Degenerate() {
		t.Fatal("zero-size rect should be degenerate")
	}
}

func TestPageDimsValid(t *testing.T) {
	if (geomx.PageDims{}).Valid() {
		t.Fatal("zero dims must be invalid")
	}
	if !(geomx.PageDims{Width: 1, Height: 1}).Valid() {
		t.Fatal("positive dims must be valid")
	}
}
