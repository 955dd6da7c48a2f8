// Package ocrx crops a drawn region out of a page image and runs it through a
// text recognizer. Results are fenced by a generation counter so an edit made
// while recognition was in flight is never overwritten by its late result.
package ocrx

import (
	"context"
	"image"
	"sync/atomic"

	"github.com/disintegration/imaging"

	"github.com/saiteja-tally/taggo/pkg/geomx"
	"github.com/saiteja-tally/taggo/pkg/logx"
)

// Recognizer turns a cropped region image into text.
type Recognizer interface {
	Recognize(ctx context.Context, crop image.Image) (Result, error)
}

// Result is one recognition outcome.
type Result struct {
	Text string
	Conf float64
}

// PageSource supplies the rendered page image a crop is cut from.
type PageSource interface {
	Page(ctx context.Context, pageNo int) (image.Image, error)
}

// Dispatcher crops and recognizes drawn regions.
type Dispatcher struct {
	pages      PageSource
	recognizer Recognizer
	log        *logx.Logger
	generation atomic.Uint64
}

// NewDispatcher builds a dispatcher over a page source and a recognizer.
func NewDispatcher(pages PageSource, recognizer Recognizer, log *logx.Logger) *Dispatcher {
	if log == nil {
		log = logx.GetDefaultLogger()
	}
	return &Dispatcher{pages: pages, recognizer: recognizer, log: log}
}

// Invalidate bumps the generation fence. The session calls it on every
// document mutation; any recognition started before the bump reports stale.
func (d *Dispatcher) Invalidate() {
	d.generation.Add(1)
}

// Dispatch crops the pixel rectangle out of the page and recognizes it. A
// zero-area rectangle short-circuits without touching the recognizer. The
// returned result is valid only if no Invalidate happened in between; a stale
// result comes back as ErrStale and must be dropped, not applied.
func (d *Dispatcher) Dispatch(ctx context.Context, pageNo int, rect geomx.PixelRect) (Result, error) {
	if rect.Degenerate() {
		return Result{}, ocrErrors.New(ErrEmptyRegion)
	}
	started := d.generation.Load()

	page, err := d.pages.Page(ctx, pageNo)
	if err != nil {
		return Result{}, ocrErrors.NewWithCause(ErrPageRender, err).WithDetail("page", pageNo)
	}

	crop := imaging.Crop(page, image.Rect(
		int(rect.Left),
		int(rect.Top),
		int(rect.Left+rect.Width),
		int(rect.Top+rect.Height),
	))

	res, err := d.recognizer.Recognize(ctx, crop)
	if err != nil {
		return Result{}, ocrErrors.NewWithCause(ErrRecognizer, err)
	}

	if d.generation.Load() != started {
		d.log.WithField("page", pageNo).Debug("dropping stale recognition result")
		return Result{}, ocrErrors.New(ErrStale)
	}
	return res, nil
}
