package ocrx

import "github.com/saiteja-tally/taggo/pkg/errx"

var ocrErrors = errx.NewRegistry("OCR")

var (
	ErrEmptyRegion = ocrErrors.Register("EMPTY_REGION", errx.TypeValidation, 422, "Region has no area to recognize")
	ErrPageRender  = ocrErrors.Register("PAGE_RENDER", errx.TypeInternal, 500, "Page image unavailable for cropping")
	ErrRecognizer  = ocrErrors.Register("RECOGNIZER", errx.TypeExternal, 502, "Text recognition request failed")
	ErrStale       = ocrErrors.Register("STALE", errx.TypeBusiness, 409, "Recognition result outdated by a newer edit")
)
