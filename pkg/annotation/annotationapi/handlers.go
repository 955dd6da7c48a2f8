// Package annotationapi exposes the annotation service over HTTP.
package annotationapi

import (
	"context"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gofiber/fiber/v2"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/annotation/annotationsrv"
	"github.com/saiteja-tally/taggo/pkg/errx"
	"github.com/saiteja-tally/taggo/pkg/kernel"
	"github.com/saiteja-tally/taggo/pkg/ocrx"
	"github.com/saiteja-tally/taggo/pkg/workflow"
)

// Handlers holds the annotation HTTP endpoints.
type Handlers struct {
	service    *annotationsrv.Service
	blobs      annotation.BlobStore
	recognizer ocrx.Recognizer
}

// NewHandlers creates the handler set. recognizer may be nil when no
// recognition backend is deployed; get_ocr_text then reports unavailable.
func NewHandlers(service *annotationsrv.Service, blobs annotation.BlobStore, recognizer ocrx.Recognizer) *Handlers {
	return &Handlers{service: service, blobs: blobs, recognizer: recognizer}
}

// RegisterRoutes mounts the endpoints under /api/v1/annotation.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1/annotation", actorMiddleware)

	api.Post("/upload_document", h.upload)
	api.Get("/get_json/:id", h.getJSON)
	api.Post("/save_json/:id", h.saveJSON)
	api.Get("/get_document/:id", h.getDocument)
	api.Post("/get_ocr_text", h.getOCRText)
	api.Get("/get_next/:id", h.getNext)
	api.Get("/get_prev/:id", h.getPrev)
	api.Post("/accept_annotation/:id", h.accept)
	api.Post("/reject_annotation/:id", h.reject)
	api.Post("/finalize_annotation/:id", h.finalize)
	api.Post("/assign_annotation/:id", h.assign)
}

// actorMiddleware resolves the acting user from headers populated by the
// authentication gateway in front of this service.
func actorMiddleware(c *fiber.Ctx) error {
	actor := kernel.Actor{
		Username: c.Get("X-Username"),
		Reviewer: c.Get("X-Reviewer") == "true",
	}
	if !actor.IsValid() {
		return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
	}
	ctx := kernel.WithActor(c.UserContext(), actor)
	c.SetUserContext(ctx)
	return c.Next()
}

func actorFrom(c *fiber.Ctx) kernel.Actor {
	actor, _ := kernel.ActorFromContext(c.UserContext())
	return actor
}

// upload ingests a new document: the PDF as a multipart file, optionally a
// pre-extracted payload under the "annotation" form field.
func (h *Handlers) upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		return errx.Wrap(err, "missing document file", errx.TypeValidation)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errx.Wrap(err, "unreadable document file", errx.TypeValidation)
	}
	defer file.Close()

	var doc *annotation.Document
	if raw := c.FormValue("annotation"); raw != "" {
		doc = &annotation.Document{}
		if err := json.Unmarshal([]byte(raw), doc); err != nil {
			return err
		}
	}

	rec, err := h.service.Ingest(c.UserContext(), actorFrom(c), file, doc)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"record": rec})
}

func (h *Handlers) getJSON(c *fiber.Ctx) error {
	rec, doc, err := h.service.Load(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"record":      rec,
		"annotation":  doc,
		"permissions": rec.Permissions(),
	})
}

type saveRequest struct {
	Annotation json.RawMessage `json:"annotation"`
	Status     string          `json:"status"`
}

func (h *Handlers) saveJSON(c *fiber.Ctx) error {
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Wrap(err, "malformed save request", errx.TypeValidation)
	}
	target, err := workflow.Parse(req.Status)
	if err != nil {
		return errx.Wrap(err, "unknown target status", errx.TypeValidation)
	}

	var doc annotation.Document
	if err := json.Unmarshal(req.Annotation, &doc); err != nil {
		return err
	}

	rec, err := h.service.Record(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	saved, err := h.service.Save(c.UserContext(), actorFrom(c), rec, &doc, target)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"record": saved})
}

// getDocument streams the original uploaded file.
func (h *Handlers) getDocument(c *fiber.Ctx) error {
	rec, err := h.service.Record(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	body, err := h.blobs.GetObject(c.UserContext(), workflow.StatusUploaded, rec.DocumentKey())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.SendStream(body)
}

// getOCRText recognizes an uploaded region crop. This is the server side of
// the multipart protocol ocrx.HTTPRecognizer speaks.
func (h *Handlers) getOCRText(c *fiber.Ctx) error {
	if h.recognizer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no recognition backend configured")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return errx.Wrap(err, "missing region image", errx.TypeValidation)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errx.Wrap(err, "unreadable region image", errx.TypeValidation)
	}
	defer file.Close()

	crop, _, err := image.Decode(file)
	if err != nil {
		return errx.Wrap(err, "undecodable region image", errx.TypeValidation)
	}

	res, err := h.recognizer.Recognize(c.UserContext(), crop)
	if err != nil {
		return errx.Wrap(err, "recognition failed", errx.TypeExternal)
	}
	return c.JSON(fiber.Map{"text": res.Text, "conf": res.Conf})
}

type stepFunc func(ctx context.Context, actor kernel.Actor, currentID string) (string, error)

func (h *Handlers) getNext(c *fiber.Ctx) error {
	return h.neighbour(c, h.service.Next)
}

func (h *Handlers) getPrev(c *fiber.Ctx) error {
	return h.neighbour(c, h.service.Prev)
}

func (h *Handlers) neighbour(c *fiber.Ctx, step stepFunc) error {
	id, err := step(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	if id == "" {
		return c.JSON(fiber.Map{"id": nil})
	}
	return c.JSON(fiber.Map{"id": id})
}

func (h *Handlers) accept(c *fiber.Ctx) error {
	rec, err := h.service.Accept(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"record": rec})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) reject(c *fiber.Ctx) error {
	var req rejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errx.Wrap(err, "malformed reject request", errx.TypeValidation)
		}
	}
	rec, err := h.service.Reject(c.UserContext(), actorFrom(c), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"record": rec})
}

func (h *Handlers) finalize(c *fiber.Ctx) error {
	rec, err := h.service.Finalize(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"record": rec})
}

type assignRequest struct {
	User *string `json:"user"`
}

func (h *Handlers) assign(c *fiber.Ctx) error {
	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Wrap(err, "malformed assign request", errx.TypeValidation)
	}
	if err := h.service.Assign(c.UserContext(), actorFrom(c), c.Params("id"), req.User); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
