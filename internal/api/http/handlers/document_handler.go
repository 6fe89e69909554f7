package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/api/dto"
	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/service"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
	"github.com/spec-kit/legal-aid-service/pkg/validation"
)

// DocumentHandler handles case file uploads and verification.
type DocumentHandler struct {
	documents *service.DocumentService
	validate  *validation.Validator
}

// NewDocumentHandler constructs handler.
func NewDocumentHandler(documents *service.DocumentService, validate *validation.Validator) *DocumentHandler {
	return &DocumentHandler{documents: documents, validate: validate}
}

// Upload handles multipart POST /cases/:id/documents with a "file" part.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", map[string]any{"file": "required"})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file", nil)
	}
	defer file.Close()

	doc, err := h.documents.Upload(c.UserContext(), actor, service.UploadInput{
		CaseID:   c.Params("id"),
		FileName: header.Filename,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		return err
	}
	return created(c, documentResponse(doc))
}

// ListByCase handles GET /cases/:id/documents.
func (h *DocumentHandler) ListByCase(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	docs, err := h.documents.List(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, mapSlice(docs, documentResponse))
}

func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	doc, err := h.documents.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, documentResponse(doc))
}

// Download streams the stored content.
func (h *DocumentHandler) Download(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	doc, content, err := h.documents.Download(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	c.Attachment(doc.FileName)
	c.Set(fiber.HeaderContentType, doc.MimeType)
	// fasthttp closes content once the body is written.
	return c.SendStream(content, int(doc.SizeBytes))
}

// Review handles POST /documents/:id/review.
func (h *DocumentHandler) Review(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ReviewDocumentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	doc, err := h.documents.Review(c.UserContext(), actor, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return ok(c, documentResponse(doc))
}

func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	if err := h.documents.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
