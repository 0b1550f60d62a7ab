package handlers

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/dto"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/service"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
	apperrors "github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// DocumentsHandler exposes credential document endpoints.
type DocumentsHandler struct {
	docs *service.DocumentService
	cal  temporal.Calendar
}

// NewDocumentsHandler constructs handler. Upload kind and size checks belong to the service.
func NewDocumentsHandler(docs *service.DocumentService, cal temporal.Calendar) *DocumentsHandler {
	return &DocumentsHandler{docs: docs, cal: cal}
}

// Create handles POST /api/docs/:staffId.
func (h *DocumentsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DocumentCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	dates := newDateParser(h.cal)
	in := service.DocumentCreateInput{
		DocType:    domain.DocType(strings.ToUpper(req.DocType)),
		CustomName: req.CustomName,
		IssueDate:  dates.optional("issueDate", req.IssueDate),
		ExpiryDate: dates.optional("expiryDate", req.ExpiryDate),
	}
	if err := dates.err(); err != nil {
		return err
	}
	doc, err := h.docs.Create(c.UserContext(), p, c.Params("staffId"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": documentResponse(h.cal, doc)})
}

// ListForStaff handles GET /api/docs/staff/:staffId.
func (h *DocumentsHandler) ListForStaff(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	docs, err := h.docs.ListForStaff(c.UserContext(), p, c.Params("staffId"))
	if err != nil {
		return err
	}
	items := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		items = append(items, documentResponse(h.cal, &docs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /api/docs/:documentId.
func (h *DocumentsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	doc, err := h.docs.Get(c.UserContext(), p, c.Params("documentId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": documentResponse(h.cal, doc)})
}

// Update handles PATCH /api/docs/:documentId.
func (h *DocumentsHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DocumentUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	dates := newDateParser(h.cal)
	patch := service.DocumentPatch{
		CustomName:      req.CustomName,
		IssueDate:       dates.optional("issueDate", req.IssueDate),
		ExpiryDate:      dates.optional("expiryDate", req.ExpiryDate),
		ClearIssueDate:  req.IssueDate != nil && strings.TrimSpace(*req.IssueDate) == "",
		ClearExpiryDate: req.ExpiryDate != nil && strings.TrimSpace(*req.ExpiryDate) == "",
	}
	if err := dates.err(); err != nil {
		return err
	}
	doc, err := h.docs.UpdateDates(c.UserContext(), p, c.Params("documentId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": documentResponse(h.cal, doc)})
}

// Upload handles POST /api/docs/:documentId/upload with a multipart "file" field.
func (h *DocumentsHandler) Upload(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("missing file", map[string]any{"file": "required"})
	}
	f, err := fh.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file", map[string]any{"file": err.Error()})
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		return apperrors.NewValidationError("unreadable file", map[string]any{"file": err.Error()})
	}

	res, err := h.docs.AddVersion(c.UserContext(), p, c.Params("documentId"), service.FileUpload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        body,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.UploadResponse{
		Document: documentResponse(h.cal, res.Document),
		Version:  versionResponse(res.Version),
	}})
}

// Versions handles GET /api/docs/:documentId/versions.
func (h *DocumentsHandler) Versions(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	versions, err := h.docs.ListVersions(c.UserContext(), p, c.Params("documentId"))
	if err != nil {
		return err
	}
	items := make([]dto.VersionResponse, 0, len(versions))
	for i := range versions {
		items = append(items, versionResponse(&versions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SignedURL handles GET /api/docs/:documentId/signed-url.
func (h *DocumentsHandler) SignedURL(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	link, err := h.docs.SignedURL(c.UserContext(), p, c.Params("documentId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SignedURLResponse{URL: link.URL, ExpiresAt: link.ExpiresAt}})
}

// Verify handles POST /api/docs/:documentId/verify.
func (h *DocumentsHandler) Verify(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.VerifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	doc, err := h.docs.Verify(c.UserContext(), p, c.Params("documentId"), domain.VerificationStatus(req.Status), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": documentResponse(h.cal, doc)})
}
