package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/dto"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/service"
)

// AuditHandler serves the audit ledger.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List handles GET /api/audit?staff_id=&document_id=&limit=. camelCase keys are accepted too.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	filter := domain.AuditFilter{Limit: limit}
	if v := queryParam(c, "staff_id", "staffId"); v != "" {
		filter.StaffID = &v
	}
	if v := queryParam(c, "document_id", "documentId"); v != "" {
		filter.DocumentID = &v
	}
	entries, err := h.audit.Query(c.UserContext(), p, filter)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, auditResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
