package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/dto"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/service"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
)

// StaffHandler exposes personnel record endpoints.
type StaffHandler struct {
	staff *service.StaffService
	cal   temporal.Calendar
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService, cal temporal.Calendar) *StaffHandler {
	return &StaffHandler{staff: staffService, cal: cal}
}

// List handles GET /api/staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}
	page, err := h.staff.List(c.UserContext(), p, service.StaffListFilter{
		Query:          strings.TrimSpace(c.Query("q")),
		Area:           c.Query("area"),
		Post:           c.Query("post"),
		Gender:         strings.ToUpper(c.Query("gender")),
		Nationality:    c.Query("nationality"),
		ContractStatus: strings.ToUpper(queryParam(c, "contract_status", "contractStatus")),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return err
	}
	resp := dto.StaffListResponse{Items: make([]dto.StaffResponse, 0, len(page.Items)), Total: page.Total, Limit: page.Limit, Offset: page.Offset}
	for i := range page.Items {
		resp.Items = append(resp.Items, staffResponse(h.cal, &page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Create handles POST /api/staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	dates := newDateParser(h.cal)
	draft := domain.Staff{
		IDNo:           strings.TrimSpace(req.IDNo),
		StaffName:      strings.TrimSpace(req.StaffName),
		CurrentArea:    req.CurrentArea,
		CurrentPost:    req.CurrentPost,
		Gender:         domain.Gender(req.Gender),
		Birthday:       dates.required("birthday", req.Birthday),
		Nationality:    req.Nationality,
		JoiningDate:    dates.required("joiningDate", req.JoiningDate),
		ContractExpire: dates.required("contractExpire", req.ContractExpire),
		ContractType:   req.ContractType,
		Suspended:      req.Suspended,
		IqamaNo:        req.IqamaNo,
		PassportNo:     req.PassportNo,
		Degree:         req.Degree,
		Speciality:     req.Speciality,
		SaudiCouncil:   req.SaudiCouncil,
		Classification: req.Classification,
		DataFlow:       req.DataFlow,
		MOH:            req.MOH,
		BLS:            req.BLS,
		ACLS:           req.ACLS,
		CSedation:      req.CSedation,
		MobileNo:       req.MobileNo,
		PersonalEmail:  req.PersonalEmail,
		CareEmail:      req.CareEmail,
		Notes:          req.Notes,
	}
	if err := dates.err(); err != nil {
		return err
	}
	view, err := h.staff.Create(c.UserContext(), p, draft)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": staffResponse(h.cal, view)})
}

// Get handles GET /api/staff/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.staff.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(h.cal, view)})
}

// Update handles PATCH /api/staff/:id for admins.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	return h.patch(c, h.staff.AdminUpdate)
}

// SelfUpdate handles PATCH /api/staff/:id/self for the linked staff member.
func (h *StaffHandler) SelfUpdate(c *fiber.Ctx) error {
	return h.patch(c, h.staff.SelfUpdate)
}

// ExportCSV handles GET /api/staff/export/csv.
func (h *StaffHandler) ExportCSV(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	body, err := h.staff.ExportCSV(c.UserContext(), p)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, service.ExportContentType)
	c.Attachment(service.ExportFileName)
	return c.Send(body)
}

type staffUpdater func(ctx context.Context, p *domain.Principal, id string, patch domain.StaffPatch) (*service.StaffView, error)

func (h *StaffHandler) patch(c *fiber.Ctx, update staffUpdater) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	patch, err := h.toPatch(&req)
	if err != nil {
		return err
	}
	view, err := update(c.UserContext(), p, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(h.cal, view)})
}

func (h *StaffHandler) toPatch(req *dto.StaffUpdateRequest) (domain.StaffPatch, error) {
	dates := newDateParser(h.cal)
	patch := domain.StaffPatch{
		StaffName:      req.StaffName,
		CurrentArea:    req.CurrentArea,
		CurrentPost:    req.CurrentPost,
		Nationality:    req.Nationality,
		ContractType:   req.ContractType,
		Suspended:      req.Suspended,
		IqamaNo:        req.IqamaNo,
		PassportNo:     req.PassportNo,
		Degree:         req.Degree,
		Speciality:     req.Speciality,
		SaudiCouncil:   req.SaudiCouncil,
		Classification: req.Classification,
		DataFlow:       req.DataFlow,
		MOH:            req.MOH,
		BLS:            req.BLS,
		ACLS:           req.ACLS,
		CSedation:      req.CSedation,
		MobileNo:       req.MobileNo,
		PersonalEmail:  req.PersonalEmail,
		CareEmail:      req.CareEmail,
		Notes:          req.Notes,
	}
	if req.Gender != nil {
		g := domain.Gender(*req.Gender)
		patch.Gender = &g
	}
	if req.Birthday != nil {
		t := dates.required("birthday", *req.Birthday)
		patch.Birthday = &t
	}
	if req.JoiningDate != nil {
		t := dates.required("joiningDate", *req.JoiningDate)
		patch.JoiningDate = &t
	}
	if req.ContractExpire != nil {
		t := dates.required("contractExpire", *req.ContractExpire)
		patch.ContractExpire = &t
	}
	return patch, dates.err()
}
