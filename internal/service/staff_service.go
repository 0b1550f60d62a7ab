package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/audit"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/events"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
	"github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// Staff listing page bounds.
const (
	defaultStaffPage = 50
	maxStaffPage     = 500
)

// StaffService manages personnel records.
type StaffService struct {
	Core
	staff repository.StaffRepository
	docs  repository.DocumentRepository
}

// StaffDependencies bundles repositories for the staff service.
type StaffDependencies struct {
	StaffRepo    repository.StaffRepository
	DocumentRepo repository.DocumentRepository
}

// StaffView is a staff record with read-time derived values.
type StaffView struct {
	domain.Staff
	RemainingContractDays int
	ServiceYears          int
	Documents             []domain.Document
}

// StaffListFilter describes admin listing filters.
type StaffListFilter struct {
	Query          string
	Area           string
	Post           string
	Gender         string
	Nationality    string
	ContractStatus string
	Limit          int
	Offset         int
}

// StaffPage is one page of a listing.
type StaffPage struct {
	Items  []StaffView
	Total  int
	Limit  int
	Offset int
}

// NewStaffService constructs the service.
func NewStaffService(core Core, deps StaffDependencies) *StaffService {
	return &StaffService{Core: core, staff: deps.StaffRepo, docs: deps.DocumentRepo}
}

// Create registers a new staff record. The contract status is derived from the draft's
// expiry and suspension flag.
func (s *StaffService) Create(ctx context.Context, p *domain.Principal, draft domain.Staff) (*StaffView, error) {
	if err := s.Policy.CanCreateStaff(p); err != nil {
		return nil, err
	}
	s.normalizeDates(&draft)
	if err := validateStaff(&draft, true); err != nil {
		return nil, err
	}

	now := s.now()
	record := draft
	record.ID = ""
	record.ApplyContract(s.Calendar, now, draft.ContractExpire, draft.Suspended)

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.staff.Create(ctx, &record); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return errorutil.NewConflict("staff id_no already exists", map[string]any{"id_no": record.IDNo})
			}
			return mapRepoErr(err, "staff")
		}
		_, err := s.Ledger.Record(ctx, p.UserID, audit.Entry{
			StaffID: &record.ID,
			Action:  domain.ActionStaffCreate,
			New:     record.IDNo,
		})
		return err
	})
	if err != nil {
		return nil, mapRepoErr(err, "staff")
	}

	s.publish(ctx, events.Event{Type: events.EventStaffCreated, ActorID: p.UserID, StaffID: record.ID})
	s.publish(ctx, auditEvent(p.UserID, domain.ActionStaffCreate))
	return s.view(&record, nil), nil
}

// Get returns one staff record with its documents.
func (s *StaffService) Get(ctx context.Context, p *domain.Principal, id string) (*StaffView, error) {
	if err := s.Policy.CanReadStaff(p, id); err != nil {
		return nil, err
	}
	record, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "staff")
	}
	docs, err := s.docs.ListByStaff(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "documents")
	}
	now := s.now()
	for i := range docs {
		docs[i].RefreshStatus(s.Calendar, now)
	}
	return s.view(record, docs), nil
}

// List returns a filtered page ordered by most recently updated.
func (s *StaffService) List(ctx context.Context, p *domain.Principal, filter StaffListFilter) (*StaffPage, error) {
	if err := s.Policy.CanListStaff(p); err != nil {
		return nil, err
	}
	if filter.Gender != "" && !validGender(domain.Gender(filter.Gender)) {
		return nil, errorutil.NewValidationError("invalid gender filter", map[string]any{"gender": filter.Gender})
	}
	if filter.ContractStatus != "" && !status.ContractStatus(filter.ContractStatus).Valid() {
		return nil, errorutil.NewValidationError("invalid contract_status filter",
			map[string]any{"contract_status": filter.ContractStatus})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultStaffPage
	}
	limit = min(limit, maxStaffPage)
	offset := max(filter.Offset, 0)

	rows, total, err := s.staff.List(ctx, repository.StaffFilter{
		Query:          filter.Query,
		Area:           filter.Area,
		Post:           filter.Post,
		Gender:         filter.Gender,
		Nationality:    filter.Nationality,
		ContractStatus: filter.ContractStatus,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return nil, mapRepoErr(err, "staff")
	}

	page := &StaffPage{Items: make([]StaffView, 0, len(rows)), Total: total, Limit: limit, Offset: offset}
	for i := range rows {
		page.Items = append(page.Items, *s.view(&rows[i], nil))
	}
	return page, nil
}

// AdminUpdate applies an admin patch and records one entry per changed field.
func (s *StaffService) AdminUpdate(ctx context.Context, p *domain.Principal, id string, patch domain.StaffPatch) (*StaffView, error) {
	if err := s.Policy.CheckStaffPatch(p, id, patch.Fields(), false); err != nil {
		return nil, err
	}
	return s.update(ctx, p, id, patch, domain.ActionStaffUpdateField)
}

// SelfUpdate applies a contact-field patch from the linked staff member.
func (s *StaffService) SelfUpdate(ctx context.Context, p *domain.Principal, id string, patch domain.StaffPatch) (*StaffView, error) {
	if err := s.Policy.CheckStaffPatch(p, id, patch.Fields(), true); err != nil {
		return nil, err
	}
	return s.update(ctx, p, id, patch, domain.ActionStaffSelfUpdateField)
}

func (s *StaffService) update(ctx context.Context, p *domain.Principal, id string, patch domain.StaffPatch,
	action domain.AuditAction) (*StaffView, error) {
	s.normalizePatch(&patch)
	now := s.now()

	var (
		after   domain.Staff
		changes []audit.FieldChange
	)
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		before, err := s.staff.GetForUpdate(ctx, id)
		if err != nil {
			return mapRepoErr(err, "staff")
		}

		after = *before
		patch.ApplyTo(&after)
		expire, suspended := after.ContractExpire, after.Suspended
		if patch.ContractExpire != nil {
			expire = *patch.ContractExpire
		}
		if patch.Suspended != nil {
			suspended = *patch.Suspended
		}
		after.ApplyContract(s.Calendar, now, expire, suspended)

		if err := validateStaff(&after, false); err != nil {
			return err
		}

		changes = audit.DiffStaff(before, &after)
		if len(changes) == 0 && after.ContractStatus == before.ContractStatus {
			after = *before
			return nil
		}
		if err := s.staff.Update(ctx, &after); err != nil {
			return mapRepoErr(err, "staff")
		}
		return s.Ledger.RecordChanges(ctx, p.UserID, action, &after.ID, nil, changes)
	})
	if err != nil {
		return nil, mapRepoErr(err, "staff")
	}

	if len(changes) > 0 {
		s.publish(ctx, events.Event{Type: events.EventStaffUpdated, ActorID: p.UserID, StaffID: id,
			Payload: changedFields(changes)})
		s.publish(ctx, auditEvent(p.UserID, repeatAction(action, len(changes))...))
	}
	return s.view(&after, nil), nil
}

// RefreshStatuses recomputes persisted contract statuses for the current day.
func (s *StaffService) RefreshStatuses(ctx context.Context) (int, error) {
	rows, err := s.staff.ListAllByName(ctx)
	if err != nil {
		return 0, mapRepoErr(err, "staff")
	}
	now := s.now()
	changed := 0
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		if !rows[i].RefreshContractStatus(s.Calendar, now) {
			continue
		}
		if err := s.staff.UpdateContractStatus(ctx, rows[i].ID, rows[i].ContractStatus); err != nil {
			s.logger().Warn("refresh contract status failed", zap.String("staff_id", rows[i].ID), zap.Error(err))
			continue
		}
		changed++
	}
	return changed, nil
}

func (s *StaffService) view(record *domain.Staff, docs []domain.Document) *StaffView {
	now := s.now()
	v := &StaffView{Staff: *record, Documents: docs}
	v.RefreshContractStatus(s.Calendar, now)
	v.RemainingContractDays = v.Staff.RemainingContractDays(s.Calendar, now)
	v.ServiceYears = v.Staff.ServiceYears(s.Calendar, now)
	return v
}

func (s *StaffService) normalizeDates(st *domain.Staff) {
	if !st.Birthday.IsZero() {
		st.Birthday = s.Calendar.StartOfDay(st.Birthday)
	}
	if !st.JoiningDate.IsZero() {
		st.JoiningDate = s.Calendar.StartOfDay(st.JoiningDate)
	}
	if !st.ContractExpire.IsZero() {
		st.ContractExpire = s.Calendar.StartOfDay(st.ContractExpire)
	}
}

func (s *StaffService) normalizePatch(p *domain.StaffPatch) {
	for _, t := range []**time.Time{&p.Birthday, &p.JoiningDate, &p.ContractExpire} {
		if *t != nil {
			d := s.Calendar.StartOfDay(**t)
			*t = &d
		}
	}
}

func validGender(g domain.Gender) bool {
	return g == domain.GenderMale || g == domain.GenderFemale || g == domain.GenderOther
}

// validateStaff checks required attributes. On create every required field must be set;
// on update the merged record must still satisfy the same rule.
func validateStaff(st *domain.Staff, creating bool) error {
	details := map[string]any{}
	required := map[string]string{
		domain.FieldStaffName:     st.StaffName,
		domain.FieldCurrentArea:   st.CurrentArea,
		domain.FieldCurrentPost:   st.CurrentPost,
		domain.FieldNationality:   st.Nationality,
		domain.FieldContractType:  st.ContractType,
		domain.FieldMobileNo:      st.MobileNo,
		domain.FieldPersonalEmail: st.PersonalEmail,
		domain.FieldCareEmail:     st.CareEmail,
	}
	if creating {
		required[domain.FieldIDNo] = st.IDNo
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			details[field] = "required"
		}
	}
	if !validGender(st.Gender) {
		details[domain.FieldGender] = "must be one of MALE, FEMALE, OTHER"
	}
	if st.Birthday.IsZero() {
		details[domain.FieldBirthday] = "required"
	}
	if st.JoiningDate.IsZero() {
		details[domain.FieldJoiningDate] = "required"
	}
	if st.ContractExpire.IsZero() {
		details[domain.FieldContractExpire] = "required"
	}
	if len(details) > 0 {
		return errorutil.NewValidationError("invalid staff record", details)
	}
	return nil
}

func changedFields(changes []audit.FieldChange) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Field
	}
	return out
}

func repeatAction(action domain.AuditAction, n int) []domain.AuditAction {
	out := make([]domain.AuditAction, n)
	for i := range out {
		out[i] = action
	}
	return out
}

func auditEvent(actorID string, actions ...domain.AuditAction) events.Event {
	return events.Event{
		Type:    events.EventAuditRecorded,
		ActorID: actorID,
		Payload: events.AuditRecordedPayload{Actions: actions},
	}
}
