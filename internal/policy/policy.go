// Package policy decides what a principal may read or change.
package policy

import (
	"net/http"
	"sort"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// staffSelfFields are the contact fields a staff member may edit on their own record.
var staffSelfFields = []string{
	domain.FieldMobileNo,
	domain.FieldPersonalEmail,
	domain.FieldCareEmail,
}

// Policy evaluates role and ownership rules. It holds no state.
type Policy struct {
	adminFields map[string]struct{}
	selfFields  map[string]struct{}
}

// New builds the policy from the canonical staff field table.
func New() *Policy {
	p := &Policy{
		adminFields: make(map[string]struct{}, len(domain.StaffFields)),
		selfFields:  make(map[string]struct{}, len(staffSelfFields)),
	}
	for _, f := range domain.StaffFields {
		if f.Name == domain.FieldIDNo {
			continue
		}
		p.adminFields[f.Name] = struct{}{}
	}
	for _, f := range staffSelfFields {
		p.selfFields[f] = struct{}{}
	}
	return p
}

// WritableStaffFields returns the sorted field names role may patch.
func (p *Policy) WritableStaffFields(role domain.Role) []string {
	set := p.fieldSet(role)
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (p *Policy) fieldSet(role domain.Role) map[string]struct{} {
	switch role {
	case domain.RoleAdmin:
		return p.adminFields
	case domain.RoleStaff:
		return p.selfFields
	}
	return nil
}

func authenticated(principal *domain.Principal) error {
	if principal == nil || principal.UserID == "" {
		return errorutil.NewUnauthorized("authentication required")
	}
	return nil
}

func requireAdmin(principal *domain.Principal, action string) error {
	if err := authenticated(principal); err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return errorutil.NewForbidden(action + " requires admin role")
	}
	return nil
}

// CanReadStaff allows admins and the staff member linked to staffID.
func (p *Policy) CanReadStaff(principal *domain.Principal, staffID string) error {
	if err := authenticated(principal); err != nil {
		return err
	}
	if principal.IsAdmin() || principal.OwnsStaff(staffID) {
		return nil
	}
	return errorutil.NewForbidden("not allowed to access this staff record")
}

// CanWriteStaff has the same ownership rule as reads; field limits are checked separately.
func (p *Policy) CanWriteStaff(principal *domain.Principal, staffID string) error {
	return p.CanReadStaff(principal, staffID)
}

// CheckStaffPatch rejects a patch that touches any field outside the principal's set.
// Self edits are limited to the caller's own record even for admins.
func (p *Policy) CheckStaffPatch(principal *domain.Principal, staffID string, fields []string, self bool) error {
	if err := authenticated(principal); err != nil {
		return err
	}
	role := principal.Role
	if self {
		if !principal.OwnsStaff(staffID) {
			return errorutil.NewForbidden("self update is limited to your own record")
		}
		role = domain.RoleStaff
	} else if !principal.IsAdmin() {
		return errorutil.NewForbidden("staff update requires admin role")
	}

	allowed := p.fieldSet(role)
	var denied []string
	for _, f := range fields {
		if _, ok := allowed[f]; !ok {
			denied = append(denied, f)
		}
	}
	if len(denied) > 0 {
		return errorutil.NewDomainError(errorutil.CodeForbidden, "fields not writable", http.StatusForbidden,
			map[string]any{"fields": denied})
	}
	return nil
}

// CanAccessDocument allows admins and the owner of the document's staff record.
func (p *Policy) CanAccessDocument(principal *domain.Principal, ownerStaffID string) error {
	if err := authenticated(principal); err != nil {
		return err
	}
	if principal.IsAdmin() || principal.OwnsStaff(ownerStaffID) {
		return nil
	}
	return errorutil.NewForbidden("not allowed to access this document")
}

// CanVerify is admin only.
func (p *Policy) CanVerify(principal *domain.Principal) error {
	return requireAdmin(principal, "document verification")
}

// CanManageUsers is admin only.
func (p *Policy) CanManageUsers(principal *domain.Principal) error {
	return requireAdmin(principal, "user management")
}

// CanReadAudit is admin only.
func (p *Policy) CanReadAudit(principal *domain.Principal) error {
	return requireAdmin(principal, "audit access")
}

// CanExport is admin only.
func (p *Policy) CanExport(principal *domain.Principal) error {
	return requireAdmin(principal, "staff export")
}

// CanListStaff is admin only.
func (p *Policy) CanListStaff(principal *domain.Principal) error {
	return requireAdmin(principal, "staff listing")
}

// CanCreateStaff is admin only.
func (p *Policy) CanCreateStaff(principal *domain.Principal) error {
	return requireAdmin(principal, "staff creation")
}
