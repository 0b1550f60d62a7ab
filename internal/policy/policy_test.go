package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

var (
	admin   = &domain.Principal{UserID: "u-admin", Role: domain.RoleAdmin}
	nurse   = &domain.Principal{UserID: "u-nurse", Role: domain.RoleStaff, StaffID: strPtr("s-1")}
	orphan  = &domain.Principal{UserID: "u-orphan", Role: domain.RoleStaff}
	linkedA = &domain.Principal{UserID: "u-admin2", Role: domain.RoleAdmin, StaffID: strPtr("s-9")}
)

func TestNilPrincipalIsUnauthorized(t *testing.T) {
	p := New()
	checks := []error{
		p.CanReadStaff(nil, "s-1"),
		p.CanAccessDocument(nil, "s-1"),
		p.CanVerify(nil),
		p.CanManageUsers(nil),
		p.CanReadAudit(nil),
		p.CanExport(nil),
		p.CanListStaff(nil),
		p.CheckStaffPatch(nil, "s-1", []string{domain.FieldMobileNo}, true),
	}
	for _, err := range checks {
		assert.True(t, errorutil.HasCode(err, errorutil.CodeUnauthorized), "got %v", err)
	}
}

func TestStaffOwnership(t *testing.T) {
	p := New()
	assert.NoError(t, p.CanReadStaff(admin, "s-1"))
	assert.NoError(t, p.CanReadStaff(nurse, "s-1"))
	assert.True(t, errorutil.HasCode(p.CanReadStaff(nurse, "s-2"), errorutil.CodeForbidden))
	assert.True(t, errorutil.HasCode(p.CanReadStaff(orphan, "s-1"), errorutil.CodeForbidden))

	assert.NoError(t, p.CanAccessDocument(nurse, "s-1"))
	assert.True(t, errorutil.HasCode(p.CanAccessDocument(nurse, "s-2"), errorutil.CodeForbidden))
}

func TestAdminOnlyOperations(t *testing.T) {
	p := New()
	for _, check := range []func(*domain.Principal) error{
		p.CanVerify, p.CanManageUsers, p.CanReadAudit, p.CanExport, p.CanListStaff, p.CanCreateStaff,
	} {
		assert.NoError(t, check(admin))
		assert.True(t, errorutil.HasCode(check(nurse), errorutil.CodeForbidden))
	}
}

func TestWritableStaffFields(t *testing.T) {
	p := New()
	assert.Equal(t, []string{domain.FieldCareEmail, domain.FieldMobileNo, domain.FieldPersonalEmail},
		p.WritableStaffFields(domain.RoleStaff))

	adminFields := p.WritableStaffFields(domain.RoleAdmin)
	assert.NotContains(t, adminFields, domain.FieldIDNo)
	assert.Contains(t, adminFields, domain.FieldSuspended)
	assert.Contains(t, adminFields, domain.FieldContractExpire)
	assert.Len(t, adminFields, len(domain.StaffFields))

	assert.Empty(t, p.WritableStaffFields(domain.Role("GUEST")))
}

func TestCheckStaffPatch(t *testing.T) {
	p := New()

	require.NoError(t, p.CheckStaffPatch(nurse, "s-1", []string{domain.FieldMobileNo, domain.FieldCareEmail}, true))

	err := p.CheckStaffPatch(nurse, "s-1", []string{domain.FieldMobileNo, domain.FieldStaffName}, true)
	require.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
	de := errorutil.ToDomainError(err)
	assert.Equal(t, []string{domain.FieldStaffName}, de.Details["fields"])

	assert.True(t, errorutil.HasCode(p.CheckStaffPatch(nurse, "s-2", []string{domain.FieldMobileNo}, true), errorutil.CodeForbidden))
	assert.True(t, errorutil.HasCode(p.CheckStaffPatch(nurse, "s-1", []string{domain.FieldMobileNo}, false), errorutil.CodeForbidden))

	require.NoError(t, p.CheckStaffPatch(admin, "s-1", []string{domain.FieldStaffName, domain.FieldSuspended}, false))
	assert.True(t, errorutil.HasCode(p.CheckStaffPatch(admin, "s-1", []string{domain.FieldIDNo}, false), errorutil.CodeForbidden))

	// admins editing their own linked record through the self route get the staff field set
	assert.NoError(t, p.CheckStaffPatch(linkedA, "s-9", []string{domain.FieldMobileNo}, true))
	assert.Error(t, p.CheckStaffPatch(linkedA, "s-9", []string{domain.FieldStaffName}, true))
}
