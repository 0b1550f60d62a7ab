package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository/memory"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
)

func strPtr(s string) *string { return &s }

func riyadh(t *testing.T) temporal.Calendar {
	t.Helper()
	cal, err := temporal.NewCalendar("Asia/Riyadh")
	require.NoError(t, err)
	return cal
}

func TestDiffStaffReportsOnlyChangedFields(t *testing.T) {
	before := &domain.Staff{StaffName: "Amal", MobileNo: "1", Degree: nil, Suspended: false}
	after := *before
	after.MobileNo = "2"
	after.Degree = strPtr("")
	after.Suspended = true

	changes := DiffStaff(before, &after)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.FieldSuspended, changes[0].Field)
	assert.Equal(t, false, changes[0].Old)
	assert.Equal(t, true, changes[0].New)
	assert.Equal(t, domain.FieldMobileNo, changes[1].Field)
}

func TestDiffStaffIgnoresDerivedStatus(t *testing.T) {
	before := &domain.Staff{StaffName: "Amal", ContractStatus: "ACTIVE"}
	after := *before
	after.ContractStatus = "ENDING_SOON"
	assert.Empty(t, DiffStaff(before, &after))
}

func TestDiffStaffComparesInstants(t *testing.T) {
	cal := riyadh(t)
	d, err := cal.ParseDate("2027-01-01")
	require.NoError(t, err)
	before := &domain.Staff{ContractExpire: d}
	after := &domain.Staff{ContractExpire: d.UTC()}
	assert.Empty(t, DiffStaff(before, after))

	after.ContractExpire = cal.AddDays(d, 1)
	changes := DiffStaff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.FieldContractExpire, changes[0].Field)
}

func TestDiffDocument(t *testing.T) {
	cal := riyadh(t)
	issue, _ := cal.ParseDate("2025-01-01")
	expiry, _ := cal.ParseDate("2027-01-01")
	before := &domain.Document{IssueDate: &issue}
	after := &domain.Document{IssueDate: &issue, ExpiryDate: &expiry}

	changes := DiffDocument(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.FieldExpiryDate, changes[0].Field)
	assert.Nil(t, Text(changes[0].Old, cal))
	assert.Equal(t, "2027-01-01", *Text(changes[0].New, cal))
}

func TestText(t *testing.T) {
	cal := riyadh(t)
	var nilStr *string
	var nilTime *time.Time

	assert.Nil(t, Text(nil, cal))
	assert.Nil(t, Text(nilStr, cal))
	assert.Nil(t, Text(nilTime, cal))
	assert.Nil(t, Text("", cal))
	assert.Equal(t, "true", *Text(true, cal))
	assert.Equal(t, "42", *Text(42, cal))
	assert.Equal(t, "MALE", *Text(domain.GenderMale, cal))
	// 22:00 UTC is the next civil day in Riyadh
	assert.Equal(t, "2026-03-01", *Text(time.Date(2026, 2, 28, 22, 0, 0, 0, time.UTC), cal))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 200, ClampLimit(0))
	assert.Equal(t, 200, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, 50, ClampLimit(50))
	assert.Equal(t, 200, ClampLimit(5000))
}

func TestLedgerRecordAndQuery(t *testing.T) {
	cal := riyadh(t)
	store := memory.NewStore()
	ledger := NewLedger(memory.NewAuditRepository(store), cal)
	ctx := context.Background()
	staffID := "s-1"

	for i := 0; i < 3; i++ {
		_, err := ledger.Record(ctx, "admin", Entry{StaffID: &staffID, Action: domain.ActionStaffUpdateField, Field: strPtr("f"), New: i})
		require.NoError(t, err)
	}
	require.NoError(t, ledger.RecordChanges(ctx, "admin", domain.ActionStaffSelfUpdateField, &staffID, nil, []FieldChange{
		{Field: domain.FieldMobileNo, Old: "1", New: "2"},
		{Field: domain.FieldCareEmail, Old: nil, New: "a@b.c"},
	}))

	entries, err := ledger.Query(ctx, domain.AuditFilter{StaffID: &staffID, Limit: 1000})
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, domain.FieldCareEmail, *entries[0].Field)
	assert.Nil(t, entries[0].OldValue)
	assert.Equal(t, "0", *entries[4].NewValue)

	limited, err := ledger.Query(ctx, domain.AuditFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLedgerEscalatesWriteFailures(t *testing.T) {
	boom := errors.New("disk full")
	ledger := NewLedger(memory.NewFailingAuditRepository(memory.NewStore(), boom), riyadh(t))
	_, err := ledger.Record(context.Background(), "admin", Entry{Action: domain.ActionDocCreate})
	assert.ErrorIs(t, err, boom)
}
