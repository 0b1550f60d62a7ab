package audit

import (
	"strconv"
	"time"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
)

// FieldChange is one differing attribute between two snapshots.
type FieldChange struct {
	Field string
	Old   any
	New   any
}

// DiffStaff lists the patchable fields that differ between before and after, in the
// canonical field order. Derived fields are never reported.
func DiffStaff(before, after *domain.Staff) []FieldChange {
	var changes []FieldChange
	for _, f := range domain.StaffFields {
		oldV, newV := f.Value(before), f.Value(after)
		if !equalValues(oldV, newV) {
			changes = append(changes, FieldChange{Field: f.Name, Old: oldV, New: newV})
		}
	}
	return changes
}

// DiffDocument lists editable document fields that differ.
func DiffDocument(before, after *domain.Document) []FieldChange {
	pairs := []FieldChange{
		{Field: domain.FieldCustomName, Old: before.CustomName, New: after.CustomName},
		{Field: domain.FieldIssueDate, Old: before.IssueDate, New: after.IssueDate},
		{Field: domain.FieldExpiryDate, Old: before.ExpiryDate, New: after.ExpiryDate},
	}
	var changes []FieldChange
	for _, p := range pairs {
		if !equalValues(p.Old, p.New) {
			changes = append(changes, p)
		}
	}
	return changes
}

// equalValues treats nil and the empty string as equal and compares instants by time.
func equalValues(a, b any) bool {
	ta, oka := normalized(a)
	tb, okb := normalized(b)
	if !oka || !okb {
		return oka == okb
	}
	return ta == tb
}

func normalized(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return t.UTC().Format(time.RFC3339Nano), true
	}
	s := Text(v, temporal.Calendar{})
	if s == nil || *s == "" {
		return "", false
	}
	return *s, true
}

// Text renders a value for storage. Nil, nil pointers and empty strings yield nil. Times
// become YYYY-MM-DD in the calendar zone.
func Text(v any, cal temporal.Calendar) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case *string:
		if t == nil {
			return nil
		}
		s = *t
	case bool:
		s = strconv.FormatBool(t)
	case *bool:
		if t == nil {
			return nil
		}
		s = strconv.FormatBool(*t)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case time.Time:
		s = cal.FormatDate(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		s = cal.FormatDate(*t)
	case interface{ String() string }:
		s = t.String()
	default:
		if str, ok := stringKind(v); ok {
			s = str
		} else {
			return nil
		}
	}
	if s == "" {
		return nil
	}
	return &s
}

// stringKind handles named string types such as domain.Gender.
func stringKind(v any) (string, bool) {
	switch t := v.(type) {
	case domain.Gender:
		return string(t), true
	case domain.DocType:
		return string(t), true
	case domain.VerificationStatus:
		return string(t), true
	case domain.Role:
		return string(t), true
	}
	return "", false
}
