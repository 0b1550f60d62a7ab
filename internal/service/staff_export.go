package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
)

// CSV export response metadata.
const (
	ExportContentType = "text/csv; charset=utf-8"
	ExportFileName    = "staff_export.csv"
)

var exportHeader = []string{
	"ID No.", "STAFF NAME", "Current AREA", "Current POST", "Gender", "BIRTHDAY",
	"NATIONALITY", "JOINING DATE", "Contract Expire", "Remaining", "Contract Status",
	"CONTRACT TYPE", "IQAMA NO.", "PASSPORT NO.", "DEGREE", "SPECIALITY", "SAUDI COUNCIL",
	"CLASSIFICATION", "DATA FLOW", "MOH", "BLS", "ACLS", "C. SEDATION", "MOBILE NO.",
	"Personal E-MAIL", "Care Email",
}

// ExportCSV renders every staff record ordered by name. The header row is bare; every
// data cell is double-quoted. Rows are separated by "\n" with no trailing newline.
func (s *StaffService) ExportCSV(ctx context.Context, p *domain.Principal) ([]byte, error) {
	if err := s.Policy.CanExport(p); err != nil {
		return nil, err
	}
	rows, err := s.staff.ListAllByName(ctx)
	if err != nil {
		return nil, mapRepoErr(err, "staff")
	}

	now := s.now()
	var b strings.Builder
	b.WriteString(strings.Join(exportHeader, ","))
	for i := range rows {
		st := &rows[i]
		rem := st.RemainingContractDays(s.Calendar, now)
		cells := []string{
			st.IDNo, st.StaffName, st.CurrentArea, st.CurrentPost, string(st.Gender),
			s.Calendar.FormatDate(st.Birthday),
			st.Nationality,
			s.Calendar.FormatDate(st.JoiningDate),
			s.Calendar.FormatDate(st.ContractExpire),
			strconv.Itoa(rem),
			string(status.Contract(rem, st.Suspended)),
			st.ContractType,
			deref(st.IqamaNo), deref(st.PassportNo), deref(st.Degree), deref(st.Speciality),
			deref(st.SaudiCouncil), deref(st.Classification), deref(st.DataFlow),
			deref(st.MOH), deref(st.BLS), deref(st.ACLS), deref(st.CSedation),
			st.MobileNo, st.PersonalEmail, st.CareEmail,
		}
		b.WriteByte('\n')
		for j, c := range cells {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCell(c))
		}
	}
	return []byte(b.String()), nil
}

func quoteCell(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
