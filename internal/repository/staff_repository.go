package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/persistence"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
)

const staffColumns = `id, id_no, staff_name, current_area, current_post, gender, birthday, nationality,
        joining_date, contract_expire, contract_type, contract_status, suspended, iqama_no,
        passport_no, degree, speciality, saudi_council, classification, data_flow, moh, bls, acls,
        c_sedation, mobile_no, personal_email, care_email, notes, created_at, updated_at`

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository returns a Postgres-backed implementation.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

func (r *staffRepository) Create(ctx context.Context, s *domain.Staff) error {
	const query = `
        INSERT INTO staff (id_no, staff_name, current_area, current_post, gender, birthday, nationality,
            joining_date, contract_expire, contract_type, contract_status, suspended, iqama_no,
            passport_no, degree, speciality, saudi_council, classification, data_flow, moh, bls, acls,
            c_sedation, mobile_no, personal_email, care_email, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
        RETURNING id, created_at, updated_at`

	err := persistence.Conn(ctx, r.pool).QueryRow(ctx, query,
		s.IDNo, s.StaffName, s.CurrentArea, s.CurrentPost, s.Gender, s.Birthday, s.Nationality,
		s.JoiningDate, s.ContractExpire, s.ContractType, s.ContractStatus, s.Suspended, s.IqamaNo,
		s.PassportNo, s.Degree, s.Speciality, s.SaudiCouncil, s.Classification, s.DataFlow, s.MOH,
		s.BLS, s.ACLS, s.CSedation, s.MobileNo, s.PersonalEmail, s.CareEmail, s.Notes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if persistence.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *staffRepository) Update(ctx context.Context, s *domain.Staff) error {
	const query = `
        UPDATE staff SET staff_name=$1, current_area=$2, current_post=$3, gender=$4, birthday=$5,
            nationality=$6, joining_date=$7, contract_expire=$8, contract_type=$9, contract_status=$10,
            suspended=$11, iqama_no=$12, passport_no=$13, degree=$14, speciality=$15, saudi_council=$16,
            classification=$17, data_flow=$18, moh=$19, bls=$20, acls=$21, c_sedation=$22,
            mobile_no=$23, personal_email=$24, care_email=$25, notes=$26, updated_at=NOW()
        WHERE id=$27
        RETURNING updated_at`

	err := persistence.Conn(ctx, r.pool).QueryRow(ctx, query,
		s.StaffName, s.CurrentArea, s.CurrentPost, s.Gender, s.Birthday, s.Nationality,
		s.JoiningDate, s.ContractExpire, s.ContractType, s.ContractStatus, s.Suspended, s.IqamaNo,
		s.PassportNo, s.Degree, s.Speciality, s.SaudiCouncil, s.Classification, s.DataFlow, s.MOH,
		s.BLS, s.ACLS, s.CSedation, s.MobileNo, s.PersonalEmail, s.CareEmail, s.Notes, s.ID,
	).Scan(&s.UpdatedAt)
	return mapNoRows(err)
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id=$1`
	return scanStaff(persistence.Conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *staffRepository) GetForUpdate(ctx context.Context, id string) (*domain.Staff, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id=$1 FOR UPDATE`
	return scanStaff(persistence.Conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.Staff, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(staff_name) LIKE %[1]s OR LOWER(id_no) LIKE %[1]s OR LOWER(personal_email) LIKE %[1]s OR LOWER(care_email) LIKE %[1]s)",
			placeholder))
	}
	if filter.Area != "" {
		args = append(args, filter.Area)
		clauses = append(clauses, fmt.Sprintf("current_area=$%d", len(args)))
	}
	if filter.Post != "" {
		args = append(args, filter.Post)
		clauses = append(clauses, fmt.Sprintf("current_post=$%d", len(args)))
	}
	if filter.Gender != "" {
		args = append(args, filter.Gender)
		clauses = append(clauses, fmt.Sprintf("gender=$%d", len(args)))
	}
	if filter.Nationality != "" {
		args = append(args, filter.Nationality)
		clauses = append(clauses, fmt.Sprintf("nationality=$%d", len(args)))
	}
	if filter.ContractStatus != "" {
		args = append(args, filter.ContractStatus)
		clauses = append(clauses, fmt.Sprintf("contract_status=$%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")
	conn := persistence.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM staff WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM staff WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		staffColumns, where, limit, offset)
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result, err := scanStaffRows(rows)
	return result, total, err
}

func (r *staffRepository) ListAllByName(ctx context.Context) ([]domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff ORDER BY staff_name ASC, id ASC`
	rows, err := persistence.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStaffRows(rows)
}

func (r *staffRepository) UpdateContractStatus(ctx context.Context, id string, s status.ContractStatus) error {
	const query = `UPDATE staff SET contract_status=$1 WHERE id=$2`
	cmd, err := persistence.Conn(ctx, r.pool).Exec(ctx, query, s, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var s domain.Staff
	if err := row.Scan(staffDest(&s)...); err != nil {
		return nil, mapNoRows(err)
	}
	return &s, nil
}

func scanStaffRows(rows pgx.Rows) ([]domain.Staff, error) {
	var result []domain.Staff
	for rows.Next() {
		var s domain.Staff
		if err := rows.Scan(staffDest(&s)...); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func staffDest(s *domain.Staff) []any {
	return []any{
		&s.ID, &s.IDNo, &s.StaffName, &s.CurrentArea, &s.CurrentPost, &s.Gender, &s.Birthday,
		&s.Nationality, &s.JoiningDate, &s.ContractExpire, &s.ContractType, &s.ContractStatus,
		&s.Suspended, &s.IqamaNo, &s.PassportNo, &s.Degree, &s.Speciality, &s.SaudiCouncil,
		&s.Classification, &s.DataFlow, &s.MOH, &s.BLS, &s.ACLS, &s.CSedation, &s.MobileNo,
		&s.PersonalEmail, &s.CareEmail, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	}
}
