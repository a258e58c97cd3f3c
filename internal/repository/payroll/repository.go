package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

type PgxPoolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository — структура оклада, сводки посещаемости и расчётные листы.
type Repository struct {
	pool PgxPoolIface
}

func NewRepository(pool PgxPoolIface) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ActiveSalaryStructure(ctx context.Context, subjectID string) (*dto.SalaryStructure, error) {
	query := `
select id, subject_id, basic_salary, total_earnings, total_deductions, active,
       to_char(effective_from,'YYYY-MM-DD'), updated_at
from salary_structures
where subject_id = $1 and active
order by effective_from desc, id desc
limit 1;
`
	var s dto.SalaryStructure

	err := r.pool.QueryRow(ctx, query, subjectID).Scan(
		&s.ID,
		&s.SubjectID,
		&s.BasicSalary,
		&s.TotalEarnings,
		&s.TotalDeductions,
		&s.Active,
		&s.EffectiveFrom,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &s, nil
}

func (r *Repository) AttendanceSummary(ctx context.Context, subjectID, period string) (*dto.AttendanceSummary, error) {
	query := `
select subject_id, period, present_days, total_days, lop_days, overtime_hours, updated_at
from attendance_summaries
where subject_id = $1 and period = $2;
`
	var a dto.AttendanceSummary

	err := r.pool.QueryRow(ctx, query, subjectID, period).Scan(
		&a.SubjectID,
		&a.Period,
		&a.PresentDays,
		&a.TotalDays,
		&a.LOPDays,
		&a.OvertimeHours,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &a, nil
}

// UpsertAttendance принимает сводку из событий учёта времени: последняя
// версия за период побеждает.
func (r *Repository) UpsertAttendance(ctx context.Context, a dto.AttendanceSummary) error {
	query := `
insert into attendance_summaries (subject_id, period, present_days, total_days, lop_days, overtime_hours, updated_at)
values (@subject_id, @period, @present_days, @total_days, @lop_days, @overtime_hours, now())
on conflict (subject_id, period) do update set
  present_days   = excluded.present_days,
  total_days     = excluded.total_days,
  lop_days       = excluded.lop_days,
  overtime_hours = excluded.overtime_hours,
  updated_at     = now();
`
	args := pgx.NamedArgs{
		"subject_id":     a.SubjectID,
		"period":         a.Period,
		"present_days":   a.PresentDays,
		"total_days":     a.TotalDays,
		"lop_days":       a.LOPDays,
		"overtime_hours": a.OvertimeHours,
	}

	if _, err := r.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

func (r *Repository) InsertPayslip(ctx context.Context, p dto.Payslip) (*dto.Payslip, error) {
	query := `
insert into payslips
  (subject_id, period, gross, deductions, net, attendance_adjustment, overtime_pay, lop_deduction, created_at)
values
  (@subject_id, @period, @gross, @deductions, @net, @attendance_adjustment, @overtime_pay, @lop_deduction, now())
returning id, created_at;
`
	args := pgx.NamedArgs{
		"subject_id":            p.SubjectID,
		"period":                p.Period,
		"gross":                 p.Gross,
		"deductions":            p.Deductions,
		"net":                   p.Net,
		"attendance_adjustment": p.AttendanceAdjustment,
		"overtime_pay":          p.OvertimePay,
		"lop_deduction":         p.LOPDeduction,
	}

	if err := r.pool.QueryRow(ctx, query, args).Scan(&p.ID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &p, nil
}

func (r *Repository) ListPayslips(ctx context.Context, subjectID string) ([]dto.Payslip, error) {
	query := `
select id, subject_id, period, gross, deductions, net, attendance_adjustment, overtime_pay, lop_deduction, created_at
from payslips
where subject_id = $1
order by period desc, id desc;
`
	rows, err := r.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var out []dto.Payslip
	for rows.Next() {
		var p dto.Payslip

		err = rows.Scan(&p.ID, &p.SubjectID, &p.Period, &p.Gross, &p.Deductions, &p.Net,
			&p.AttendanceAdjustment, &p.OvertimePay, &p.LOPDeduction, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}
