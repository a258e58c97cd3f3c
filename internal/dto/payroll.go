package dto

import (
	"time"
)

// SalaryStructure — актуальная структура оклада сотрудника.
type SalaryStructure struct {
	ID              int64     `json:"id" example:"11"`
	SubjectID       string    `json:"subject_id" example:"e-1024"`
	BasicSalary     float64   `json:"basic_salary" example:"30000"`
	TotalEarnings   float64   `json:"total_earnings" example:"45000"`   // Оклад + надбавки
	TotalDeductions float64   `json:"total_deductions" example:"5400"`  // Налоги и удержания по структуре
	Active          bool      `json:"active" example:"true"`
	EffectiveFrom   string    `json:"effective_from" example:"2026-01-01"` // Дата начала действия (YYYY-MM-DD)
	UpdatedAt       time.Time `json:"updated_at"`
}

// AttendanceSummary — сводка посещаемости за период, приходит событиями из учёта времени.
type AttendanceSummary struct {
	SubjectID     string    `json:"subject_id" example:"e-1024"`
	Period        string    `json:"period" example:"2026-08"` // Период (YYYY-MM)
	PresentDays   int       `json:"present_days" example:"20"`
	TotalDays     int       `json:"total_days" example:"22"`
	LOPDays       int       `json:"lop_days" example:"1"` // Дни без сохранения оплаты
	OvertimeHours float64   `json:"overtime_hours" example:"4"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Payslip — расчётный лист за период.
type Payslip struct {
	ID                   int64     `json:"id" example:"9"`
	SubjectID            string    `json:"subject_id" example:"e-1024"`
	Period               string    `json:"period" example:"2026-08"`
	Gross                float64   `json:"gross" example:"44772.73"`
	Deductions           float64   `json:"deductions" example:"6400"`
	Net                  float64   `json:"net" example:"38372.73"`
	AttendanceAdjustment float64   `json:"attendance_adjustment" example:"-2727.27"`
	OvertimePay          float64   `json:"overtime_pay" example:"750"`
	LOPDeduction         float64   `json:"lop_deduction" example:"1000"`
	CreatedAt            time.Time `json:"created_at"`
}
