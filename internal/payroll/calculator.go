package payroll

import (
	"errors"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

var ErrNoSalaryStructure = errors.New("errNoActiveSalaryStructure")

const (
	daysPerMonth = 30.0
	hoursPerDay  = 8.0
	overtimeRate = 1.5
)

// CalculateSalary выводит расчётный лист из структуры оклада и, если
// передана, сводки посещаемости. Чистая функция: ничего не сохраняет.
func CalculateSalary(structure *dto.SalaryStructure, attendance *dto.AttendanceSummary) (*dto.Payslip, error) {
	if structure == nil {
		return nil, ErrNoSalaryStructure
	}

	slip := &dto.Payslip{
		SubjectID:  structure.SubjectID,
		Gross:      structure.TotalEarnings,
		Deductions: structure.TotalDeductions,
	}

	if attendance != nil {
		slip.Period = attendance.Period

		dailyRate := structure.BasicSalary / daysPerMonth

		if attendance.TotalDays > 0 {
			ratio := float64(attendance.PresentDays) / float64(attendance.TotalDays)
			slip.AttendanceAdjustment = ratio*structure.BasicSalary - structure.BasicSalary
			slip.Gross += slip.AttendanceAdjustment
		}

		slip.OvertimePay = attendance.OvertimeHours * (dailyRate / hoursPerDay) * overtimeRate
		slip.Gross += slip.OvertimePay

		slip.LOPDeduction = float64(attendance.LOPDays) * dailyRate
		slip.Deductions += slip.LOPDeduction
	}

	slip.Net = slip.Gross - slip.Deductions

	return slip, nil
}
