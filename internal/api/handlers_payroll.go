package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
	"github.com/Premm1996/Truehire-sub004/internal/payroll"
)

type calculateSalaryReq struct {
	Period string `json:"period" example:"2026-08"` // Расчётный период (YYYY-MM)
}

// @Summary Расчёт зарплаты за период
// @Tags    Payroll
// @Accept  json
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Param   request body calculateSalaryReq true "Период"
// @description Загружает активную структуру оклада и (если есть) сводку посещаемости,
// @description считает расчётный лист и сохраняет его.
// @Success 200 {object} dto.Payslip
// @Failure 400 {object} errorResponse "VALIDATION ERROR"
// @Failure 404 {object} errorResponse "структура оклада не заведена"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /payroll/{subject_id}/calculate [post]
func (s *Service) calculateSalary(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	var req calculateSalaryReq
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	if msg := validatePeriod(req.Period); msg != "" {
		writeError(ctx, fasthttp.StatusBadRequest, errors.New(msg))
		return
	}

	structure, err := s.payroll.ActiveSalaryStructure(ctx, subjectID)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			writeError(ctx, fasthttp.StatusNotFound, ErrNoSalaryStructure)
			return
		}

		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("payrollRepository.ActiveSalaryStructure: %w", err))
		return
	}

	// сводка посещаемости опциональна: без неё лист считается по структуре
	attendance, err := s.payroll.AttendanceSummary(ctx, subjectID, req.Period)
	if err != nil && !errors.Is(err, dto.ErrNotFound) {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("payrollRepository.AttendanceSummary: %w", err))
		return
	}

	slip, err := payroll.CalculateSalary(structure, attendance)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("payroll.CalculateSalary: %w", err))
		return
	}
	slip.Period = req.Period

	saved, err := s.payroll.InsertPayslip(ctx, *slip)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("payrollRepository.InsertPayslip: %w", err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, saved)
}

// @Summary Список расчётных листов сотрудника
// @Tags    Payroll
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Success 200 {array} dto.Payslip
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /payroll/{subject_id}/payslips [get]
func (s *Service) listPayslips(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	rows, err := s.payroll.ListPayslips(ctx, subjectID)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("payrollRepository.ListPayslips: %w", err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, rows)
}
