package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
	"github.com/Premm1996/Truehire-sub004/internal/onboarding"
)

type submitRoundReq struct {
	Answers []string `json:"answers" example:"a,b,c"` // Ответы позиционно по вопросам раунда
}

type uploadDocumentReq struct {
	DocumentType string  `json:"document_type" example:"resume"`
	FilePath     string  `json:"file_path" example:"uploads/e-1024/resume.pdf"`
	FileName     *string `json:"file_name,omitempty" example:"resume.pdf"`
}

type uploadOfferReq struct {
	AdminID  string `json:"admin_id" example:"admin-7"` // Авторизация вызова — на вышестоящем слое
	FilePath string `json:"file_path" example:"offers/e-1024/offer.pdf"`
}

type signOfferReq struct {
	SignedFilePath string `json:"signed_file_path" example:"offers/e-1024/offer-signed.pdf"`
}

type generateIDCardReq struct {
	FilePath string `json:"file_path" example:"cards/e-1024.png"`
}

type roundResultResponse struct {
	Result *onboarding.RoundResult `json:"result"`
	State  *dto.StageState         `json:"state"`
}

type canProceedResponse struct {
	SubjectID  string    `json:"subject_id"`
	Stage      dto.Stage `json:"stage"`
	CanProceed bool      `json:"can_proceed"`
}

// @Summary Агрегированный статус онбординга
// @Tags    Onboarding
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Success 200 {object} dto.OnboardingStatus
// @Failure 404 {object} errorResponse "онбординг не начат"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /onboarding/{subject_id} [get]
func (s *Service) getOnboardingStatus(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	status, err := s.engine.GetCompleteOnboardingStatus(ctx, subjectID)
	if err != nil {
		s.writeEngineError(ctx, "engine.GetCompleteOnboardingStatus", err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, status)
}

// @Summary Проверка допустимости перехода на этап
// @Tags    Onboarding
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Param   stage path string true "Целевой этап (PROFILE..COMPLETED)"
// @Success 200 {object} canProceedResponse
// @Failure 400 {object} errorResponse "неизвестный этап"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /onboarding/{subject_id}/can-proceed/{stage} [get]
func (s *Service) canProceed(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	raw, _ := ctx.UserValue("stage").(string)
	stage, err := dto.ParseStage(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, ErrStageInvalid)
		return
	}

	can, err := s.engine.CanProceedToStage(ctx, subjectID, stage)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("engine.CanProceedToStage: %w", err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, canProceedResponse{
		SubjectID:  subjectID,
		Stage:      stage,
		CanProceed: can,
	})
}

// @Summary Старт интервью: этап INTERVIEW, три pending-раунда
// @Tags    Onboarding
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Success 200 {object} dto.StageState
// @Failure 409 {object} transitionResponse "переход запрещён / интервью уже начато"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /onboarding/{subject_id}/interview/start [post]
func (s *Service) startInterview(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	state, err := s.engine.StartInterview(ctx, subjectID)
	if err != nil {
		s.writeEngineError(ctx, "engine.StartInterview", err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, state)
}

// @Summary Сдача раунда интервью
// @Tags    Onboarding
// @Accept  json
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Param   round path int true "Номер раунда (1..3)"
// @Param   request body submitRoundReq true "Ответы"
// @Success 200 {object} roundResultResponse "Итог раунда: passed/failed — оба нормальные исходы"
// @Failure 400 {object} errorResponse "VALIDATION ERROR"
// @Failure 404 {object} errorResponse "онбординг не начат / раунд не найден"
// @Failure 409 {object} transitionResponse "переход запрещён, действует блокировка, либо раунд уже закрыт"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /onboarding/{subject_id}/interview/{round}/submit [post]
func (s *Service) submitInterviewRound(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	rawRound, _ := ctx.UserValue("round").(string)
	roundNumber, err := strconv.Atoi(rawRound)
	if err != nil || roundNumber < 1 || roundNumber > onboarding.InterviewRounds {
		writeError(ctx, fasthttp.StatusBadRequest, ErrRoundInvalid)
		return
	}

	var req submitRoundReq
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	if msg := validateAnswers(req.Answers); msg != "" {
		writeError(ctx, fasthttp.StatusBadRequest, errors.New(msg))
		return
	}

	result, state, err := s.engine.SubmitInterviewRound(ctx, subjectID, roundNumber, req.Answers)
	if err != nil {
		s.writeEngineError(ctx, "engine.SubmitInterviewRound", err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, roundResultResponse{Result: result, State: state})
}

// @Summary Загрузка документа
// @Tags    Onboarding
// @Accept  json
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Param   request body uploadDocumentReq true "Документ (файл уже лежит в хранилище, сюда — ссылка)"
// @Success 200 {object} onboarding.DocumentUploadResult
// @Failure 400 {object} errorResponse "неизвестный тип документа"
// @Failure 404 {object} errorResponse "онбординг не начат"
// @Failure 409 {object} transitionResponse "переход запрещён"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /onboarding/{subject_id}/documents [post]
func (s *Service) uploadDocument(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	var req uploadDocumentReq
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	if msg := validateDocumentUpload(req); msg != "" {
		writeError(ctx, fasthttp.StatusBadRequest, errors.New(msg))
		return
	}

	result, err := s.engine.UploadDocument(ctx, dto.Document{
		SubjectID:    subjectID,
		DocumentType: req.DocumentType,
		FilePath:     req.FilePath,
		FileName:     req.FileName,
	})
	if err != nil {
		s.writeEngineError(ctx, "engine.UploadDocument", err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, result)
}

// @Summary Выдача оффера (админ)
// @Tags    Onboarding
// @Accept  json
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Param   request body uploadOfferReq true "Оффер"
// @Success 200 {object} dto.OfferLetter
// @Failure 400 {object} errorResponse "VALIDATION ERROR"
// @Failure 404 {object} errorResponse "онбординг не начат"
// @Failure 409 {object} transitionResponse "переход запрещён"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /onboarding/{subject_id}/offer [post]
func (s *Service) uploadOfferLetter(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	var req uploadOfferReq
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	if strings.TrimSpace(req.AdminID) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, errors.New("required field 'admin_id'"))
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, errors.New("required field 'file_path'"))
		return
	}

	offer, _, err := s.engine.UploadOfferLetter(ctx, req.AdminID, subjectID, req.FilePath)
	if err != nil {
		s.writeEngineError(ctx, "engine.UploadOfferLetter", err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, offer)
}

// @Summary Подписание оффера сотрудником
// @Tags    Onboarding
// @Accept  json
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Param   request body signOfferReq true "Подписанный файл"
// @Success 200 {object} dto.OfferLetter
// @Failure 404 {object} errorResponse "нет неподписанного оффера"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /onboarding/{subject_id}/offer/sign [post]
func (s *Service) signOfferLetter(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	var req signOfferReq
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	if strings.TrimSpace(req.SignedFilePath) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, errors.New("required field 'signed_file_path'"))
		return
	}

	offer, err := s.engine.SignOfferLetter(ctx, subjectID, req.SignedFilePath)
	if err != nil {
		s.writeEngineError(ctx, "engine.SignOfferLetter", err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, offer)
}

// @Summary Выпуск пропуска и завершение онбординга
// @Tags    Onboarding
// @Accept  json
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Param   request body generateIDCardReq true "Файл пропуска"
// @Success 200 {object} dto.IDCard
// @Failure 404 {object} errorResponse "онбординг не начат"
// @Failure 409 {object} transitionResponse "переход запрещён"
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /onboarding/{subject_id}/id-card [post]
func (s *Service) generateIDCard(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	var req generateIDCardReq
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	card, _, err := s.engine.GenerateIDCard(ctx, subjectID, req.FilePath)
	if err != nil {
		s.writeEngineError(ctx, "engine.GenerateIDCard", err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, card)
}

// @Summary Полный перезапуск онбординга (админ)
// @Tags    Onboarding
// @Produce json
// @Param   subject_id path string true "Идентификатор сотрудника"
// @Success 200 {object} dto.StageState
// @Failure 500 {object} errorResponse "Внутренняя ошибка"
// @Router  /admin/onboarding/{subject_id}/reset [post]
func (s *Service) resetOnboarding(ctx *fasthttp.RequestCtx) {
	subjectID, ok := subjectIDFromPath(ctx)
	if !ok {
		return
	}

	state, err := s.engine.ResetOnboardingForRetry(ctx, subjectID)
	if err != nil {
		s.writeEngineError(ctx, "engine.ResetOnboardingForRetry", err)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, state)
}

func subjectIDFromPath(ctx *fasthttp.RequestCtx) (string, bool) {
	subjectID, _ := ctx.UserValue("subject_id").(string)
	if strings.TrimSpace(subjectID) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, ErrSubjectIDRequired)
		return "", false
	}
	return subjectID, true
}

// writeEngineError транслирует ошибки движка в HTTP-статусы.
// Отказ в переходе отдаётся с деталями (этап, статус, retry_after).
func (s *Service) writeEngineError(ctx *fasthttp.RequestCtx, op string, err error) {
	if te, isTransition := onboarding.AsTransitionError(err); isTransition {
		writeJSON(ctx, fasthttp.StatusConflict, transitionResponse{
			Code:          "TRANSITION_REJECTED",
			Message:       te.Error(),
			CurrentStage:  te.Current,
			CurrentStatus: te.Status,
			RetryAfter:    te.RetryAfter,
		})
		return
	}

	switch {
	case errors.Is(err, dto.ErrNotFound):
		writeError(ctx, fasthttp.StatusNotFound, ErrOnboardingNotStarted)
	case errors.Is(err, dto.ErrAlreadyExists):
		writeError(ctx, fasthttp.StatusConflict, err)
	case errors.Is(err, onboarding.ErrRoundAlreadyScored):
		writeError(ctx, fasthttp.StatusConflict, err)
	case errors.Is(err, onboarding.ErrUnknownDocumentType):
		writeError(ctx, fasthttp.StatusBadRequest, err)
	case errors.Is(err, onboarding.ErrNoPendingOffer):
		writeError(ctx, fasthttp.StatusNotFound, err)
	case errors.Is(err, onboarding.ErrNoAnswerKey):
		writeError(ctx, fasthttp.StatusInternalServerError, err)
	default:
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("%s: %w", op, err))
	}
}
