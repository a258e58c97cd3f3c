package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
	"github.com/Premm1996/Truehire-sub004/internal/onboarding"
)

// @Summary Проверка здоровья сервиса
// @Tags    Admin
// @Success 200 {object} okResponse
// @Router  /health [get]
func (s *Service) healthHandler(ctx *fasthttp.RequestCtx) {
	ok(ctx, "OK")
}

// @Summary Полная очистка данных (truncate tables.*)
// @Tags    Admin
// @Success 200 {object} okResponse
// @Failure 500 {object} errorResponse
// @Router  /admin/reset [post]
func (s *Service) resetHandler(ctx *fasthttp.RequestCtx) {
	if err := s.events.ResetAll(ctx); err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("events.ResetAll: %w", err))
		return
	}

	ok(ctx, "Все данные очищены")
}

// @Summary Вопрос банка интервью: вставка либо замена по (round, position)
// @Tags    Admin
// @Accept  json
// @Produce json
// @Param   request body dto.InterviewQuestion true "Вопрос с верным ответом и весом"
// @Success 200 {object} okResponse
// @Failure 400 {object} errorResponse "VALIDATION ERROR"
// @Failure 500 {object} errorResponse
// @Router  /admin/interview-questions [put]
func (s *Service) upsertInterviewQuestion(ctx *fasthttp.RequestCtx) {
	var q dto.InterviewQuestion
	if err := json.Unmarshal(ctx.PostBody(), &q); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	if msg := validateQuestion(q); msg != "" {
		writeError(ctx, fasthttp.StatusBadRequest, errors.New(msg))
		return
	}

	if err := s.questions.Upsert(ctx, q); err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("questions.Upsert: %w", err))
		return
	}

	ok(ctx, "Вопрос сохранён")
}

// @Summary Вопросы раунда (с верными ответами — только для админки)
// @Tags    Admin
// @Produce json
// @Param   round path int true "Номер раунда (1..3)"
// @Success 200 {array} dto.InterviewQuestion
// @Failure 400 {object} errorResponse "номер раунда вне диапазона"
// @Failure 500 {object} errorResponse
// @Router  /admin/interview-questions/{round} [get]
func (s *Service) listInterviewQuestions(ctx *fasthttp.RequestCtx) {
	rawRound, _ := ctx.UserValue("round").(string)
	roundNumber, err := strconv.Atoi(rawRound)
	if err != nil || roundNumber < 1 || roundNumber > onboarding.InterviewRounds {
		writeError(ctx, fasthttp.StatusBadRequest, ErrRoundInvalid)
		return
	}

	rows, err := s.questions.AnswerKey(ctx, roundNumber)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("questions.AnswerKey: %w", err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, rows)
}

// @Summary Журнал входящих Kafka-событий
// @Tags    Admin
// @Produce json
// @Success 200 {array} dto.KafkaEvent
// @Failure 500 {object} errorResponse
// @Router  /events [get]
func (s *Service) listEvents(ctx *fasthttp.RequestCtx) {
	rows, err := s.events.ListEvents(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("events.ListEvents: %w", err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, rows)
}

// @Summary Сообщения DLQ
// @Tags    Admin
// @Produce json
// @Success 200 {array} dto.KafkaDLQ
// @Failure 500 {object} errorResponse
// @Router  /dlq [get]
func (s *Service) listDLQ(ctx *fasthttp.RequestCtx) {
	rows, err := s.events.ListDLQ(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("events.ListDLQ: %w", err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, rows)
}
