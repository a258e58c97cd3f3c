package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

var (
	ErrSubjectIDRequired = errors.New("поле subject_id не передано")
	ErrRoundInvalid      = errors.New("номер раунда должен быть от 1 до 3")
	ErrStageInvalid      = errors.New("неизвестный этап")

	ErrOnboardingNotStarted = errors.New("онбординг не начат")
	ErrNoSalaryStructure    = errors.New("структура оклада не заведена")
)

type okResponse struct {
	Status string `json:"status" example:"ok"`
	Msg    string `json:"msg" example:"Готово"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// transitionResponse — отказ в переходе с деталями для UI.
type transitionResponse struct {
	Code          string     `json:"code"`
	Message       string     `json:"message"`
	CurrentStage  dto.Stage  `json:"current_stage"`
	CurrentStatus dto.Status `json:"current_status"`
	RetryAfter    *time.Time `json:"retry_after,omitempty"`
}

func writeJSON(ctx *fasthttp.RequestCtx, statusCode int, body any) {
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.SetStatusCode(statusCode)

	_ = json.NewEncoder(ctx).Encode(body)
}

func ok(ctx *fasthttp.RequestCtx, msg string) {
	writeJSON(ctx, fasthttp.StatusOK, okResponse{Status: "ok", Msg: msg})
}

func writeError(ctx *fasthttp.RequestCtx, httpStatus int, err error) {
	writeJSON(ctx, httpStatus, errorResponse{Code: fasthttp.StatusMessage(httpStatus), Message: err.Error()})
}
