package dto

import (
	"time"
)

// StageState — текущее положение сотрудника в онбординге (одна строка на сотрудника, upsert).
type StageState struct {
	SubjectID     string     `json:"subject_id" example:"e-1024"`          // Идентификатор сотрудника
	Stage         Stage      `json:"stage" example:"INTERVIEW"`            // Текущий этап
	Status        Status     `json:"status" example:"IN_PROGRESS"`         // Состояние этапа
	FailedAtStage *Stage     `json:"failed_at_stage,omitempty"`            // Этап, на котором произошёл провал
	FailedReason  *string    `json:"failed_reason,omitempty"`              // Причина провала
	FailedAt      *time.Time `json:"failed_at,omitempty"`                  // Время провала
	RetryAfter    *time.Time `json:"retry_after,omitempty"`                // До этого времени повторные попытки заблокированы
	CompletedAt   *time.Time `json:"completed_at,omitempty"`               // Время завершения онбординга (ставится один раз)
	UpdatedAt     time.Time  `json:"updated_at"`
}

// InterviewRound — один из трёх раундов интервью.
type InterviewRound struct {
	ID          int64       `json:"id" example:"42"`
	SubjectID   string      `json:"subject_id" example:"e-1024"`
	RoundNumber int         `json:"round_number" example:"1"` // 1..3
	Status      RoundStatus `json:"status" example:"pending"`
	Score       int         `json:"score" example:"80"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Document — загруженный документ сотрудника (append-only).
type Document struct {
	ID           int64     `json:"id" example:"7"`
	SubjectID    string    `json:"subject_id" example:"e-1024"`
	DocumentType string    `json:"document_type" example:"resume"` // Тип документа из требуемого набора
	FilePath     string    `json:"file_path" example:"uploads/e-1024/resume.pdf"`
	FileName     *string   `json:"file_name,omitempty" example:"resume.pdf"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// OfferLetter — оффер: выдаётся администратором, позже подписывается сотрудником.
type OfferLetter struct {
	ID             int64       `json:"id" example:"3"`
	SubjectID      string      `json:"subject_id" example:"e-1024"`
	Status         OfferStatus `json:"status" example:"pending"`
	FilePath       string      `json:"file_path" example:"offers/e-1024/offer.pdf"`
	SignedFilePath *string     `json:"signed_file_path,omitempty"`
	IssuedBy       string      `json:"issued_by" example:"admin-7"` // Администратор, выдавший оффер
	IssuedAt       time.Time   `json:"issued_at"`
	SignedAt       *time.Time  `json:"signed_at,omitempty"`
}

// IDCard — пропуск сотрудника, создаётся один раз при завершении онбординга.
type IDCard struct {
	ID          int64     `json:"id" example:"5"`
	SubjectID   string    `json:"subject_id" example:"e-1024"`
	CardNumber  string    `json:"card_number" example:"ID-1761900000123-e-1024"` // Уникальный номер
	FilePath    string    `json:"file_path" example:"cards/e-1024.png"`
	GeneratedAt time.Time `json:"generated_at"`
}

// InterviewQuestion — строка ключа ответов для раунда интервью.
type InterviewQuestion struct {
	RoundNumber   int    `json:"round_number" example:"1"`
	Position      int    `json:"position" example:"0"` // Позиция вопроса в раунде
	Question      string `json:"question" example:"Чем отличается slice от array?"`
	CorrectAnswer string `json:"correct_answer" example:"b"`
	Points        int    `json:"points" example:"10"`
}

// OnboardingStatus — агрегат состояния онбординга для выдачи наружу.
type OnboardingStatus struct {
	State     StageState       `json:"state"`
	Rounds    []InterviewRound `json:"interview_rounds"`
	Documents []Document       `json:"documents"`
	Offer     *OfferLetter     `json:"offer_letter,omitempty"`
	IDCard    *IDCard          `json:"id_card,omitempty"`
}
