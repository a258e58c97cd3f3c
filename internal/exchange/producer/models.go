package producer

import (
	"time"

	"github.com/google/uuid"
)

// Envelope — конверт исходящего события онбординга.
type Envelope[T any] struct {
	Kind      string    `json:"kind" example:"interview_failed"`   // Тип события
	MessageID uuid.UUID `json:"message_id"`                        // Идентификатор события (UUID v4)
	SubjectID string    `json:"subject_id" example:"e-1024"`       // Идентификатор сотрудника
	Payload   T         `json:"payload"`                           // Полезная нагрузка
	Timestamp time.Time `json:"timestamp"`                         // Время формирования события
	Source    string    `json:"source" example:"onboarding-core"`  // Сервис-источник
}

// InterviewFailedPayload — интервью провалено, онбординг заблокирован до retry_after.
type InterviewFailedPayload struct {
	SubjectID   string    `json:"subject_id"`
	RoundNumber int       `json:"round_number"`
	RetryAfter  time.Time `json:"retry_after"`
}

// DocumentsCompletePayload — собран полный набор обязательных документов.
type DocumentsCompletePayload struct {
	SubjectID string `json:"subject_id"`
}

// OfferIssuedPayload — администратор выдал оффер.
type OfferIssuedPayload struct {
	SubjectID string `json:"subject_id"`
	IssuedBy  string `json:"issued_by"`
}

// OnboardingCompletedPayload — онбординг завершён, выпущен пропуск.
type OnboardingCompletedPayload struct {
	SubjectID  string `json:"subject_id"`
	CardNumber string `json:"card_number"`
}
