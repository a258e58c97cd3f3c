package consumer

import (
	"time"

	"github.com/google/uuid"
)

// Envelope — конверт входящего события учёта времени.
type Envelope[T any] struct {
	Kind      string    `json:"kind"` // attendance
	MessageID uuid.UUID `json:"message_id"`
	SubjectID string    `json:"subject_id"`
	Payload   T         `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // сервис-источник
}

// AttendancePayload — сводка посещаемости сотрудника за период.
type AttendancePayload struct {
	SubjectID     string  `json:"subject_id"`
	Period        string  `json:"period"` // YYYY-MM
	PresentDays   int     `json:"present_days"`
	TotalDays     int     `json:"total_days"`
	LOPDays       int     `json:"lop_days"`
	OvertimeHours float64 `json:"overtime_hours"`
}
