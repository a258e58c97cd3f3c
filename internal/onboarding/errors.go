package onboarding

import (
	"errors"
	"fmt"
	"time"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

var (
	ErrRoundAlreadyScored  = errors.New("errInterviewRoundAlreadyScored")
	ErrNoAnswerKey         = errors.New("errNoAnswerKeyForRound")
	ErrUnknownDocumentType = errors.New("errUnknownDocumentType")
	ErrNoPendingOffer      = errors.New("errNoPendingOfferLetter")
)

// TransitionError — отказ в переходе: неверный порядок этапов либо
// действующая блокировка после провала. Несёт детали для ответа наружу.
type TransitionError struct {
	SubjectID  string     `json:"subject_id"`
	Target     dto.Stage  `json:"target_stage"`
	Current    dto.Stage  `json:"current_stage"`
	Status     dto.Status `json:"current_status"`
	RetryAfter *time.Time `json:"retry_after,omitempty"`
}

func (e *TransitionError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("transition to %s rejected: subject %s is %s at %s, retry after %s",
			e.Target, e.SubjectID, e.Status, e.Current, e.RetryAfter.Format(time.RFC3339))
	}
	return fmt.Sprintf("transition to %s rejected: subject %s is %s at %s",
		e.Target, e.SubjectID, e.Status, e.Current)
}

// AsTransitionError — удобная проверка для обработчиков.
func AsTransitionError(err error) (*TransitionError, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
