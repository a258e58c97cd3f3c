package dto

import "fmt"

// Stage — этап онбординга сотрудника.
type Stage string

const (
	StageProfile   Stage = "PROFILE"
	StageInterview Stage = "INTERVIEW"
	StageDocuments Stage = "DOCUMENTS"
	StageOffer     Stage = "OFFER"
	StageIDCard    Stage = "ID_CARD"
	StageCompleted Stage = "COMPLETED"
	StageFailed    Stage = "FAILED"
)

// StageOrder — порядок прохождения этапов. FAILED вне порядка.
var StageOrder = []Stage{
	StageProfile,
	StageInterview,
	StageDocuments,
	StageOffer,
	StageIDCard,
	StageCompleted,
}

// Index возвращает позицию этапа в StageOrder, -1 для FAILED и неизвестных значений.
func (s Stage) Index() int {
	for i, st := range StageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool {
	switch s {
	case StageProfile, StageInterview, StageDocuments, StageOffer, StageIDCard, StageCompleted, StageFailed:
		return true
	}
	return false
}

func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}

// Status — состояние выполнения текущего этапа.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// RoundStatus — состояние раунда интервью.
type RoundStatus string

const (
	RoundPending RoundStatus = "pending"
	RoundPassed  RoundStatus = "passed"
	RoundFailed  RoundStatus = "failed"
)

// OfferStatus — состояние оффера.
type OfferStatus string

const (
	OfferPending OfferStatus = "pending"
	OfferSigned  OfferStatus = "signed"
)
