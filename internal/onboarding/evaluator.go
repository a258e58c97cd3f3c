package onboarding

import (
	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

// PassThresholdPercent — минимальный процент баллов для зачёта раунда.
const PassThresholdPercent = 70.0

// RoundResult — итог проверки одного раунда интервью.
type RoundResult struct {
	RoundNumber int     `json:"round_number"`
	Score       int     `json:"score"`
	TotalPoints int     `json:"total_points"`
	Percentage  float64 `json:"percentage"`
	Passed      bool    `json:"passed"`
}

// EvaluateRound сверяет ответы с ключом позиционно. Ответы сверх ключа
// игнорируются, недостающие позиции баллов не получают.
func EvaluateRound(key []dto.InterviewQuestion, answers []string) RoundResult {
	res := RoundResult{}

	for i, q := range key {
		res.TotalPoints += q.Points

		if i >= len(answers) {
			continue
		}
		if answers[i] == q.CorrectAnswer {
			res.Score += q.Points
		}
	}

	if res.TotalPoints > 0 {
		res.Percentage = float64(res.Score) / float64(res.TotalPoints) * 100
	}
	res.Passed = res.Percentage >= PassThresholdPercent

	if len(key) > 0 {
		res.RoundNumber = key[0].RoundNumber
	}

	return res
}
