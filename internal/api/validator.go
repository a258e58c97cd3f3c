package api

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
	"github.com/Premm1996/Truehire-sub004/internal/onboarding"
)

var regexPeriod = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func validateAnswers(answers []string) string {
	if len(answers) == 0 {
		return "required field 'answers'"
	}

	for i, a := range answers {
		if strings.TrimSpace(a) == "" {
			return fmt.Sprintf("invalid value in field 'answers[%d]'", i)
		}
	}

	return ""
}

func validateDocumentUpload(req uploadDocumentReq) string {
	if strings.TrimSpace(req.DocumentType) == "" {
		return "required field 'document_type'"
	}

	if !onboarding.KnownDocumentType(req.DocumentType) {
		return fmt.Sprintf("invalid enum value: document_type %s not in required types %v",
			req.DocumentType, onboarding.RequiredDocumentTypes)
	}

	if strings.TrimSpace(req.FilePath) == "" {
		return "required field 'file_path'"
	}

	return ""
}

func validateQuestion(q dto.InterviewQuestion) string {
	if q.RoundNumber < 1 || q.RoundNumber > onboarding.InterviewRounds {
		return fmt.Sprintf("invalid value in field 'round_number'=%d", q.RoundNumber)
	}

	if q.Position < 0 {
		return fmt.Sprintf("invalid value in field 'position'=%d", q.Position)
	}

	if strings.TrimSpace(q.Question) == "" {
		return "required field 'question'"
	}

	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return "required field 'correct_answer'"
	}

	if q.Points <= 0 {
		return fmt.Sprintf("invalid value in field 'points'=%d", q.Points)
	}

	return ""
}

func validatePeriod(period string) string {
	if strings.TrimSpace(period) == "" {
		return "required field 'period'"
	}

	if !regexPeriod.MatchString(period) {
		return fmt.Sprintf("invalid value in field 'period'=%s", period)
	}

	return ""
}
