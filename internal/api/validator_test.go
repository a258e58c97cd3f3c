package api

import (
	"testing"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

func TestValidateAnswers(t *testing.T) {
	if msg := validateAnswers([]string{"a", "b", "c"}); msg != "" {
		t.Errorf("valid answers rejected: %s", msg)
	}

	if msg := validateAnswers(nil); msg == "" {
		t.Error("empty answers accepted")
	}
	if msg := validateAnswers([]string{"a", "  ", "c"}); msg == "" {
		t.Error("blank answer accepted")
	}
}

func TestValidateDocumentUpload(t *testing.T) {
	// file_name опционален: запрос без него валиден.
	valid := uploadDocumentReq{
		DocumentType: "resume",
		FilePath:     "uploads/e-1/resume.pdf",
	}
	if msg := validateDocumentUpload(valid); msg != "" {
		t.Errorf("valid request rejected: %s", msg)
	}

	name := "resume.pdf"
	valid.FileName = &name
	if msg := validateDocumentUpload(valid); msg != "" {
		t.Errorf("request with file_name rejected: %s", msg)
	}

	cases := []struct {
		name string
		req  uploadDocumentReq
	}{
		{"empty type", uploadDocumentReq{FilePath: "x.pdf"}},
		{"unknown type", uploadDocumentReq{DocumentType: "passport", FilePath: "x.pdf"}},
		{"empty file path", uploadDocumentReq{DocumentType: "resume"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if msg := validateDocumentUpload(tc.req); msg == "" {
				t.Errorf("request %+v accepted, want validation message", tc.req)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	valid := dto.InterviewQuestion{
		RoundNumber:   1,
		Position:      0,
		Question:      "Чем отличается slice от array?",
		CorrectAnswer: "b",
		Points:        10,
	}
	if msg := validateQuestion(valid); msg != "" {
		t.Errorf("valid question rejected: %s", msg)
	}

	cases := []struct {
		name   string
		mutate func(*dto.InterviewQuestion)
	}{
		{"round too small", func(q *dto.InterviewQuestion) { q.RoundNumber = 0 }},
		{"round too large", func(q *dto.InterviewQuestion) { q.RoundNumber = 4 }},
		{"negative position", func(q *dto.InterviewQuestion) { q.Position = -1 }},
		{"empty question", func(q *dto.InterviewQuestion) { q.Question = " " }},
		{"empty answer", func(q *dto.InterviewQuestion) { q.CorrectAnswer = "" }},
		{"zero points", func(q *dto.InterviewQuestion) { q.Points = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := valid
			tc.mutate(&q)
			if msg := validateQuestion(q); msg == "" {
				t.Errorf("question %+v accepted, want validation message", q)
			}
		})
	}
}

func TestValidatePeriod(t *testing.T) {
	for _, period := range []string{"2026-01", "2026-12"} {
		if msg := validatePeriod(period); msg != "" {
			t.Errorf("period %q rejected: %s", period, msg)
		}
	}
	for _, period := range []string{"", "2026", "2026-13", "aug-2026"} {
		if msg := validatePeriod(period); msg == "" {
			t.Errorf("period %q accepted, want validation message", period)
		}
	}
}
