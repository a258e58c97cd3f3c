package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
	"github.com/Premm1996/Truehire-sub004/internal/onboarding"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// @title           Truehire — Onboarding Core
// @version         1.0
// @description     Ядро онбординга: машина этапов (профиль → интервью → документы → оффер → пропуск), оценка раундов интервью, контроль полноты документов, окно повтора после провала, расчёт зарплаты.
//
// @license.name  MIT
// @license.url   https://opensource.org/license/mit
//
// @BasePath  /
// @schemes   http
// @accept    json
// @produce   json

type OnboardingEngine interface {
	CanProceedToStage(ctx context.Context, subjectID string, target dto.Stage) (bool, error)
	StartInterview(ctx context.Context, subjectID string) (*dto.StageState, error)
	SubmitInterviewRound(ctx context.Context, subjectID string, roundNumber int, answers []string) (*onboarding.RoundResult, *dto.StageState, error)
	UploadDocument(ctx context.Context, doc dto.Document) (*onboarding.DocumentUploadResult, error)
	UploadOfferLetter(ctx context.Context, adminID, subjectID, filePath string) (*dto.OfferLetter, *dto.StageState, error)
	SignOfferLetter(ctx context.Context, subjectID, signedFilePath string) (*dto.OfferLetter, error)
	GenerateIDCard(ctx context.Context, subjectID, filePath string) (*dto.IDCard, *dto.StageState, error)
	GetCompleteOnboardingStatus(ctx context.Context, subjectID string) (*dto.OnboardingStatus, error)
	ResetOnboardingForRetry(ctx context.Context, subjectID string) (*dto.StageState, error)
}

type PayrollRepository interface {
	ActiveSalaryStructure(ctx context.Context, subjectID string) (*dto.SalaryStructure, error)
	AttendanceSummary(ctx context.Context, subjectID, period string) (*dto.AttendanceSummary, error)
	InsertPayslip(ctx context.Context, p dto.Payslip) (*dto.Payslip, error)
	ListPayslips(ctx context.Context, subjectID string) ([]dto.Payslip, error)
}

type EventsRepository interface {
	ListEvents(ctx context.Context) ([]dto.KafkaEvent, error)
	ListDLQ(ctx context.Context) ([]dto.KafkaDLQ, error)
	ResetAll(ctx context.Context) error
}

// QuestionsRepository — наполнение банка вопросов интервью (админка).
type QuestionsRepository interface {
	Upsert(ctx context.Context, q dto.InterviewQuestion) error
	AnswerKey(ctx context.Context, roundNumber int) ([]dto.InterviewQuestion, error)
}

type ServiceDeps struct {
	Port int

	Engine        OnboardingEngine
	PayrollRepo   PayrollRepository
	EventsRepo    EventsRepository
	QuestionsRepo QuestionsRepository
}

type Service struct {
	r      *router.Router
	server *fasthttp.Server
	port   int

	engine    OnboardingEngine
	payroll   PayrollRepository
	events    EventsRepository
	questions QuestionsRepository
}

func NewService(d ServiceDeps) *Service {
	rt := router.New()

	s := &Service{
		r:         rt,
		port:      d.Port,
		engine:    d.Engine,
		payroll:   d.PayrollRepo,
		events:    d.EventsRepo,
		questions: d.QuestionsRepo,
	}

	s.mountRoutes()

	s.server = &fasthttp.Server{
		Handler:            RecoveryMiddleware(LoggingMiddleware(CORS(s.r.Handler))),
		Name:               "onboarding-api",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       15 * time.Second,
		MaxRequestBodySize: 2 << 20, // 2 MiB
	}

	return s
}

func (s *Service) Start(ctx context.Context) error {
	log.Info().Int("port", s.port).Msg("Starting onboarding API")

	emergencyShutdown := make(chan error)
	go func() {
		err := s.server.ListenAndServe(fmt.Sprintf(":%d", s.port))
		emergencyShutdown <- err
	}()

	select {
	case <-ctx.Done():
		return s.server.Shutdown()
	case e := <-emergencyShutdown:
		return e
	}
}

func (s *Service) mountRoutes() {
	// Onboarding
	s.r.GET("/onboarding/{subject_id}", s.getOnboardingStatus)
	s.r.GET("/onboarding/{subject_id}/can-proceed/{stage}", s.canProceed)
	s.r.POST("/onboarding/{subject_id}/interview/start", s.startInterview)
	s.r.POST("/onboarding/{subject_id}/interview/{round}/submit", s.submitInterviewRound)
	s.r.POST("/onboarding/{subject_id}/documents", s.uploadDocument)
	s.r.POST("/onboarding/{subject_id}/offer", s.uploadOfferLetter)
	s.r.POST("/onboarding/{subject_id}/offer/sign", s.signOfferLetter)
	s.r.POST("/onboarding/{subject_id}/id-card", s.generateIDCard)
	s.r.POST("/admin/onboarding/{subject_id}/reset", s.resetOnboarding)

	// Payroll
	s.r.POST("/payroll/{subject_id}/calculate", s.calculateSalary)
	s.r.GET("/payroll/{subject_id}/payslips", s.listPayslips)

	// Events/DLQ
	s.r.GET("/events", s.listEvents)
	s.r.GET("/dlq", s.listDLQ)

	// Admin & Health
	s.r.GET("/health", s.healthHandler)
	s.r.POST("/admin/reset", s.resetHandler)
	s.r.PUT("/admin/interview-questions", s.upsertInterviewQuestion)
	s.r.GET("/admin/interview-questions/{round}", s.listInterviewQuestions)
}
