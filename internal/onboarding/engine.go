package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

// InterviewRounds — фиксированное число раундов интервью.
const InterviewRounds = 3

// StageChange — целевое состояние StageState, применяется store-ом
// атомарно вместе с записью сопутствующих сущностей.
type StageChange struct {
	Stage         dto.Stage
	Status        dto.Status
	FailedAtStage *dto.Stage
	FailedReason  *string
}

// RoundUpdate — итог раунда для записи.
type RoundUpdate struct {
	RoundNumber int
	Status      dto.RoundStatus
	Score       int
}

// Store — хранилище состояния онбординга. Методы, принимающие StageChange,
// обязаны выполнять все записи в одной транзакции.
type Store interface {
	GetStageState(ctx context.Context, subjectID string) (*dto.StageState, error)
	SetStageState(ctx context.Context, subjectID string, change StageChange) (*dto.StageState, error)

	StartInterview(ctx context.Context, subjectID string, rounds int, change StageChange) (*dto.StageState, error)
	ListRounds(ctx context.Context, subjectID string) ([]dto.InterviewRound, error)
	GetRound(ctx context.Context, subjectID string, roundNumber int) (*dto.InterviewRound, error)
	FinishRound(ctx context.Context, subjectID string, round RoundUpdate, change *StageChange) (*dto.StageState, error)

	AddDocument(ctx context.Context, doc dto.Document, change *StageChange) (*dto.Document, *dto.StageState, error)
	ListDocuments(ctx context.Context, subjectID string) ([]dto.Document, error)
	DistinctDocumentTypes(ctx context.Context, subjectID string) ([]string, error)

	IssueOffer(ctx context.Context, offer dto.OfferLetter, change StageChange) (*dto.OfferLetter, *dto.StageState, error)
	SignLatestPendingOffer(ctx context.Context, subjectID, signedFilePath string) (*dto.OfferLetter, error)
	LatestOffer(ctx context.Context, subjectID string) (*dto.OfferLetter, error)

	CreateIDCard(ctx context.Context, card dto.IDCard, change StageChange) (*dto.IDCard, *dto.StageState, error)
	LatestIDCard(ctx context.Context, subjectID string) (*dto.IDCard, error)

	ResetOnboarding(ctx context.Context, subjectID string, change StageChange) (*dto.StageState, error)
}

// AnswerKeySource — ключ ответов по номеру раунда.
type AnswerKeySource interface {
	AnswerKey(ctx context.Context, roundNumber int) ([]dto.InterviewQuestion, error)
}

// Notifier — канал уведомлений. Ошибки отправки не прерывают онбординг:
// движок логирует их и продолжает.
type Notifier interface {
	InterviewFailed(ctx context.Context, subjectID string, roundNumber int, retryAfter time.Time) error
	DocumentsComplete(ctx context.Context, subjectID string) error
	OfferIssued(ctx context.Context, subjectID, issuedBy string) error
	OnboardingCompleted(ctx context.Context, subjectID, cardNumber string) error
}

// Engine — машина этапов онбординга. Разрешает переходы строго по порядку
// StageOrder (повторный вход в текущий этап либо один шаг вперёд),
// блокирует движение при действующем окне повтора после провала.
//
// Истечение окна повтора не возвращает сотрудника в поток само по себе:
// из FAILED выводит только ResetOnboardingForRetry. Поведение согласовано
// с продуктом как retry под контролем администратора.
type Engine struct {
	store    Store
	keys     AnswerKeySource
	notifier Notifier
	policy   RetryPolicy
	log      zerolog.Logger
	now      func() time.Time
}

type EngineDeps struct {
	Store    Store
	Keys     AnswerKeySource
	Notifier Notifier // допускается nil
	Policy   RetryPolicy
	Logger   zerolog.Logger
}

func NewEngine(d EngineDeps) *Engine {
	if d.Policy.Cooldown <= 0 {
		d.Policy = NewRetryPolicy(0)
	}
	return &Engine{
		store:    d.Store,
		keys:     d.Keys,
		notifier: d.Notifier,
		policy:   d.Policy,
		log:      d.Logger.With().Str("component", "onboarding-engine").Logger(),
		now:      time.Now,
	}
}

// CanProceedToStage — может ли сотрудник перейти (или повторно войти)
// на целевой этап. Без StageState и при действующей блокировке — false.
func (e *Engine) CanProceedToStage(ctx context.Context, subjectID string, target dto.Stage) (bool, error) {
	err := e.checkTransition(ctx, subjectID, target)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, dto.ErrNotFound) {
		return false, nil
	}
	if _, ok := AsTransitionError(err); ok {
		return false, nil
	}
	return false, err
}

// checkTransition — тот же guard, но с деталями отказа.
func (e *Engine) checkTransition(ctx context.Context, subjectID string, target dto.Stage) error {
	st, err := e.store.GetStageState(ctx, subjectID)
	if err != nil {
		return err
	}

	return e.checkTransitionFrom(st, subjectID, target)
}

func (e *Engine) checkTransitionFrom(st *dto.StageState, subjectID string, target dto.Stage) error {
	reject := func() *TransitionError {
		return &TransitionError{
			SubjectID:  subjectID,
			Target:     target,
			Current:    st.Stage,
			Status:     st.Status,
			RetryAfter: st.RetryAfter,
		}
	}

	if e.policy.Blocked(st, e.now()) {
		return reject()
	}

	targetIdx := target.Index()
	if targetIdx < 0 {
		return reject()
	}

	currentIdx := st.Stage.Index()
	if targetIdx == currentIdx || targetIdx == currentIdx+1 {
		return nil
	}

	return reject()
}

// StartInterview переводит сотрудника на этап INTERVIEW и атомарно создаёт
// три pending-раунда. Первый вызов без StageState начинает онбординг
// с PROFILE. Повторный вызов упирается в уникальность раундов.
func (e *Engine) StartInterview(ctx context.Context, subjectID string) (*dto.StageState, error) {
	st, err := e.store.GetStageState(ctx, subjectID)
	switch {
	case errors.Is(err, dto.ErrNotFound):
		// онбординг ещё не начат — первый шаг стартует с PROFILE
	case err != nil:
		return nil, err
	default:
		if err := e.checkTransitionFrom(st, subjectID, dto.StageInterview); err != nil {
			return nil, err
		}
	}

	state, err := e.store.StartInterview(ctx, subjectID, InterviewRounds, StageChange{
		Stage:  dto.StageInterview,
		Status: dto.StatusInProgress,
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("subject_id", subjectID).Msg("interview started")

	return state, nil
}

// SubmitInterviewRound оценивает ответы раунда по ключу. Провал раунда —
// ожидаемый исход, а не ошибка: весь онбординг переводится в FAILED
// с окном повтора, результат возвращается вызывающему.
func (e *Engine) SubmitInterviewRound(ctx context.Context, subjectID string, roundNumber int, answers []string) (*RoundResult, *dto.StageState, error) {
	if err := e.checkTransition(ctx, subjectID, dto.StageInterview); err != nil {
		return nil, nil, err
	}

	round, err := e.store.GetRound(ctx, subjectID, roundNumber)
	if err != nil {
		return nil, nil, err
	}
	if round.Status != dto.RoundPending {
		return nil, nil, ErrRoundAlreadyScored
	}

	key, err := e.keys.AnswerKey(ctx, roundNumber)
	if err != nil {
		return nil, nil, err
	}
	if len(key) == 0 {
		return nil, nil, ErrNoAnswerKey
	}

	result := EvaluateRound(key, answers)
	result.RoundNumber = roundNumber

	update := RoundUpdate{
		RoundNumber: roundNumber,
		Score:       result.Score,
		Status:      dto.RoundPassed,
	}

	var change *StageChange

	if !result.Passed {
		update.Status = dto.RoundFailed

		failedAt := dto.StageInterview
		reason := fmt.Sprintf("interview round %d scored %.1f%%, required %.0f%%",
			roundNumber, result.Percentage, PassThresholdPercent)

		change = &StageChange{
			Stage:         dto.StageFailed,
			Status:        dto.StatusFailed,
			FailedAtStage: &failedAt,
			FailedReason:  &reason,
		}
	} else {
		passed, err := e.passedRounds(ctx, subjectID, roundNumber)
		if err != nil {
			return nil, nil, err
		}
		if passed == InterviewRounds-1 {
			// текущий раунд — последний незакрытый
			change = &StageChange{
				Stage:  dto.StageDocuments,
				Status: dto.StatusInProgress,
			}
		}
	}

	state, err := e.store.FinishRound(ctx, subjectID, update, change)
	if err != nil {
		return nil, nil, err
	}

	if !result.Passed && state.RetryAfter != nil {
		retryAfter := *state.RetryAfter
		e.notify("interview_failed", func() error {
			return e.notifier.InterviewFailed(ctx, subjectID, roundNumber, retryAfter)
		})
		e.log.Info().
			Str("subject_id", subjectID).
			Int("round", roundNumber).
			Float64("percentage", result.Percentage).
			Time("retry_after", retryAfter).
			Msg("interview failed, cooldown set")
	}

	return &result, state, nil
}

func (e *Engine) passedRounds(ctx context.Context, subjectID string, excludeRound int) (int, error) {
	rounds, err := e.store.ListRounds(ctx, subjectID)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, r := range rounds {
		if r.RoundNumber != excludeRound && r.Status == dto.RoundPassed {
			n++
		}
	}

	return n, nil
}

// DocumentUploadResult — итог загрузки документа.
type DocumentUploadResult struct {
	AllDocumentsUploaded bool            `json:"all_documents_uploaded"`
	MissingTypes         []string        `json:"missing_document_types,omitempty"`
	Document             *dto.Document   `json:"document"`
	State                *dto.StageState `json:"state"`
}

// UploadDocument сохраняет документ и, как только обязательный набор
// покрыт, атомарно продвигает этап на OFFER.
func (e *Engine) UploadDocument(ctx context.Context, doc dto.Document) (*DocumentUploadResult, error) {
	if !KnownDocumentType(doc.DocumentType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocumentType, doc.DocumentType)
	}

	if err := e.checkTransition(ctx, doc.SubjectID, dto.StageDocuments); err != nil {
		return nil, err
	}

	types, err := e.store.DistinctDocumentTypes(ctx, doc.SubjectID)
	if err != nil {
		return nil, err
	}
	types = append(types, doc.DocumentType)

	missing := MissingDocumentTypes(types)
	complete := len(missing) == 0

	var change *StageChange
	if complete {
		change = &StageChange{
			Stage:  dto.StageOffer,
			Status: dto.StatusInProgress,
		}
	}

	saved, state, err := e.store.AddDocument(ctx, doc, change)
	if err != nil {
		return nil, err
	}

	if complete {
		e.notify("documents_complete", func() error {
			return e.notifier.DocumentsComplete(ctx, doc.SubjectID)
		})
	}

	return &DocumentUploadResult{
		AllDocumentsUploaded: complete,
		MissingTypes:         missing,
		Document:             saved,
		State:                state,
	}, nil
}

// UploadOfferLetter — выдача оффера администратором. Авторизация вызова —
// снаружи; здесь adminID только фиксируется. Этап продвигается на ID_CARD
// уже при выдаче, подпись сотрудника на поток не влияет.
func (e *Engine) UploadOfferLetter(ctx context.Context, adminID, subjectID, filePath string) (*dto.OfferLetter, *dto.StageState, error) {
	if err := e.checkTransition(ctx, subjectID, dto.StageOffer); err != nil {
		return nil, nil, err
	}

	offer := dto.OfferLetter{
		SubjectID: subjectID,
		Status:    dto.OfferPending,
		FilePath:  filePath,
		IssuedBy:  adminID,
	}

	saved, state, err := e.store.IssueOffer(ctx, offer, StageChange{
		Stage:  dto.StageIDCard,
		Status: dto.StatusInProgress,
	})
	if err != nil {
		return nil, nil, err
	}

	e.notify("offer_issued", func() error {
		return e.notifier.OfferIssued(ctx, subjectID, adminID)
	})

	return saved, state, nil
}

// SignOfferLetter помечает последний pending-оффер подписанным.
// Переход этапа не выполняется.
func (e *Engine) SignOfferLetter(ctx context.Context, subjectID, signedFilePath string) (*dto.OfferLetter, error) {
	offer, err := e.store.SignLatestPendingOffer(ctx, subjectID, signedFilePath)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			return nil, ErrNoPendingOffer
		}
		return nil, err
	}

	return offer, nil
}

// GenerateIDCard создаёт пропуск с уникальным номером и завершает
// онбординг: (COMPLETED, COMPLETED), completed_at ставится один раз.
func (e *Engine) GenerateIDCard(ctx context.Context, subjectID, filePath string) (*dto.IDCard, *dto.StageState, error) {
	if err := e.checkTransition(ctx, subjectID, dto.StageIDCard); err != nil {
		return nil, nil, err
	}

	card := dto.IDCard{
		SubjectID:  subjectID,
		CardNumber: fmt.Sprintf("ID-%d-%s", e.now().UnixMilli(), subjectID),
		FilePath:   filePath,
	}

	saved, state, err := e.store.CreateIDCard(ctx, card, StageChange{
		Stage:  dto.StageCompleted,
		Status: dto.StatusCompleted,
	})
	if err != nil {
		return nil, nil, err
	}

	e.notify("onboarding_completed", func() error {
		return e.notifier.OnboardingCompleted(ctx, subjectID, saved.CardNumber)
	})

	e.log.Info().Str("subject_id", subjectID).Str("card_number", saved.CardNumber).Msg("onboarding completed")

	return saved, state, nil
}

// GetCompleteOnboardingStatus — агрегат состояния со всеми раундами,
// документами, последним оффером и пропуском.
func (e *Engine) GetCompleteOnboardingStatus(ctx context.Context, subjectID string) (*dto.OnboardingStatus, error) {
	state, err := e.store.GetStageState(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	rounds, err := e.store.ListRounds(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	docs, err := e.store.ListDocuments(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	offer, err := e.store.LatestOffer(ctx, subjectID)
	if err != nil && !errors.Is(err, dto.ErrNotFound) {
		return nil, err
	}

	card, err := e.store.LatestIDCard(ctx, subjectID)
	if err != nil && !errors.Is(err, dto.ErrNotFound) {
		return nil, err
	}

	return &dto.OnboardingStatus{
		State:     *state,
		Rounds:    rounds,
		Documents: docs,
		Offer:     offer,
		IDCard:    card,
	}, nil
}

// ResetOnboardingForRetry — административный сброс: удаляет раунды,
// документы, офферы и пропуска, возвращает сотрудника на PROFILE.
// Намеренно обходит guard переходов и действующее окно повтора.
func (e *Engine) ResetOnboardingForRetry(ctx context.Context, subjectID string) (*dto.StageState, error) {
	state, err := e.store.ResetOnboarding(ctx, subjectID, StageChange{
		Stage:  dto.StageProfile,
		Status: dto.StatusInProgress,
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("subject_id", subjectID).Msg("onboarding reset for retry")

	return state, nil
}

// notify — best-effort отправка уведомления: ошибки логируются и не
// прерывают операцию.
func (e *Engine) notify(event string, send func() error) {
	if e.notifier == nil {
		return
	}
	if err := send(); err != nil {
		e.log.Warn().Err(err).Str("event", event).Msg("notification send failed")
	}
}
