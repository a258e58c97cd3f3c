package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

// mockStore — хранилище в памяти с семантикой реального репозитория:
// applyChange проставляет failed_at/retry_after при FAILED и completed_at
// один раз при COMPLETED.
type mockStore struct {
	states map[string]*dto.StageState
	rounds map[string][]dto.InterviewRound
	docs   map[string][]dto.Document
	offers map[string][]dto.OfferLetter
	cards  map[string][]dto.IDCard

	cooldown time.Duration
	now      func() time.Time
	nextID   int64

	errGetState error
	errFinish   error
}

func newMockStore(cooldown time.Duration, now func() time.Time) *mockStore {
	return &mockStore{
		states:   make(map[string]*dto.StageState),
		rounds:   make(map[string][]dto.InterviewRound),
		docs:     make(map[string][]dto.Document),
		offers:   make(map[string][]dto.OfferLetter),
		cards:    make(map[string][]dto.IDCard),
		cooldown: cooldown,
		now:      now,
	}
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockStore) applyChange(subjectID string, change StageChange) *dto.StageState {
	now := m.now()

	st := &dto.StageState{
		SubjectID:     subjectID,
		Stage:         change.Stage,
		Status:        change.Status,
		FailedAtStage: change.FailedAtStage,
		FailedReason:  change.FailedReason,
		UpdatedAt:     now,
	}

	if change.Status == dto.StatusFailed {
		failedAt := now
		retryAfter := now.Add(m.cooldown)
		st.FailedAt = &failedAt
		st.RetryAfter = &retryAfter
	}

	if change.Stage == dto.StageCompleted {
		completedAt := now
		st.CompletedAt = &completedAt
	}
	if prev, ok := m.states[subjectID]; ok && prev.CompletedAt != nil {
		st.CompletedAt = prev.CompletedAt
	}

	m.states[subjectID] = st
	return st
}

func (m *mockStore) GetStageState(_ context.Context, subjectID string) (*dto.StageState, error) {
	if m.errGetState != nil {
		return nil, m.errGetState
	}
	st, ok := m.states[subjectID]
	if !ok {
		return nil, dto.ErrNotFound
	}
	return st, nil
}

func (m *mockStore) SetStageState(_ context.Context, subjectID string, change StageChange) (*dto.StageState, error) {
	return m.applyChange(subjectID, change), nil
}

func (m *mockStore) StartInterview(_ context.Context, subjectID string, rounds int, change StageChange) (*dto.StageState, error) {
	if len(m.rounds[subjectID]) > 0 {
		return nil, dto.ErrAlreadyExists
	}
	for i := 1; i <= rounds; i++ {
		m.rounds[subjectID] = append(m.rounds[subjectID], dto.InterviewRound{
			ID:          m.id(),
			SubjectID:   subjectID,
			RoundNumber: i,
			Status:      dto.RoundPending,
		})
	}
	return m.applyChange(subjectID, change), nil
}

func (m *mockStore) ListRounds(_ context.Context, subjectID string) ([]dto.InterviewRound, error) {
	return m.rounds[subjectID], nil
}

func (m *mockStore) GetRound(_ context.Context, subjectID string, roundNumber int) (*dto.InterviewRound, error) {
	for i := range m.rounds[subjectID] {
		if m.rounds[subjectID][i].RoundNumber == roundNumber {
			r := m.rounds[subjectID][i]
			return &r, nil
		}
	}
	return nil, dto.ErrNotFound
}

func (m *mockStore) FinishRound(_ context.Context, subjectID string, round RoundUpdate, change *StageChange) (*dto.StageState, error) {
	if m.errFinish != nil {
		return nil, m.errFinish
	}

	found := false
	for i := range m.rounds[subjectID] {
		r := &m.rounds[subjectID][i]
		if r.RoundNumber == round.RoundNumber && r.Status == dto.RoundPending {
			now := m.now()
			r.Status = round.Status
			r.Score = round.Score
			r.CompletedAt = &now
			found = true
			break
		}
	}
	if !found {
		return nil, dto.ErrNotFound
	}

	if change != nil {
		return m.applyChange(subjectID, *change), nil
	}
	return m.states[subjectID], nil
}

func (m *mockStore) AddDocument(_ context.Context, doc dto.Document, change *StageChange) (*dto.Document, *dto.StageState, error) {
	doc.ID = m.id()
	doc.UploadedAt = m.now()
	m.docs[doc.SubjectID] = append(m.docs[doc.SubjectID], doc)

	if change != nil {
		return &doc, m.applyChange(doc.SubjectID, *change), nil
	}
	return &doc, m.states[doc.SubjectID], nil
}

func (m *mockStore) ListDocuments(_ context.Context, subjectID string) ([]dto.Document, error) {
	return m.docs[subjectID], nil
}

func (m *mockStore) DistinctDocumentTypes(_ context.Context, subjectID string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range m.docs[subjectID] {
		if _, ok := seen[d.DocumentType]; ok {
			continue
		}
		seen[d.DocumentType] = struct{}{}
		out = append(out, d.DocumentType)
	}
	return out, nil
}

func (m *mockStore) IssueOffer(_ context.Context, offer dto.OfferLetter, change StageChange) (*dto.OfferLetter, *dto.StageState, error) {
	offer.ID = m.id()
	offer.IssuedAt = m.now()
	m.offers[offer.SubjectID] = append(m.offers[offer.SubjectID], offer)
	return &offer, m.applyChange(offer.SubjectID, change), nil
}

func (m *mockStore) SignLatestPendingOffer(_ context.Context, subjectID, signedFilePath string) (*dto.OfferLetter, error) {
	offers := m.offers[subjectID]
	for i := len(offers) - 1; i >= 0; i-- {
		if offers[i].Status == dto.OfferPending {
			now := m.now()
			offers[i].Status = dto.OfferSigned
			offers[i].SignedFilePath = &signedFilePath
			offers[i].SignedAt = &now
			o := offers[i]
			return &o, nil
		}
	}
	return nil, dto.ErrNotFound
}

func (m *mockStore) LatestOffer(_ context.Context, subjectID string) (*dto.OfferLetter, error) {
	offers := m.offers[subjectID]
	if len(offers) == 0 {
		return nil, dto.ErrNotFound
	}
	o := offers[len(offers)-1]
	return &o, nil
}

func (m *mockStore) CreateIDCard(_ context.Context, card dto.IDCard, change StageChange) (*dto.IDCard, *dto.StageState, error) {
	for _, cards := range m.cards {
		for _, c := range cards {
			if c.CardNumber == card.CardNumber {
				return nil, nil, dto.ErrAlreadyExists
			}
		}
	}
	card.ID = m.id()
	card.GeneratedAt = m.now()
	m.cards[card.SubjectID] = append(m.cards[card.SubjectID], card)
	return &card, m.applyChange(card.SubjectID, change), nil
}

func (m *mockStore) LatestIDCard(_ context.Context, subjectID string) (*dto.IDCard, error) {
	cards := m.cards[subjectID]
	if len(cards) == 0 {
		return nil, dto.ErrNotFound
	}
	c := cards[len(cards)-1]
	return &c, nil
}

func (m *mockStore) ResetOnboarding(_ context.Context, subjectID string, change StageChange) (*dto.StageState, error) {
	delete(m.rounds, subjectID)
	delete(m.docs, subjectID)
	delete(m.offers, subjectID)
	delete(m.cards, subjectID)

	st := &dto.StageState{
		SubjectID: subjectID,
		Stage:     change.Stage,
		Status:    change.Status,
		UpdatedAt: m.now(),
	}
	m.states[subjectID] = st
	return st, nil
}

type mockKeys struct {
	keys map[int][]dto.InterviewQuestion
	err  error
}

func (m *mockKeys) AnswerKey(_ context.Context, roundNumber int) ([]dto.InterviewQuestion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.keys[roundNumber], nil
}

type mockNotifier struct {
	interviewFailed     int
	documentsComplete   int
	offerIssued         int
	onboardingCompleted int
	lastCardNumber      string
	err                 error
}

func (m *mockNotifier) InterviewFailed(_ context.Context, _ string, _ int, _ time.Time) error {
	m.interviewFailed++
	return m.err
}

func (m *mockNotifier) DocumentsComplete(_ context.Context, _ string) error {
	m.documentsComplete++
	return m.err
}

func (m *mockNotifier) OfferIssued(_ context.Context, _, _ string) error {
	m.offerIssued++
	return m.err
}

func (m *mockNotifier) OnboardingCompleted(_ context.Context, _, cardNumber string) error {
	m.onboardingCompleted++
	m.lastCardNumber = cardNumber
	return m.err
}

// fullAnswerKey — пять вопросов по 10 баллов: 4 верных = 80% (зачёт),
// 3 верных = 60% (провал).
func fullAnswerKey(roundNumber int) []dto.InterviewQuestion {
	key := make([]dto.InterviewQuestion, 5)
	for i := range key {
		key[i] = dto.InterviewQuestion{
			RoundNumber:   roundNumber,
			Position:      i,
			Question:      fmt.Sprintf("q%d", i),
			CorrectAnswer: "a",
			Points:        10,
		}
	}
	return key
}

type testEnv struct {
	engine   *Engine
	store    *mockStore
	keys     *mockKeys
	notifier *mockNotifier
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	store := newMockStore(DefaultCooldown, func() time.Time { return now })
	keys := &mockKeys{keys: map[int][]dto.InterviewQuestion{
		1: fullAnswerKey(1),
		2: fullAnswerKey(2),
		3: fullAnswerKey(3),
	}}
	notifier := &mockNotifier{}

	engine := NewEngine(EngineDeps{
		Store:    store,
		Keys:     keys,
		Notifier: notifier,
		Policy:   NewRetryPolicy(DefaultCooldown),
		Logger:   zerolog.Nop(),
	})
	engine.now = func() time.Time { return now }

	return &testEnv{engine: engine, store: store, keys: keys, notifier: notifier, now: now}
}

func (env *testEnv) passAnswers() []string { return []string{"a", "a", "a", "a", "x"} } // 80%
func (env *testEnv) failAnswers() []string { return []string{"a", "a", "a", "x", "x"} } // 60%

func (env *testEnv) mustStartInterview(t *testing.T, subjectID string) {
	t.Helper()
	if _, err := env.engine.StartInterview(context.Background(), subjectID); err != nil {
		t.Fatalf("StartInterview: %v", err)
	}
}

func (env *testEnv) mustPassRounds(t *testing.T, subjectID string, rounds ...int) {
	t.Helper()
	for _, r := range rounds {
		res, _, err := env.engine.SubmitInterviewRound(context.Background(), subjectID, r, env.passAnswers())
		if err != nil {
			t.Fatalf("SubmitInterviewRound(%d): %v", r, err)
		}
		if !res.Passed {
			t.Fatalf("round %d: expected pass, got %.1f%%", r, res.Percentage)
		}
	}
}

// Доводит сотрудника до этапа DOCUMENTS.
func (env *testEnv) mustReachDocuments(t *testing.T, subjectID string) {
	t.Helper()
	env.mustStartInterview(t, subjectID)
	env.mustPassRounds(t, subjectID, 1, 2, 3)
}

func (env *testEnv) mustUploadAllDocuments(t *testing.T, subjectID string) {
	t.Helper()
	for _, docType := range RequiredDocumentTypes {
		_, err := env.engine.UploadDocument(context.Background(), dto.Document{
			SubjectID:    subjectID,
			DocumentType: docType,
			FilePath:     "uploads/" + subjectID + "/" + docType + ".pdf",
		})
		if err != nil {
			t.Fatalf("UploadDocument(%s): %v", docType, err)
		}
	}
}

func TestStartInterviewFromScratch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	state, err := env.engine.StartInterview(ctx, "e-1")
	if err != nil {
		t.Fatalf("StartInterview: %v", err)
	}
	if state.Stage != dto.StageInterview || state.Status != dto.StatusInProgress {
		t.Errorf("state = %s/%s, want INTERVIEW/IN_PROGRESS", state.Stage, state.Status)
	}

	rounds, _ := env.store.ListRounds(ctx, "e-1")
	if len(rounds) != InterviewRounds {
		t.Fatalf("rounds = %d, want %d", len(rounds), InterviewRounds)
	}
	for _, r := range rounds {
		if r.Status != dto.RoundPending {
			t.Errorf("round %d status = %s, want pending", r.RoundNumber, r.Status)
		}
	}
}

func TestStartInterviewTwiceRejected(t *testing.T) {
	env := newTestEnv(t)
	env.mustStartInterview(t, "e-1")

	_, err := env.engine.StartInterview(context.Background(), "e-1")
	if !errors.Is(err, dto.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestStartInterviewFromLaterStageRejected(t *testing.T) {
	env := newTestEnv(t)
	env.mustReachDocuments(t, "e-1")

	_, err := env.engine.StartInterview(context.Background(), "e-1")
	te, ok := AsTransitionError(err)
	if !ok {
		t.Fatalf("err = %v, want TransitionError", err)
	}
	if te.Current != dto.StageDocuments || te.Target != dto.StageInterview {
		t.Errorf("transition %s -> %s, want DOCUMENTS -> INTERVIEW", te.Current, te.Target)
	}
}

func TestCanProceedToStage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Без записи состояния переходы запрещены.
	ok, err := env.engine.CanProceedToStage(ctx, "nobody", dto.StageInterview)
	if err != nil || ok {
		t.Errorf("no state: ok=%v err=%v, want false,nil", ok, err)
	}

	env.store.states["e-1"] = &dto.StageState{SubjectID: "e-1", Stage: dto.StageProfile, Status: dto.StatusInProgress}

	cases := []struct {
		target dto.Stage
		want   bool
	}{
		{dto.StageProfile, true},   // повторный вход в текущий этап
		{dto.StageInterview, true}, // один шаг вперёд
		{dto.StageDocuments, false},
		{dto.StageCompleted, false},
		{dto.StageFailed, false},
	}
	for _, tc := range cases {
		ok, err := env.engine.CanProceedToStage(ctx, "e-1", tc.target)
		if err != nil {
			t.Fatalf("CanProceedToStage(%s): %v", tc.target, err)
		}
		if ok != tc.want {
			t.Errorf("CanProceedToStage(%s) = %v, want %v", tc.target, ok, tc.want)
		}
	}
}

func TestCanProceedWhileCooldownActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	retryAfter := env.now.Add(time.Hour)
	env.store.states["e-1"] = &dto.StageState{
		SubjectID:  "e-1",
		Stage:      dto.StageFailed,
		Status:     dto.StatusFailed,
		RetryAfter: &retryAfter,
	}

	for _, target := range dto.StageOrder {
		ok, err := env.engine.CanProceedToStage(ctx, "e-1", target)
		if err != nil {
			t.Fatalf("CanProceedToStage(%s): %v", target, err)
		}
		if ok {
			t.Errorf("CanProceedToStage(%s) = true while cooldown active", target)
		}
	}
}

func TestCanProceedAfterCooldownExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	retryAfter := env.now.Add(-time.Hour)
	env.store.states["e-1"] = &dto.StageState{
		SubjectID:  "e-1",
		Stage:      dto.StageFailed,
		Status:     dto.StatusFailed,
		RetryAfter: &retryAfter,
	}

	// FAILED вне порядка этапов: после истечения окна открыт только PROFILE.
	ok, err := env.engine.CanProceedToStage(ctx, "e-1", dto.StageProfile)
	if err != nil || !ok {
		t.Errorf("PROFILE after expiry: ok=%v err=%v, want true,nil", ok, err)
	}

	ok, err = env.engine.CanProceedToStage(ctx, "e-1", dto.StageInterview)
	if err != nil || ok {
		t.Errorf("INTERVIEW after expiry: ok=%v err=%v, want false,nil", ok, err)
	}
}

func TestSubmitInterviewRoundPassed(t *testing.T) {
	env := newTestEnv(t)
	env.mustStartInterview(t, "e-1")

	res, state, err := env.engine.SubmitInterviewRound(context.Background(), "e-1", 1, env.passAnswers())
	if err != nil {
		t.Fatalf("SubmitInterviewRound: %v", err)
	}
	if !res.Passed || res.Score != 40 || res.Percentage != 80 {
		t.Errorf("result = %+v, want passed 40/50 (80%%)", res)
	}
	if state.Stage != dto.StageInterview {
		t.Errorf("stage = %s, want INTERVIEW until all rounds passed", state.Stage)
	}

	round, _ := env.store.GetRound(context.Background(), "e-1", 1)
	if round.Status != dto.RoundPassed || round.Score != 40 {
		t.Errorf("stored round = %s/%d, want passed/40", round.Status, round.Score)
	}
}

func TestSubmitInterviewRoundFailedSetsCooldown(t *testing.T) {
	env := newTestEnv(t)
	env.mustStartInterview(t, "e-1")

	res, state, err := env.engine.SubmitInterviewRound(context.Background(), "e-1", 2, env.failAnswers())
	if err != nil {
		t.Fatalf("SubmitInterviewRound: %v", err)
	}
	if res.Passed {
		t.Fatalf("result = %+v, want failed", res)
	}

	if state.Stage != dto.StageFailed || state.Status != dto.StatusFailed {
		t.Errorf("state = %s/%s, want FAILED/FAILED", state.Stage, state.Status)
	}
	if state.FailedAtStage == nil || *state.FailedAtStage != dto.StageInterview {
		t.Errorf("failed_at_stage = %v, want INTERVIEW", state.FailedAtStage)
	}
	if state.FailedReason == nil || !strings.Contains(*state.FailedReason, "60.0%") {
		t.Errorf("failed_reason = %v, want round percentage in it", state.FailedReason)
	}

	wantRetry := env.now.Add(DefaultCooldown)
	if state.RetryAfter == nil || !state.RetryAfter.Equal(wantRetry) {
		t.Errorf("retry_after = %v, want %v", state.RetryAfter, wantRetry)
	}

	if env.notifier.interviewFailed != 1 {
		t.Errorf("interviewFailed notifications = %d, want 1", env.notifier.interviewFailed)
	}

	// Дальнейшие попытки блокируются окном повтора.
	_, _, err = env.engine.SubmitInterviewRound(context.Background(), "e-1", 3, env.passAnswers())
	te, ok := AsTransitionError(err)
	if !ok {
		t.Fatalf("err = %v, want TransitionError", err)
	}
	if te.RetryAfter == nil {
		t.Error("TransitionError.RetryAfter is nil, want cooldown deadline")
	}
}

func TestSubmitInterviewAllRoundsPassedAdvances(t *testing.T) {
	env := newTestEnv(t)
	env.mustStartInterview(t, "e-1")
	env.mustPassRounds(t, "e-1", 1, 2)

	_, state, err := env.engine.SubmitInterviewRound(context.Background(), "e-1", 3, env.passAnswers())
	if err != nil {
		t.Fatalf("SubmitInterviewRound: %v", err)
	}
	if state.Stage != dto.StageDocuments || state.Status != dto.StatusInProgress {
		t.Errorf("state = %s/%s, want DOCUMENTS/IN_PROGRESS", state.Stage, state.Status)
	}
}

func TestSubmitInterviewRoundsOutOfOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustStartInterview(t, "e-1")

	// Порядок сдачи раундов не важен: переход на DOCUMENTS происходит
	// ровно один раз — на последнем зачтённом раунде.
	for _, roundNumber := range []int{3, 1} {
		_, state, err := env.engine.SubmitInterviewRound(ctx, "e-1", roundNumber, env.passAnswers())
		if err != nil {
			t.Fatalf("SubmitInterviewRound(%d): %v", roundNumber, err)
		}
		if state.Stage != dto.StageInterview {
			t.Errorf("after round %d stage = %s, want INTERVIEW until all rounds passed", roundNumber, state.Stage)
		}
	}

	_, state, err := env.engine.SubmitInterviewRound(ctx, "e-1", 2, env.passAnswers())
	if err != nil {
		t.Fatalf("SubmitInterviewRound(2): %v", err)
	}
	if state.Stage != dto.StageDocuments || state.Status != dto.StatusInProgress {
		t.Errorf("state = %s/%s, want DOCUMENTS/IN_PROGRESS after the last pass", state.Stage, state.Status)
	}
}

func TestSubmitInterviewRoundTwiceRejected(t *testing.T) {
	env := newTestEnv(t)
	env.mustStartInterview(t, "e-1")
	env.mustPassRounds(t, "e-1", 1)

	_, _, err := env.engine.SubmitInterviewRound(context.Background(), "e-1", 1, env.passAnswers())
	if !errors.Is(err, ErrRoundAlreadyScored) {
		t.Errorf("err = %v, want ErrRoundAlreadyScored", err)
	}
}

func TestSubmitInterviewRoundWithoutKey(t *testing.T) {
	env := newTestEnv(t)
	env.mustStartInterview(t, "e-1")
	delete(env.keys.keys, 1)

	_, _, err := env.engine.SubmitInterviewRound(context.Background(), "e-1", 1, env.passAnswers())
	if !errors.Is(err, ErrNoAnswerKey) {
		t.Errorf("err = %v, want ErrNoAnswerKey", err)
	}
}

func TestUploadDocumentCollectsAndAdvances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustReachDocuments(t, "e-1")

	for i, docType := range RequiredDocumentTypes[:4] {
		res, err := env.engine.UploadDocument(ctx, dto.Document{
			SubjectID:    "e-1",
			DocumentType: docType,
			FilePath:     "uploads/e-1/" + docType + ".pdf",
		})
		if err != nil {
			t.Fatalf("UploadDocument(%s): %v", docType, err)
		}
		if res.AllDocumentsUploaded {
			t.Fatalf("after %d of 5 documents AllDocumentsUploaded = true", i+1)
		}
		if len(res.MissingTypes) != 4-i {
			t.Errorf("after %s missing = %v, want %d types", docType, res.MissingTypes, 4-i)
		}
		if res.State.Stage != dto.StageDocuments {
			t.Errorf("stage = %s, want DOCUMENTS until the set is complete", res.State.Stage)
		}
	}

	last := RequiredDocumentTypes[4]
	res, err := env.engine.UploadDocument(ctx, dto.Document{
		SubjectID:    "e-1",
		DocumentType: last,
		FilePath:     "uploads/e-1/" + last + ".pdf",
	})
	if err != nil {
		t.Fatalf("UploadDocument(%s): %v", last, err)
	}
	if !res.AllDocumentsUploaded || len(res.MissingTypes) != 0 {
		t.Errorf("result = %+v, want complete set", res)
	}
	if res.State.Stage != dto.StageOffer || res.State.Status != dto.StatusInProgress {
		t.Errorf("state = %s/%s, want OFFER/IN_PROGRESS", res.State.Stage, res.State.Status)
	}
	if env.notifier.documentsComplete != 1 {
		t.Errorf("documentsComplete notifications = %d, want 1", env.notifier.documentsComplete)
	}
}

func TestUploadDocumentDuplicateTypeDoesNotComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustReachDocuments(t, "e-1")

	// Четыре типа, один из них дважды: набор всё ещё не полон.
	for _, docType := range []string{"resume", "resume", "id_proof", "address_proof", "education_certificate"} {
		res, err := env.engine.UploadDocument(ctx, dto.Document{
			SubjectID:    "e-1",
			DocumentType: docType,
			FilePath:     "uploads/e-1/x.pdf",
		})
		if err != nil {
			t.Fatalf("UploadDocument(%s): %v", docType, err)
		}
		if res.AllDocumentsUploaded {
			t.Fatalf("AllDocumentsUploaded = true without %q", "photo")
		}
	}
}

func TestUploadDocumentUnknownType(t *testing.T) {
	env := newTestEnv(t)
	env.mustReachDocuments(t, "e-1")

	_, err := env.engine.UploadDocument(context.Background(), dto.Document{
		SubjectID:    "e-1",
		DocumentType: "passport",
		FilePath:     "uploads/e-1/passport.pdf",
	})
	if !errors.Is(err, ErrUnknownDocumentType) {
		t.Errorf("err = %v, want ErrUnknownDocumentType", err)
	}
}

func TestUploadDocumentFromProfileRejected(t *testing.T) {
	env := newTestEnv(t)

	// PROFILE -> DOCUMENTS — скачок через этап, guard не пропускает.
	env.store.states["e-1"] = &dto.StageState{SubjectID: "e-1", Stage: dto.StageProfile, Status: dto.StatusInProgress}

	_, err := env.engine.UploadDocument(context.Background(), dto.Document{
		SubjectID:    "e-1",
		DocumentType: "resume",
		FilePath:     "uploads/e-1/resume.pdf",
	})
	if _, ok := AsTransitionError(err); !ok {
		t.Errorf("err = %v, want TransitionError", err)
	}
}

func TestUploadOfferLetterAdvancesToIDCard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustReachDocuments(t, "e-1")
	env.mustUploadAllDocuments(t, "e-1")

	offer, state, err := env.engine.UploadOfferLetter(ctx, "admin-7", "e-1", "offers/e-1/offer.pdf")
	if err != nil {
		t.Fatalf("UploadOfferLetter: %v", err)
	}
	if offer.Status != dto.OfferPending || offer.IssuedBy != "admin-7" {
		t.Errorf("offer = %+v, want pending issued by admin-7", offer)
	}
	// Этап двигается при выдаче оффера, не при подписи.
	if state.Stage != dto.StageIDCard || state.Status != dto.StatusInProgress {
		t.Errorf("state = %s/%s, want ID_CARD/IN_PROGRESS", state.Stage, state.Status)
	}
	if env.notifier.offerIssued != 1 {
		t.Errorf("offerIssued notifications = %d, want 1", env.notifier.offerIssued)
	}
}

func TestSignOfferLetter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustReachDocuments(t, "e-1")
	env.mustUploadAllDocuments(t, "e-1")

	if _, _, err := env.engine.UploadOfferLetter(ctx, "admin-7", "e-1", "offers/e-1/offer.pdf"); err != nil {
		t.Fatalf("UploadOfferLetter: %v", err)
	}

	stateBefore := *env.store.states["e-1"]

	offer, err := env.engine.SignOfferLetter(ctx, "e-1", "offers/e-1/offer-signed.pdf")
	if err != nil {
		t.Fatalf("SignOfferLetter: %v", err)
	}
	if offer.Status != dto.OfferSigned || offer.SignedFilePath == nil || offer.SignedAt == nil {
		t.Errorf("offer = %+v, want signed with file and timestamp", offer)
	}

	// Подпись не трогает состояние этапа.
	if env.store.states["e-1"].Stage != stateBefore.Stage {
		t.Errorf("stage changed on sign: %s -> %s", stateBefore.Stage, env.store.states["e-1"].Stage)
	}

	// Повторная подпись без pending-оффера.
	_, err = env.engine.SignOfferLetter(ctx, "e-1", "offers/e-1/again.pdf")
	if !errors.Is(err, ErrNoPendingOffer) {
		t.Errorf("err = %v, want ErrNoPendingOffer", err)
	}
}

func TestGenerateIDCardCompletesOnboarding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustReachDocuments(t, "e-1")
	env.mustUploadAllDocuments(t, "e-1")
	if _, _, err := env.engine.UploadOfferLetter(ctx, "admin-7", "e-1", "offers/e-1/offer.pdf"); err != nil {
		t.Fatalf("UploadOfferLetter: %v", err)
	}

	card, state, err := env.engine.GenerateIDCard(ctx, "e-1", "cards/e-1.png")
	if err != nil {
		t.Fatalf("GenerateIDCard: %v", err)
	}
	if !strings.HasPrefix(card.CardNumber, "ID-") || !strings.HasSuffix(card.CardNumber, "-e-1") {
		t.Errorf("card number = %q, want ID-<ts>-e-1", card.CardNumber)
	}
	if state.Stage != dto.StageCompleted || state.Status != dto.StatusCompleted {
		t.Errorf("state = %s/%s, want COMPLETED/COMPLETED", state.Stage, state.Status)
	}
	if state.CompletedAt == nil || !state.CompletedAt.Equal(env.now) {
		t.Errorf("completed_at = %v, want %v", state.CompletedAt, env.now)
	}
	if env.notifier.onboardingCompleted != 1 || env.notifier.lastCardNumber != card.CardNumber {
		t.Errorf("onboardingCompleted = %d (card %q), want 1 with %q",
			env.notifier.onboardingCompleted, env.notifier.lastCardNumber, card.CardNumber)
	}

	// Онбординг завершён — повторная генерация запрещена.
	_, _, err = env.engine.GenerateIDCard(ctx, "e-1", "cards/e-1.png")
	if _, ok := AsTransitionError(err); !ok {
		t.Errorf("err = %v, want TransitionError after COMPLETED", err)
	}
}

func TestResetOnboardingForRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustStartInterview(t, "e-1")

	if _, _, err := env.engine.SubmitInterviewRound(ctx, "e-1", 1, env.failAnswers()); err != nil {
		t.Fatalf("SubmitInterviewRound: %v", err)
	}

	// Сброс работает даже при действующем окне повтора.
	state, err := env.engine.ResetOnboardingForRetry(ctx, "e-1")
	if err != nil {
		t.Fatalf("ResetOnboardingForRetry: %v", err)
	}
	if state.Stage != dto.StageProfile || state.Status != dto.StatusInProgress {
		t.Errorf("state = %s/%s, want PROFILE/IN_PROGRESS", state.Stage, state.Status)
	}
	if state.RetryAfter != nil || state.FailedAtStage != nil || state.CompletedAt != nil {
		t.Errorf("state = %+v, want failure and completion fields cleared", state)
	}

	if rounds, _ := env.store.ListRounds(ctx, "e-1"); len(rounds) != 0 {
		t.Errorf("rounds after reset = %d, want 0", len(rounds))
	}

	// После сброса онбординг проходится заново.
	env.mustStartInterview(t, "e-1")
	env.mustPassRounds(t, "e-1", 1, 2, 3)
}

func TestGetCompleteOnboardingStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mustReachDocuments(t, "e-1")

	status, err := env.engine.GetCompleteOnboardingStatus(ctx, "e-1")
	if err != nil {
		t.Fatalf("GetCompleteOnboardingStatus: %v", err)
	}
	if status.State.Stage != dto.StageDocuments {
		t.Errorf("stage = %s, want DOCUMENTS", status.State.Stage)
	}
	if len(status.Rounds) != InterviewRounds {
		t.Errorf("rounds = %d, want %d", len(status.Rounds), InterviewRounds)
	}
	// Оффера и пропуска ещё нет — агрегат это переживает.
	if status.Offer != nil || status.IDCard != nil {
		t.Errorf("offer=%v card=%v, want nil until issued", status.Offer, status.IDCard)
	}

	_, err = env.engine.GetCompleteOnboardingStatus(ctx, "nobody")
	if !errors.Is(err, dto.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	env := newTestEnv(t)
	dbDown := errors.New("connection refused")

	env.store.errGetState = dbDown
	if _, err := env.engine.CanProceedToStage(context.Background(), "e-1", dto.StageInterview); !errors.Is(err, dbDown) {
		t.Errorf("err = %v, want store error passed through", err)
	}
	env.store.errGetState = nil

	env.mustStartInterview(t, "e-1")
	env.store.errFinish = dbDown
	if _, _, err := env.engine.SubmitInterviewRound(context.Background(), "e-1", 1, env.passAnswers()); !errors.Is(err, dbDown) {
		t.Errorf("err = %v, want store error passed through", err)
	}
}

func TestNotifierFailureDoesNotBreakFlow(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.err = errors.New("kafka is down")

	env.mustStartInterview(t, "e-1")

	_, state, err := env.engine.SubmitInterviewRound(context.Background(), "e-1", 1, env.failAnswers())
	if err != nil {
		t.Fatalf("SubmitInterviewRound: %v", err)
	}
	if state.Stage != dto.StageFailed {
		t.Errorf("stage = %s, want FAILED despite notifier error", state.Stage)
	}
}

func TestFullHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustStartInterview(t, "e-1")
	env.mustPassRounds(t, "e-1", 1, 2, 3)
	env.mustUploadAllDocuments(t, "e-1")

	if _, _, err := env.engine.UploadOfferLetter(ctx, "admin-7", "e-1", "offers/e-1/offer.pdf"); err != nil {
		t.Fatalf("UploadOfferLetter: %v", err)
	}
	if _, err := env.engine.SignOfferLetter(ctx, "e-1", "offers/e-1/offer-signed.pdf"); err != nil {
		t.Fatalf("SignOfferLetter: %v", err)
	}
	if _, _, err := env.engine.GenerateIDCard(ctx, "e-1", "cards/e-1.png"); err != nil {
		t.Fatalf("GenerateIDCard: %v", err)
	}

	status, err := env.engine.GetCompleteOnboardingStatus(ctx, "e-1")
	if err != nil {
		t.Fatalf("GetCompleteOnboardingStatus: %v", err)
	}
	if status.State.Stage != dto.StageCompleted || status.State.CompletedAt == nil {
		t.Errorf("final state = %+v, want COMPLETED with completed_at", status.State)
	}
	if len(status.Documents) != len(RequiredDocumentTypes) {
		t.Errorf("documents = %d, want %d", len(status.Documents), len(RequiredDocumentTypes))
	}
	if status.Offer == nil || status.Offer.Status != dto.OfferSigned {
		t.Errorf("offer = %+v, want signed", status.Offer)
	}
	if status.IDCard == nil {
		t.Error("id card missing in aggregate")
	}
}
