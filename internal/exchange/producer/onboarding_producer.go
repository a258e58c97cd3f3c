package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OnboardingProducer публикует события онбординга в топик уведомлений.
// Отправка синхронная; решение «не блокировать онбординг при ошибке»
// принимает вызывающий (движок шлёт best-effort).
type OnboardingProducer struct {
	sp     sarama.SyncProducer
	topic  string
	source string
	log    zerolog.Logger
}

type Config struct {
	TopicNotifications string
	Source             string
}

func NewOnboardingProducer(sp sarama.SyncProducer, cfg Config, log zerolog.Logger) *OnboardingProducer {
	return &OnboardingProducer{
		sp:     sp,
		topic:  cfg.TopicNotifications,
		source: cfg.Source,
		log:    log.With().Str("component", "OnboardingProducer").Logger(),
	}
}

func (p *OnboardingProducer) Close() error {
	if p == nil || p.sp == nil {
		return nil
	}
	return p.sp.Close()
}

func (p *OnboardingProducer) InterviewFailed(ctx context.Context, subjectID string, roundNumber int, retryAfter time.Time) error {
	return produce(ctx, p, "interview_failed", subjectID, InterviewFailedPayload{
		SubjectID:   subjectID,
		RoundNumber: roundNumber,
		RetryAfter:  retryAfter,
	})
}

func (p *OnboardingProducer) DocumentsComplete(ctx context.Context, subjectID string) error {
	return produce(ctx, p, "documents_complete", subjectID, DocumentsCompletePayload{
		SubjectID: subjectID,
	})
}

func (p *OnboardingProducer) OfferIssued(ctx context.Context, subjectID, issuedBy string) error {
	return produce(ctx, p, "offer_issued", subjectID, OfferIssuedPayload{
		SubjectID: subjectID,
		IssuedBy:  issuedBy,
	})
}

func (p *OnboardingProducer) OnboardingCompleted(ctx context.Context, subjectID, cardNumber string) error {
	return produce(ctx, p, "onboarding_completed", subjectID, OnboardingCompletedPayload{
		SubjectID:  subjectID,
		CardNumber: cardNumber,
	})
}

func produce[T any](ctx context.Context, p *OnboardingProducer, kind, subjectID string, payload T) error {
	env := Envelope[T]{
		Kind:      kind,
		MessageID: uuid.New(),
		SubjectID: subjectID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		Source:    p.source,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	return p.send(ctx, subjectID, body, map[string]string{
		"event-kind":   kind,
		"source":       p.source,
		"content-type": "application/json",
	})
}

func (p *OnboardingProducer) send(_ context.Context, key string, value []byte, headers map[string]string) error {
	if p == nil || p.sp == nil {
		return errors.New("sync producer is not initialized")
	}

	var hs []sarama.RecordHeader
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(value),
		Headers: hs,
	}

	part, off, err := p.sp.SendMessage(msg)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", key).
			Int("bytes", len(value)).
			Msg("failed to send kafka message")
		return fmt.Errorf("send kafka message: %w", err)
	}

	p.log.Info().
		Str("topic", p.topic).
		Str("key", key).
		Int32("partition", part).
		Int64("offset", off).
		Int("bytes", len(value)).
		Msg("kafka message sent")
	return nil
}
