package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

type handler struct {
	events      EventsRepository
	attendance  AttendanceRepository
	log         zerolog.Logger
	commitOnDLQ bool
}

func (h *handler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *handler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *handler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var env Envelope[AttendancePayload]
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			h.toDLQ(sess.Context(), msg, fmt.Sprintf("invalid_json: %v", err))
			if h.commitOnDLQ {
				sess.MarkMessage(msg, "")
			}
			continue
		}

		if ok := h.processAttendance(sess, msg, env.MessageID, env.Payload); ok {
			sess.MarkMessage(msg, "")
		}
	}
	return nil
}

func (h *handler) processAttendance(sess sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage, messageID uuid.UUID, payload AttendancePayload) bool {
	ctx := sess.Context()

	if messageID == uuid.Nil {
		h.toDLQ(ctx, msg, "missing required field message_id")
		return h.commitOnDLQ
	}

	if payload.SubjectID == "" {
		h.toDLQ(ctx, msg, "missing required field subject_id")
		return h.commitOnDLQ
	}

	exists, err := h.events.ExistsMessage(ctx, messageID)
	if err != nil {
		h.toDLQ(ctx, msg, fmt.Sprintf("events.ExistsMessage: %v", err))
		return h.commitOnDLQ
	}

	if exists {
		h.log.Info().
			Str("message_id", messageID.String()).
			Str("subject_id", payload.SubjectID).
			Msg("duplicate message, skip (idempotency)")
		return true // коммитим — событие уже обработано ранее
	}

	if verr := validateAttendance(payload); verr != "" {
		h.toDLQ(ctx, msg, verr)
		return h.commitOnDLQ
	}

	if err := h.events.InsertEvent(ctx, dto.KafkaEvent{
		MessageID: messageID,
		Topic:     msg.Topic,
		Key:       string(msg.Key),
		Partition: int(msg.Partition),
		Offset:    msg.Offset,
		Payload:   append([]byte(nil), msg.Value...),
	}); err != nil {
		h.toDLQ(ctx, msg, fmt.Sprintf("events.InsertEvent: db error insert attendance: %s", err.Error()))

		return h.commitOnDLQ
	}

	summary := dto.AttendanceSummary{
		SubjectID:     payload.SubjectID,
		Period:        payload.Period,
		PresentDays:   payload.PresentDays,
		TotalDays:     payload.TotalDays,
		LOPDays:       payload.LOPDays,
		OvertimeHours: payload.OvertimeHours,
	}

	if err := h.attendance.UpsertAttendance(ctx, summary); err != nil {
		h.toDLQ(ctx, msg, fmt.Sprintf("attendance.UpsertAttendance: %v", err))
		return h.commitOnDLQ
	}

	return true
}

func (h *handler) toDLQ(ctx context.Context, msg *sarama.ConsumerMessage, reason string) {
	err := h.events.InsertDLQ(ctx, dto.KafkaDLQ{
		Topic:   msg.Topic,
		Key:     string(msg.Key),
		Payload: string(msg.Value),
		Error:   reason,
	})
	if err != nil {
		h.log.Error().
			Err(err).
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Str("reason", reason).
			Msg("failed to write message to DLQ, message lost")
		return
	}

	h.log.Warn().
		Str("topic", msg.Topic).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("reason", reason).
		Msg("message sent to DLQ")
}
