package dto

import (
	"encoding/json"
	"github.com/google/uuid"
)

// KafkaEvent — сырое входящее событие (журнал идемпотентности)
type KafkaEvent struct {
	ID         int64           `json:"id"`
	MessageID  uuid.UUID       `json:"message_id"`
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	Partition  int             `json:"partition"`
	Offset     int64           `json:"offset"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt string          `json:"received_at"`
}

// KafkaDLQ — сообщение в DLQ. Payload — сырой текст: сюда попадает
// в том числе битый json, RawMessage его бы не пережил при выдаче.
type KafkaDLQ struct {
	ID         int64  `json:"id"`
	Topic      string `json:"topic"`
	Key        string `json:"key"`
	Payload    string `json:"payload"`
	Error      string `json:"error"`
	ReceivedAt string `json:"received_at"`
}
