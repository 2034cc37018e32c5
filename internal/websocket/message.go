package websocket

import (
	"encoding/json"
	"time"

	"stride-sync-server/internal/domain"
)

type MessageType string

const (
	TypeConflictDetected MessageType = "conflict_detected"
	TypeConflictResolved MessageType = "conflict_resolved"
	TypeAck              MessageType = "ack"
	TypePing             MessageType = "ping"
	TypePong             MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ConflictDetectedPayload carries enough structure for a client to render a
// diff view without a follow-up fetch.
type ConflictDetectedPayload struct {
	ConflictID    string              `json:"conflict_id"`
	EntityType    string              `json:"entity_type"`
	EntityID      string              `json:"entity_id"`
	ConflictType  domain.ConflictType `json:"conflict_type"`
	LocalVersion  domain.Snapshot     `json:"local_version"`
	ServerVersion domain.Snapshot     `json:"server_version"`
	DetectedAt    time.Time           `json:"detected_at"`
}

type ConflictResolvedPayload struct {
	ConflictID      string            `json:"conflict_id"`
	EntityType      string            `json:"entity_type"`
	EntityID        string            `json:"entity_id"`
	Strategy        domain.Strategy   `json:"strategy"`
	ResolvedVersion domain.Attributes `json:"resolved_version,omitempty"`
	ResolvedAt      time.Time         `json:"resolved_at"`
}

type AckPayload struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
