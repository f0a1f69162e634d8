package queue

import (
	"encoding/json"

	"legalassist-backend/internal/conversation"
)

const (
	TypeFeedback   = "feedback"
	MessageVersion = 1
)

// Message is the payload sent to the feedback worker.
type Message struct {
	Type       string                `json:"type"`
	EventID    string                `json:"eventId"`
	EnqueuedAt string                `json:"enqueuedAt"`
	Version    int                   `json:"version"`
	Feedback   conversation.Feedback `json:"feedback"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
