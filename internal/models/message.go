package models

import "time"

type MessageType string

const (
	MessageTranscript MessageType = "transcript" // sent once on connect
	MessageTurn       MessageType = "turn"
	MessageStatus     MessageType = "status"
)

// Message is the envelope pushed to watchers of a debate.
type Message struct {
	Type      MessageType `json:"type"`
	DebateID  string      `json:"debate_id"`
	Status    Status      `json:"status,omitempty"`
	Turn      *Turn       `json:"turn,omitempty"`
	Turns     []Turn      `json:"turns,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
