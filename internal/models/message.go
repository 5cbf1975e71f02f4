package models

import "time"

// MessageType enumerates the kinds of message content
type MessageType string

const (
	MessageTypeText     MessageType = "TEXT"
	MessageTypeImage    MessageType = "IMAGE"
	MessageTypeAudio    MessageType = "AUDIO"
	MessageTypeVideo    MessageType = "VIDEO"
	MessageTypeDocument MessageType = "DOCUMENT"
	MessageTypeEmoji    MessageType = "EMOJI"
	MessageTypeSystem   MessageType = "SYSTEM"
)

// Message represents a chat message within a group. The character name is
// denormalized onto the message so history survives character deletion.
type Message struct {
	ID             string      `json:"id"`
	GroupID        string      `json:"groupId"`
	CharacterID    string      `json:"characterId"`
	CharacterName  string      `json:"characterName"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"messageType"`
	Timestamp      time.Time   `json:"timestamp"`
	IsAiGenerated  bool        `json:"isAiGenerated"`
	ResponseTimeMs *int64      `json:"responseTimeMs,omitempty"`
	NextTurn       *string     `json:"nextTurn,omitempty"`
}
