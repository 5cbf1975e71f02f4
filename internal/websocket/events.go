package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"charcha/client/internal/models"
)

// EventType discriminates server-to-client frames
type EventType string

const (
	EventMessage            EventType = "message"
	EventConversationStatus EventType = "conversation_status"
	EventTyping             EventType = "typing"
	EventWelcome            EventType = "welcome"
	EventError              EventType = "error"
)

// Event is a decoded server frame. Exactly one concrete type exists per
// EventType, so consumers can switch exhaustively.
type Event interface {
	Type() EventType
}

// MessageEvent carries a new chat message
type MessageEvent struct {
	Message models.Message
}

func (MessageEvent) Type() EventType { return EventMessage }

// ConversationStatusEvent carries the authoritative conversation state
type ConversationStatusEvent struct {
	Status models.ConversationStatus
}

func (ConversationStatusEvent) Type() EventType { return EventConversationStatus }

// TypingEvent names characters currently composing a message
type TypingEvent struct {
	Users []string
}

func (TypingEvent) Type() EventType { return EventTyping }

// WelcomeEvent is the server's greeting after a successful connect
type WelcomeEvent struct {
	Text string
}

func (WelcomeEvent) Type() EventType { return EventWelcome }

// ErrorEvent is a server-reported, non-fatal error
type ErrorEvent struct {
	Text string
}

func (ErrorEvent) Type() EventType { return EventError }

// inboundFrame is the loose wire shape before validation. Fields are only
// meaningful for the frame's declared type.
type inboundFrame struct {
	Type          EventType          `json:"type"`
	ID            string             `json:"id"`
	GroupID       *string            `json:"groupId"`
	CharacterID   string             `json:"characterId"`
	CharacterName string             `json:"characterName"`
	Content       string             `json:"content"`
	MessageType   models.MessageType `json:"messageType"`
	Timestamp     *time.Time         `json:"timestamp"`
	IsAiGenerated bool               `json:"isAiGenerated"`
	IsActive      bool               `json:"isActive"`
	NextTurn      *string            `json:"nextTurn"`
	Message       string             `json:"message"`
	Users         []string           `json:"users"`
}

// DecodeEvent parses and validates a raw server frame. Malformed frames yield
// an error; the caller logs and drops them without touching the connection.
func DecodeEvent(raw []byte) (Event, error) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}

	switch f.Type {
	case EventMessage:
		if f.ID == "" || f.GroupID == nil || *f.GroupID == "" ||
			f.CharacterID == "" || f.CharacterName == "" || f.Content == "" {
			return nil, fmt.Errorf("message frame missing required fields")
		}
		msg := models.Message{
			ID:            f.ID,
			GroupID:       *f.GroupID,
			CharacterID:   f.CharacterID,
			CharacterName: f.CharacterName,
			Content:       f.Content,
			MessageType:   f.MessageType,
			IsAiGenerated: f.IsAiGenerated,
			NextTurn:      f.NextTurn,
		}
		if msg.MessageType == "" {
			msg.MessageType = models.MessageTypeText
		}
		if f.Timestamp != nil {
			msg.Timestamp = *f.Timestamp
		} else {
			msg.Timestamp = time.Now()
		}
		return MessageEvent{Message: msg}, nil

	case EventConversationStatus:
		if f.IsActive && (f.GroupID == nil || *f.GroupID == "") {
			return nil, fmt.Errorf("conversation_status frame active without groupId")
		}
		status := models.ConversationStatus{
			IsActive: f.IsActive,
			NextTurn: f.NextTurn,
		}
		// groupId only carries meaning while the conversation is active
		if f.IsActive {
			status.GroupID = f.GroupID
		}
		return ConversationStatusEvent{Status: status}, nil

	case EventTyping:
		var users []string
		for _, u := range f.Users {
			if u != "" {
				users = append(users, u)
			}
		}
		if len(users) == 0 {
			return nil, fmt.Errorf("typing frame without users")
		}
		return TypingEvent{Users: users}, nil

	case EventWelcome:
		return WelcomeEvent{Text: f.Message}, nil

	case EventError:
		return ErrorEvent{Text: f.Message}, nil

	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}
}

// Action discriminates client-to-server frames
type Action string

const (
	ActionJoinGroup  Action = "join_group"
	ActionLeaveGroup Action = "leave_group"
	ActionTyping     Action = "typing"
	ActionPing       Action = "ping"
)

// ClientFrame is an outbound control frame. These are idempotent hints, sent
// at most once and never queued.
type ClientFrame struct {
	Action   Action `json:"action"`
	GroupID  string `json:"groupId,omitempty"`
	IsTyping *bool  `json:"isTyping,omitempty"`
}

// JoinGroupFrame subscribes to a group's channel
func JoinGroupFrame(groupID string) ClientFrame {
	return ClientFrame{Action: ActionJoinGroup, GroupID: groupID}
}

// LeaveGroupFrame unsubscribes from a group's channel
func LeaveGroupFrame(groupID string) ClientFrame {
	return ClientFrame{Action: ActionLeaveGroup, GroupID: groupID}
}

// TypingFrame signals the local user's typing state for a group
func TypingFrame(groupID string, isTyping bool) ClientFrame {
	return ClientFrame{Action: ActionTyping, GroupID: groupID, IsTyping: &isTyping}
}

// PingFrame is the application-level keepalive
func PingFrame() ClientFrame {
	return ClientFrame{Action: ActionPing}
}
