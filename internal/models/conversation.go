package models

// ConversationStatus tracks whether the server is actively generating
// messages, and for which group. GroupID is non-nil only while active.
type ConversationStatus struct {
	IsActive bool    `json:"isActive"`
	GroupID  *string `json:"groupId"`
	NextTurn *string `json:"nextTurn,omitempty"`
}
