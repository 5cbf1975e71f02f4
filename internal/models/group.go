package models

import "time"

// Group represents a chat group of AI characters
type Group struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	IsActive    bool        `json:"isActive"`
	Members     []Character `json:"members,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   *time.Time  `json:"updatedAt,omitempty"`
}

// CreateGroupRequest is the payload for creating a group
type CreateGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// UpdateGroupRequest is the payload for updating a group's name or description
type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AddMemberRequest is the payload for adding a character to a group
type AddMemberRequest struct {
	CharacterID string `json:"characterId"`
}
