package models

import "time"

// Character represents an AI persona that participates in group chats
type Character struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	PersonalityTraits *string    `json:"personalityTraits,omitempty"`
	SystemPrompt      *string    `json:"systemPrompt,omitempty"`
	SpeakingStyle     *string    `json:"speakingStyle,omitempty"`
	Background        *string    `json:"background,omitempty"`
	AvatarURL         *string    `json:"avatarUrl,omitempty"`
	IsActive          bool       `json:"isActive"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// CreateCharacterRequest is the payload for creating a character
type CreateCharacterRequest struct {
	Name              string  `json:"name"`
	PersonalityTraits *string `json:"personalityTraits,omitempty"`
	SystemPrompt      *string `json:"systemPrompt,omitempty"`
	SpeakingStyle     *string `json:"speakingStyle,omitempty"`
	Background        *string `json:"background,omitempty"`
	AvatarURL         *string `json:"avatarUrl,omitempty"`
}
