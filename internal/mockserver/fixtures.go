package mockserver

import (
	"time"

	"github.com/google/uuid"

	"charcha/client/internal/models"
)

func strPtr(s string) *string { return &s }

// predefinedCharacters mirrors the backend's stock persona set
func predefinedCharacters() []models.Character {
	now := time.Now()
	personas := []struct {
		name   string
		traits string
		style  string
	}{
		{"Albert Einstein", "curious, playful, absent-minded", "rambling thought experiments, gentle humor"},
		{"Shah Rukh Khan", "charming, dramatic, romantic", "Bollywood one-liners, open arms energy"},
		{"Sherlock Holmes", "analytical, blunt, restless", "rapid deductions, mild condescension"},
		{"Frida Kahlo", "fierce, poetic, unapologetic", "vivid imagery, sharp wit"},
		{"Bruce Lee", "disciplined, philosophical, intense", "short aphorisms, water metaphors"},
	}

	characters := make([]models.Character, 0, len(personas))
	for _, p := range personas {
		characters = append(characters, models.Character{
			ID:                uuid.New().String(),
			Name:              p.name,
			PersonalityTraits: strPtr(p.traits),
			SpeakingStyle:     strPtr(p.style),
			IsActive:          true,
			CreatedAt:         now,
		})
	}
	return characters
}

// seed preloads the stock personas and a demo group with three members
func (s *Server) seed() {
	characters := predefinedCharacters()
	for _, character := range characters {
		c := character
		s.characters[c.ID] = &c
	}

	group := models.Group{
		ID:        uuid.New().String(),
		Name:      "Celebrity Adda",
		IsActive:  true,
		Members:   append([]models.Character(nil), characters[:3]...),
		CreatedAt: time.Now(),
	}
	s.groups[group.ID] = &group
}

// cannedLines feed the conversation generator
var cannedLines = []string{
	"Interesting point, but have you considered the opposite?",
	"I was just thinking about this yesterday.",
	"That reminds me of a story from my younger days.",
	"Strongly disagree, and I can prove it.",
	"Let us not lose the thread of the conversation.",
	"Ha! You cannot be serious.",
	"Someone had to say it, so I will.",
	"The answer is simpler than you all make it.",
}
