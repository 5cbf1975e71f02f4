package mockserver

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"charcha/client/internal/models"
)

// REST handlers. Responses are bare entities, matching the real backend's
// wire shapes rather than an envelope.

func (s *Server) listGroups(c *fiber.Ctx) error {
	s.mu.Lock()
	groups := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, *g)
	}
	s.mu.Unlock()

	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return c.JSON(groups)
}

func (s *Server) createGroup(c *fiber.Ctx) error {
	var req models.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	group := models.Group{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.groups[group.ID] = &group
	s.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(group)
}

func (s *Server) getGroup(c *fiber.Ctx) error {
	s.mu.Lock()
	group, ok := s.groups[c.Params("groupId")]
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	return c.JSON(*group)
}

func (s *Server) updateGroup(c *fiber.Ctx) error {
	var req models.UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	s.mu.Lock()
	group, ok := s.groups[c.Params("groupId")]
	if ok {
		if req.Name != nil {
			group.Name = *req.Name
		}
		if req.Description != nil {
			group.Description = req.Description
		}
		now := time.Now()
		group.UpdatedAt = &now
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	return c.JSON(*group)
}

func (s *Server) deleteGroup(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	s.mu.Lock()
	_, ok := s.groups[groupID]
	delete(s.groups, groupID)
	delete(s.messages, groupID)
	delete(s.active, groupID)
	if stop, running := s.scriptStop[groupID]; running {
		close(stop)
		delete(s.scriptStop, groupID)
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listGroupMembers(c *fiber.Ctx) error {
	s.mu.Lock()
	group, ok := s.groups[c.Params("groupId")]
	var members []models.Character
	if ok {
		members = append(members, group.Members...)
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	if members == nil {
		members = []models.Character{}
	}
	return c.JSON(members)
}

func (s *Server) listAvailableCharacters(c *fiber.Ctx) error {
	s.mu.Lock()
	group, ok := s.groups[c.Params("groupId")]
	var available []models.Character
	if ok {
		inGroup := make(map[string]bool, len(group.Members))
		for _, m := range group.Members {
			inGroup[m.ID] = true
		}
		for _, character := range s.characters {
			if !inGroup[character.ID] {
				available = append(available, *character)
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	if available == nil {
		available = []models.Character{}
	}
	sort.Slice(available, func(i, j int) bool { return available[i].Name < available[j].Name })
	return c.JSON(available)
}

func (s *Server) addGroupMember(c *fiber.Ctx) error {
	var req models.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	s.mu.Lock()
	group, groupOK := s.groups[c.Params("groupId")]
	character, charOK := s.characters[req.CharacterID]
	if groupOK && charOK {
		already := false
		for _, m := range group.Members {
			if m.ID == character.ID {
				already = true
				break
			}
		}
		if !already {
			group.Members = append(group.Members, *character)
		}
	}
	s.mu.Unlock()

	if !groupOK {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	if !charOK {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
	}
	return c.JSON(*group)
}

func (s *Server) removeGroupMember(c *fiber.Ctx) error {
	characterID := c.Params("characterId")

	s.mu.Lock()
	group, ok := s.groups[c.Params("groupId")]
	if ok {
		members := group.Members[:0]
		for _, m := range group.Members {
			if m.ID != characterID {
				members = append(members, m)
			}
		}
		group.Members = members
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}
	return c.JSON(*group)
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 20)
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	groupID := c.Params("groupId")

	s.mu.Lock()
	history := s.messages[groupID]
	start := page * size
	if start > len(history) {
		start = len(history)
	}
	end := start + size
	if end > len(history) {
		end = len(history)
	}
	pageSlice := append([]models.Message{}, history[start:end]...)
	s.mu.Unlock()

	return c.JSON(pageSlice)
}

func (s *Server) listRecentMessages(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	groupID := c.Params("groupId")

	s.mu.Lock()
	history := s.messages[groupID]
	start := len(history) - limit
	if start < 0 {
		start = 0
	}
	recent := append([]models.Message{}, history[start:]...)
	s.mu.Unlock()

	return c.JSON(recent)
}

func (s *Server) listCharacters(c *fiber.Ctx) error {
	s.mu.Lock()
	characters := make([]models.Character, 0, len(s.characters))
	for _, character := range s.characters {
		characters = append(characters, *character)
	}
	s.mu.Unlock()

	sort.Slice(characters, func(i, j int) bool { return characters[i].Name < characters[j].Name })
	return c.JSON(characters)
}

func (s *Server) createCharacter(c *fiber.Ctx) error {
	var req models.CreateCharacterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	character := models.Character{
		ID:                uuid.New().String(),
		Name:              req.Name,
		PersonalityTraits: req.PersonalityTraits,
		SystemPrompt:      req.SystemPrompt,
		SpeakingStyle:     req.SpeakingStyle,
		Background:        req.Background,
		AvatarURL:         req.AvatarURL,
		IsActive:          true,
		CreatedAt:         time.Now(),
	}

	s.mu.Lock()
	s.characters[character.ID] = &character
	s.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(character)
}

func (s *Server) createPredefined(c *fiber.Ctx) error {
	s.mu.Lock()
	existing := make(map[string]bool, len(s.characters))
	for _, character := range s.characters {
		existing[character.Name] = true
	}
	for _, character := range predefinedCharacters() {
		if existing[character.Name] {
			continue
		}
		ch := character
		s.characters[ch.ID] = &ch
	}
	s.mu.Unlock()

	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) getCharacter(c *fiber.Ctx) error {
	s.mu.Lock()
	character, ok := s.characters[c.Params("characterId")]
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
	}
	return c.JSON(*character)
}

func (s *Server) updateCharacter(c *fiber.Ctx) error {
	var req models.CreateCharacterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	s.mu.Lock()
	character, ok := s.characters[c.Params("characterId")]
	if ok {
		if req.Name != "" {
			character.Name = req.Name
		}
		if req.PersonalityTraits != nil {
			character.PersonalityTraits = req.PersonalityTraits
		}
		if req.SystemPrompt != nil {
			character.SystemPrompt = req.SystemPrompt
		}
		if req.SpeakingStyle != nil {
			character.SpeakingStyle = req.SpeakingStyle
		}
		if req.Background != nil {
			character.Background = req.Background
		}
		if req.AvatarURL != nil {
			character.AvatarURL = req.AvatarURL
		}
		now := time.Now()
		character.UpdatedAt = &now
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
	}
	return c.JSON(*character)
}

func (s *Server) deleteCharacter(c *fiber.Ctx) error {
	characterID := c.Params("characterId")

	s.mu.Lock()
	_, ok := s.characters[characterID]
	delete(s.characters, characterID)
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) startConversation(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	s.mu.Lock()
	_, ok := s.groups[groupID]
	var stop chan struct{}
	if ok && !s.active[groupID] {
		s.active[groupID] = true
		if s.opts.ScriptInterval > 0 {
			stop = make(chan struct{})
			s.scriptStop[groupID] = stop
		}
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}

	s.broadcastAll(statusFrame(groupID, true))
	if stop != nil {
		go s.runScript(groupID, stop)
	}
	return c.JSON(fiber.Map{"active": true})
}

func (s *Server) stopConversation(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	s.mu.Lock()
	_, ok := s.groups[groupID]
	if ok {
		s.active[groupID] = false
		if stop, running := s.scriptStop[groupID]; running {
			close(stop)
			delete(s.scriptStop, groupID)
		}
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	}

	s.broadcastAll(statusFrame(groupID, false))
	return c.JSON(fiber.Map{"active": false})
}

func (s *Server) conversationStatus(c *fiber.Ctx) error {
	s.mu.Lock()
	active := s.active[c.Params("groupId")]
	s.mu.Unlock()
	return c.JSON(fiber.Map{"active": active})
}
