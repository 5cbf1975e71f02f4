package store

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"charcha/client/internal/models"
)

// Gateway is the REST surface the store needs; api.Client satisfies it
type Gateway interface {
	GetGroups(ctx context.Context) ([]models.Group, error)
	GetCharacters(ctx context.Context) ([]models.Character, error)
	GetGroupMessages(ctx context.Context, groupID string, page, size int) ([]models.Message, error)
	CreateGroup(ctx context.Context, req models.CreateGroupRequest) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	CreateCharacter(ctx context.Context, req models.CreateCharacterRequest) (models.Character, error)
	DeleteCharacter(ctx context.Context, characterID string) error
	CreatePredefinedCharacters(ctx context.Context) error
	AddCharacterToGroup(ctx context.Context, groupID, characterID string) (models.Group, error)
	RemoveCharacterFromGroup(ctx context.Context, groupID, characterID string) (models.Group, error)
	StartConversation(ctx context.Context, groupID string) error
	StopConversation(ctx context.Context, groupID string) error
}

// Channel is the socket-side control surface; the connection manager
// satisfies it. Join/leave/typing are idempotent hints.
type Channel interface {
	JoinGroup(groupID string) error
	LeaveGroup(groupID string) error
}

// Options tunes store behavior
type Options struct {
	// TypingTTL bounds how long a server-reported typing user stays visible.
	// The protocol has no stopped-typing event, so entries expire on read.
	TypingTTL time.Duration

	// HistoryPageSize is the page size for history loads on group switch
	HistoryPageSize int
}

func (o Options) withDefaults() Options {
	if o.TypingTTL <= 0 {
		o.TypingTTL = 10 * time.Second
	}
	if o.HistoryPageSize <= 0 {
		o.HistoryPageSize = 20
	}
	return o
}

// Store is the reconciled client-side view of the session: cached groups and
// characters, the active group's message log, conversation status and the
// typing set. It is mutated by decoded socket events and by explicit user
// actions, and read by the presentation layer. Construct one per session;
// there is no ambient global instance.
type Store struct {
	gw   Gateway
	opts Options

	mu          sync.RWMutex
	ch          Channel
	groups      []models.Group
	characters  []models.Character
	messages    []models.Message
	activeGroup *models.Group
	status      models.ConversationStatus
	typing      map[string]time.Time

	now func() time.Time
}

// NewStore creates a store backed by the given REST gateway
func NewStore(gw Gateway, opts Options) *Store {
	return &Store{
		gw:     gw,
		opts:   opts.withDefaults(),
		typing: make(map[string]time.Time),
		now:    time.Now,
	}
}

// AttachChannel wires the socket control surface. Until attached, channel
// joins and leaves are skipped.
func (s *Store) AttachChannel(ch Channel) {
	s.mu.Lock()
	s.ch = ch
	s.mu.Unlock()
}

// Event application (called by the connection manager)

// ApplyMessage appends a message in arrival order. Arrival order is the
// ordering key; server timestamps may tie and are never used to reorder.
// A nextTurn hint on the message patches only that field of the
// conversation status.
func (s *Store) ApplyMessage(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	if msg.NextTurn != nil {
		s.status.NextTurn = msg.NextTurn
	}
}

// ApplyConversationStatus replaces the conversation status wholesale. Server
// pushes are authoritative over any optimistic local value.
func (s *Store) ApplyConversationStatus(status models.ConversationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// ApplyTyping merges users into the typing set. There is no removal event;
// entries age out after the configured TTL.
func (s *Store) ApplyTyping(users []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := s.now()
	for _, user := range users {
		if user != "" {
			s.typing[user] = seen
		}
	}
}

// Reads

// Groups returns the cached group list
func (s *Store) Groups() []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Group(nil), s.groups...)
}

// Characters returns the cached character list
func (s *Store) Characters() []models.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Character(nil), s.characters...)
}

// Messages returns the active group's message log in arrival order
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages...)
}

// ActiveGroup returns the selected group, or nil
func (s *Store) ActiveGroup() *models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeGroup == nil {
		return nil
	}
	active := *s.activeGroup
	return &active
}

// Status returns the current conversation status
func (s *Store) Status() models.ConversationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// TypingUsers returns the names currently typing, expired entries filtered
// out, sorted for stable rendering
func (s *Store) TypingUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.opts.TypingTTL)
	users := make([]string, 0, len(s.typing))
	for user, seen := range s.typing {
		if seen.Before(cutoff) {
			delete(s.typing, user)
			continue
		}
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// Session actions

// Initialize seeds the session with groups and characters
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.LoadGroups(ctx); err != nil {
		return err
	}
	return s.LoadCharacters(ctx)
}

// LoadGroups refreshes the cached group list
func (s *Store) LoadGroups(ctx context.Context) error {
	groups, err := s.gw.GetGroups(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.groups = groups
	s.mu.Unlock()
	return nil
}

// LoadCharacters refreshes the cached character list
func (s *Store) LoadCharacters(ctx context.Context) error {
	characters, err := s.gw.GetCharacters(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.characters = characters
	s.mu.Unlock()
	return nil
}

// SetActiveGroup switches the selected group: leaves the previous channel,
// replaces the message log with the new group's fetched history and joins
// its channel. Passing nil deselects and clears the log.
func (s *Store) SetActiveGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	prev := s.activeGroup
	ch := s.ch
	s.mu.Unlock()

	if prev != nil && ch != nil {
		if err := ch.LeaveGroup(prev.ID); err != nil {
			log.Printf("Failed to leave group %s: %v", prev.ID, err)
		}
	}

	if group == nil {
		s.mu.Lock()
		s.activeGroup = nil
		s.messages = nil
		s.mu.Unlock()
		return nil
	}

	history, err := s.gw.GetGroupMessages(ctx, group.ID, 0, s.opts.HistoryPageSize)
	if err != nil {
		s.mu.Lock()
		s.activeGroup = group
		s.messages = nil
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.activeGroup = group
	s.messages = history
	s.mu.Unlock()

	if ch != nil {
		if err := ch.JoinGroup(group.ID); err != nil {
			log.Printf("Failed to join group %s: %v", group.ID, err)
		}
	}
	return nil
}

// StartConversation asks the backend to begin generating and optimistically
// marks the conversation active. A later conversation_status event is
// authoritative and may overwrite this. On failure local state is untouched.
func (s *Store) StartConversation(ctx context.Context, groupID string) error {
	if err := s.gw.StartConversation(ctx, groupID); err != nil {
		return err
	}
	s.mu.Lock()
	s.status = models.ConversationStatus{IsActive: true, GroupID: &groupID}
	s.mu.Unlock()
	return nil
}

// StopConversation asks the backend to stop generating and optimistically
// marks the conversation inactive
func (s *Store) StopConversation(ctx context.Context, groupID string) error {
	if err := s.gw.StopConversation(ctx, groupID); err != nil {
		return err
	}
	s.mu.Lock()
	s.status = models.ConversationStatus{IsActive: false, GroupID: nil}
	s.mu.Unlock()
	return nil
}

// Group and character mutations: REST first, cache second. A failed call
// propagates and leaves the cache unchanged.

// CreateGroup creates a group and appends it to the cache
func (s *Store) CreateGroup(ctx context.Context, name string, description *string) (models.Group, error) {
	group, err := s.gw.CreateGroup(ctx, models.CreateGroupRequest{Name: name, Description: description})
	if err != nil {
		return models.Group{}, err
	}
	s.mu.Lock()
	s.groups = append(s.groups, group)
	s.mu.Unlock()
	return group, nil
}

// DeleteGroup deletes a group and drops it from the cache, deselecting it if
// it was active
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	if err := s.gw.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	s.mu.Lock()
	filtered := s.groups[:0]
	for _, g := range s.groups {
		if g.ID != groupID {
			filtered = append(filtered, g)
		}
	}
	s.groups = filtered
	if s.activeGroup != nil && s.activeGroup.ID == groupID {
		s.activeGroup = nil
		s.messages = nil
	}
	s.mu.Unlock()
	return nil
}

// CreateCharacter creates a character and appends it to the cache
func (s *Store) CreateCharacter(ctx context.Context, req models.CreateCharacterRequest) (models.Character, error) {
	character, err := s.gw.CreateCharacter(ctx, req)
	if err != nil {
		return models.Character{}, err
	}
	s.mu.Lock()
	s.characters = append(s.characters, character)
	s.mu.Unlock()
	return character, nil
}

// DeleteCharacter deletes a character and drops it from the cache
func (s *Store) DeleteCharacter(ctx context.Context, characterID string) error {
	if err := s.gw.DeleteCharacter(ctx, characterID); err != nil {
		return err
	}
	s.mu.Lock()
	filtered := s.characters[:0]
	for _, c := range s.characters {
		if c.ID != characterID {
			filtered = append(filtered, c)
		}
	}
	s.characters = filtered
	s.mu.Unlock()
	return nil
}

// CreatePredefinedCharacters seeds the backend's stock personas and reloads
// the character cache
func (s *Store) CreatePredefinedCharacters(ctx context.Context) error {
	if err := s.gw.CreatePredefinedCharacters(ctx); err != nil {
		return err
	}
	return s.LoadCharacters(ctx)
}

// AddCharacterToGroup adds a member and refreshes the group cache
func (s *Store) AddCharacterToGroup(ctx context.Context, groupID, characterID string) error {
	if _, err := s.gw.AddCharacterToGroup(ctx, groupID, characterID); err != nil {
		return err
	}
	return s.LoadGroups(ctx)
}

// RemoveCharacterFromGroup removes a member and refreshes the group cache
func (s *Store) RemoveCharacterFromGroup(ctx context.Context, groupID, characterID string) error {
	if _, err := s.gw.RemoveCharacterFromGroup(ctx, groupID, characterID); err != nil {
		return err
	}
	return s.LoadGroups(ctx)
}
