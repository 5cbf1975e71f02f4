package mockserver

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"charcha/client/internal/models"
)

// serverFrame is the outbound wire shape; fields are set per frame type
type serverFrame struct {
	Type          string             `json:"type"`
	ID            string             `json:"id,omitempty"`
	GroupID       string             `json:"groupId,omitempty"`
	CharacterID   string             `json:"characterId,omitempty"`
	CharacterName string             `json:"characterName,omitempty"`
	Content       string             `json:"content,omitempty"`
	MessageType   models.MessageType `json:"messageType,omitempty"`
	Timestamp     *time.Time         `json:"timestamp,omitempty"`
	IsAiGenerated bool               `json:"isAiGenerated,omitempty"`
	IsActive      *bool              `json:"isActive,omitempty"`
	NextTurn      string             `json:"nextTurn,omitempty"`
	Message       string             `json:"message,omitempty"`
	Users         []string           `json:"users,omitempty"`
}

// clientFrame is the inbound control frame shape
type clientFrame struct {
	Action   string `json:"action"`
	GroupID  string `json:"groupId,omitempty"`
	IsTyping *bool  `json:"isTyping,omitempty"`
}

func statusFrame(groupID string, active bool) serverFrame {
	f := serverFrame{Type: "conversation_status", IsActive: &active}
	if active {
		f.GroupID = groupID
	}
	return f
}

func typingFrame(users []string) serverFrame {
	return serverFrame{Type: "typing", Users: users}
}

func messageFrame(msg models.Message) serverFrame {
	ts := msg.Timestamp
	f := serverFrame{
		Type:          "message",
		ID:            msg.ID,
		GroupID:       msg.GroupID,
		CharacterID:   msg.CharacterID,
		CharacterName: msg.CharacterName,
		Content:       msg.Content,
		MessageType:   msg.MessageType,
		Timestamp:     &ts,
		IsAiGenerated: msg.IsAiGenerated,
	}
	if msg.NextTurn != nil {
		f.NextTurn = *msg.NextTurn
	}
	return f
}

// wsClient is one connected socket and the groups it joined
type wsClient struct {
	conn *websocket.Conn

	mu     sync.Mutex
	joined map[string]bool
}

func (c *wsClient) send(f serverFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(f)
}

func (c *wsClient) inGroup(groupID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joined[groupID]
}

// upgradeWS gates the /ws route
func (s *Server) upgradeWS(c *fiber.Ctx) error {
	if s.opts.RejectWebSocket {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "websocket disabled"})
	}
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "websocket upgrade required"})
}

// handleWS runs one connection: welcome, then the control-frame read loop
func (s *Server) handleWS(conn *websocket.Conn) {
	client := &wsClient{conn: conn, joined: make(map[string]bool)}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		conn.Close()
	}()

	if err := client.send(serverFrame{Type: "welcome", Message: "connected to charcha mock backend"}); err != nil {
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f clientFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			log.Printf("mockserver: dropping unparseable client frame: %v", err)
			continue
		}

		switch f.Action {
		case "join_group":
			client.mu.Lock()
			client.joined[f.GroupID] = true
			client.mu.Unlock()
		case "leave_group":
			client.mu.Lock()
			delete(client.joined, f.GroupID)
			client.mu.Unlock()
		case "typing":
			if f.IsTyping != nil && *f.IsTyping {
				s.broadcastToGroup(f.GroupID, typingFrame([]string{"Guest"}), client)
			}
		case "ping":
			// keepalive, nothing to answer
		default:
			log.Printf("mockserver: unknown client action %q", f.Action)
		}
	}
}

func (s *Server) snapshotClients() []*wsClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	clients := make([]*wsClient, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	return clients
}

func (s *Server) broadcastAll(f serverFrame) {
	for _, client := range s.snapshotClients() {
		if err := client.send(f); err != nil {
			log.Printf("mockserver: broadcast failed: %v", err)
		}
	}
}

func (s *Server) broadcastToGroup(groupID string, f serverFrame, exclude *wsClient) {
	for _, client := range s.snapshotClients() {
		if client == exclude || !client.inGroup(groupID) {
			continue
		}
		if err := client.send(f); err != nil {
			log.Printf("mockserver: broadcast failed: %v", err)
		}
	}
}

// runScript generates a scripted conversation for a group until stopped:
// a typing hint, then a message, round-robin through the members
func (s *Server) runScript(groupID string, stop chan struct{}) {
	turn := 0
	for {
		select {
		case <-stop:
			return
		case <-time.After(s.opts.ScriptInterval):
		}

		s.mu.Lock()
		group, ok := s.groups[groupID]
		var members []models.Character
		if ok {
			members = append(members, group.Members...)
		}
		s.mu.Unlock()
		if !ok {
			return
		}

		speaker := models.Character{ID: uuid.New().String(), Name: "Narrator"}
		var nextTurn string
		if len(members) > 0 {
			speaker = members[turn%len(members)]
			nextTurn = members[(turn+1)%len(members)].Name
		}

		s.broadcastToGroup(groupID, typingFrame([]string{speaker.Name}), nil)

		msg := models.Message{
			ID:            uuid.New().String(),
			GroupID:       groupID,
			CharacterID:   speaker.ID,
			CharacterName: speaker.Name,
			Content:       cannedLines[turn%len(cannedLines)],
			MessageType:   models.MessageTypeText,
			Timestamp:     time.Now(),
			IsAiGenerated: true,
		}
		if nextTurn != "" {
			msg.NextTurn = &nextTurn
		}

		s.mu.Lock()
		s.messages[groupID] = append(s.messages[groupID], msg)
		s.mu.Unlock()

		s.broadcastToGroup(groupID, messageFrame(msg), nil)
		turn++
	}
}
