package mockserver

import (
	"net"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"charcha/client/internal/models"
)

// Options configures the mock backend
type Options struct {
	// Seed preloads the stock persona set
	Seed bool

	// RejectWebSocket makes /ws refuse the upgrade with 403. Used to
	// exercise the client's endpoint failover.
	RejectWebSocket bool

	// ScriptInterval is the cadence of generated conversation messages
	// while a conversation is active. Zero disables the generator.
	ScriptInterval time.Duration
}

// Server is an in-memory stand-in for the chat backend: the /api/v1 REST
// surface plus the /ws event stream. It backs the mockserver command and the
// end-to-end client tests; nothing survives a restart.
type Server struct {
	opts Options
	app  *fiber.App

	mu         sync.Mutex
	groups     map[string]*models.Group
	characters map[string]*models.Character
	messages   map[string][]models.Message
	active     map[string]bool
	scriptStop map[string]chan struct{}
	clients    map[*wsClient]struct{}
}

// New creates a mock backend
func New(opts Options) *Server {
	s := &Server{
		opts:       opts,
		groups:     make(map[string]*models.Group),
		characters: make(map[string]*models.Character),
		messages:   make(map[string][]models.Message),
		active:     make(map[string]bool),
		scriptStop: make(map[string]chan struct{}),
		clients:    make(map[*wsClient]struct{}),
	}
	if opts.Seed {
		s.seed()
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "Charcha Mock Backend",
		DisableStartupMessage: true,
	})
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	app := s.app

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/ws", s.upgradeWS, websocket.New(s.handleWS))

	api := app.Group("/api/v1")

	groups := api.Group("/groups")
	groups.Get("/", s.listGroups)
	groups.Post("/", s.createGroup)
	groups.Get("/:groupId", s.getGroup)
	groups.Put("/:groupId", s.updateGroup)
	groups.Delete("/:groupId", s.deleteGroup)
	groups.Get("/:groupId/characters", s.listGroupMembers)
	groups.Get("/:groupId/available-characters", s.listAvailableCharacters)
	groups.Post("/:groupId/members", s.addGroupMember)
	groups.Delete("/:groupId/members/:characterId", s.removeGroupMember)
	groups.Post("/:groupId/conversation/start", s.startConversation)
	groups.Post("/:groupId/conversation/stop", s.stopConversation)
	groups.Get("/:groupId/conversation/status", s.conversationStatus)
	groups.Get("/:groupId/messages", s.listMessages)
	groups.Get("/:groupId/messages/recent", s.listRecentMessages)

	characters := api.Group("/characters")
	characters.Get("/", s.listCharacters)
	characters.Post("/", s.createCharacter)
	characters.Post("/predefined", s.createPredefined)
	characters.Get("/:characterId", s.getCharacter)
	characters.Put("/:characterId", s.updateCharacter)
	characters.Delete("/:characterId", s.deleteCharacter)
}

// Listen serves on the given address, blocking
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Listener serves on an existing listener; tests use this with an
// ephemeral port
func (s *Server) Listener(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the generators and the HTTP server
func (s *Server) Shutdown() error {
	s.mu.Lock()
	for groupID, stop := range s.scriptStop {
		close(stop)
		delete(s.scriptStop, groupID)
	}
	s.mu.Unlock()
	return s.app.Shutdown()
}
