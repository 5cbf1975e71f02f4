package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"charcha/client/internal/api"
	"charcha/client/internal/config"
	"charcha/client/internal/models"
	"charcha/client/internal/store"
	"charcha/client/internal/websocket"
)

var (
	runGroup string
	runStart bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the backend and stream a group's conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runGroup, "group", "g", "", "group id or name to join (default: first group)")
	runCmd.Flags().BoolVar(&runStart, "start", false, "start the conversation after joining")
	rootCmd.AddCommand(runCmd)
}

// consoleHandler tees decoded events into the store and onto the terminal
type consoleHandler struct {
	store *store.Store
}

func (h *consoleHandler) ApplyMessage(msg models.Message) {
	h.store.ApplyMessage(msg)
	fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), msg.CharacterName, msg.Content)
}

func (h *consoleHandler) ApplyConversationStatus(status models.ConversationStatus) {
	h.store.ApplyConversationStatus(status)
	if status.IsActive && status.GroupID != nil {
		fmt.Printf("-- conversation active in group %s\n", *status.GroupID)
	} else {
		fmt.Println("-- conversation stopped")
	}
}

func (h *consoleHandler) ApplyTyping(users []string) {
	h.store.ApplyTyping(users)
	fmt.Printf("-- %s typing...\n", strings.Join(users, ", "))
}

func runClient(ctx context.Context) error {
	cfg := config.Load()

	gateway := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	st := store.NewStore(gateway, store.Options{
		TypingTTL:       cfg.TypingTTL,
		HistoryPageSize: cfg.HistoryPageSize,
	})

	selector, err := websocket.NewEndpointSelector(cfg.WSEndpoints)
	if err != nil {
		return err
	}

	var manager *websocket.Manager
	manager = websocket.NewManager(selector, &consoleHandler{store: st}, websocket.Options{
		DialTimeout:        cfg.DialTimeout,
		PingInterval:       cfg.PingInterval,
		RejectedRetryDelay: cfg.RejectedRetryDelay,
		ClosedRetryDelay:   cfg.ClosedRetryDelay,
		OnStateChange: func(connected bool) {
			if connected {
				fmt.Println("-- connected to chat")
				// rejoin the group's channel after a reconnect
				if g := st.ActiveGroup(); g != nil {
					if err := manager.JoinGroup(g.ID); err != nil {
						log.Printf("Failed to rejoin group %s: %v", g.ID, err)
					}
				}
			} else {
				fmt.Println("-- disconnected from chat")
			}
		},
		OnNotice: func(level websocket.NoticeLevel, text string) {
			if level == websocket.NoticeError {
				fmt.Printf("-- server error: %s\n", text)
			} else {
				fmt.Printf("-- %s\n", text)
			}
		},
	})
	st.AttachChannel(manager)

	if err := st.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}

	group, err := pickGroup(st.Groups(), runGroup)
	if err != nil {
		return err
	}

	manager.Connect()
	defer manager.Disconnect()

	if err := st.SetActiveGroup(ctx, &group); err != nil {
		return fmt.Errorf("select group %s: %w", group.Name, err)
	}
	log.Printf("Joined group %q (%d messages of history)", group.Name, len(st.Messages()))
	for _, msg := range st.Messages() {
		fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), msg.CharacterName, msg.Content)
	}

	if runStart {
		if err := st.StartConversation(ctx, group.ID); err != nil {
			return fmt.Errorf("start conversation: %w", err)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	if runStart {
		if err := st.StopConversation(context.Background(), group.ID); err != nil {
			log.Printf("Failed to stop conversation: %v", err)
		}
	}
	return nil
}

func pickGroup(groups []models.Group, wanted string) (models.Group, error) {
	if len(groups) == 0 {
		return models.Group{}, fmt.Errorf("backend has no groups; create one first")
	}
	if wanted == "" {
		return groups[0], nil
	}
	for _, g := range groups {
		if g.ID == wanted || strings.EqualFold(g.Name, wanted) {
			return g, nil
		}
	}
	return models.Group{}, fmt.Errorf("no group matching %q", wanted)
}
