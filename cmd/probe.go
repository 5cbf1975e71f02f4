package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"charcha/client/internal/config"
	"charcha/client/internal/websocket"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Try each configured WebSocket endpoint once and report the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		failures := 0
		for i, endpoint := range cfg.WSEndpoints {
			fmt.Printf("Probing endpoint %d/%d: %s\n", i+1, len(cfg.WSEndpoints), endpoint)
			if err := websocket.Probe(endpoint, probeTimeout); err != nil {
				failures++
				fmt.Printf("  FAIL: %v\n", err)
				continue
			}
			fmt.Println("  OK: handshake succeeded")
		}

		if failures == len(cfg.WSEndpoints) {
			return fmt.Errorf("all %d endpoints unreachable", failures)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 5*time.Second, "handshake timeout per endpoint")
	rootCmd.AddCommand(probeCmd)
}
