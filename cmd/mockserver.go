package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"charcha/client/internal/mockserver"
)

var (
	mockAddr     string
	mockInterval time.Duration
	mockNoSeed   bool
)

var mockserverCmd = &cobra.Command{
	Use:   "mockserver",
	Short: "Run the in-memory mock backend for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mockserver.New(mockserver.Options{
			Seed:           !mockNoSeed,
			ScriptInterval: mockInterval,
		})
		log.Printf("Mock backend listening on %s", mockAddr)
		return srv.Listen(mockAddr)
	},
}

func init() {
	mockserverCmd.Flags().StringVar(&mockAddr, "addr", ":8080", "listen address")
	mockserverCmd.Flags().DurationVar(&mockInterval, "interval", 3*time.Second, "cadence of generated conversation messages")
	mockserverCmd.Flags().BoolVar(&mockNoSeed, "no-seed", false, "start without demo characters and group")
	rootCmd.AddCommand(mockserverCmd)
}
