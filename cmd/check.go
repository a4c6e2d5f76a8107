package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/voicedroplab/voicedrop/internal/service"

	"github.com/spf13/cobra"
)

var checkServer string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the upload server is reachable",
	Long:  `Issue GET {serverUrl}/status and report whether the server answered.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg)
		defer svc.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		if err := svc.CheckServer(ctx, checkServer); err != nil {
			return fmt.Errorf("server check failed: %w", err)
		}

		fmt.Println("Server is reachable")
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkServer, "server", "s", "", "server URL (overrides config)")
}
