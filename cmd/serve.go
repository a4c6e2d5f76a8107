package cmd

import (
	"fmt"

	"github.com/voicedroplab/voicedrop/internal/server"
	"github.com/voicedroplab/voicedrop/internal/service"

	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP control API",
	Long: `Expose start/stop/status/check over a local HTTP API so a UI can drive
voicedrop remotely.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg)
		defer svc.Close()

		srv := server.New(svc, servePort)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("control server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8797, "port for the control API")
}
