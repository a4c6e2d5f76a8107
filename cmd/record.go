package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicedroplab/voicedrop/internal/service"
	"github.com/voicedroplab/voicedrop/internal/session"

	"github.com/spf13/cobra"
)

var (
	recordHours   string
	recordMinutes string
	recordName    string
	recordServer  string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone and upload the result",
	Long: `Record audio from the default microphone and upload it to the server.

With --hours/--minutes the recording stops automatically when the duration is
reached; otherwise it records until interrupted with Ctrl+C. The upload is
retried in the background until it succeeds or the retry budget is exhausted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg)
		defer svc.Close()

		if err := svc.StartRecording(recordHours, recordMinutes, recordName, recordServer); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
		slog.Info("Recording... Press Ctrl+C to stop")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		stopped := false
		for {
			select {
			case <-sigChan:
				if !stopped {
					slog.Info("Stopping recording...")
					if err := svc.StopRecording(); err != nil && err != session.ErrNoActiveRecording {
						return fmt.Errorf("failed to stop recording: %w", err)
					}
					stopped = true
					continue
				}
				// Second interrupt abandons pending uploads.
				slog.Warn("Interrupted again, abandoning pending uploads")
				return nil
			case <-ticker.C:
				status := svc.GetStatus()
				if status.Session.State == session.StateIdle {
					stopped = true
				}
				if stopped && status.UploadsActive == 0 {
					slog.Info("Done")
					return nil
				}
			}
		}
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordHours, "hours", "", "recording duration, hours part (empty = unbounded)")
	recordCmd.Flags().StringVar(&recordMinutes, "minutes", "", "recording duration, minutes part (empty = unbounded)")
	recordCmd.Flags().StringVarP(&recordName, "name", "n", "", "file name for the upload (default is a timestamped name)")
	recordCmd.Flags().StringVarP(&recordServer, "server", "s", "", "server URL (overrides config)")
}
