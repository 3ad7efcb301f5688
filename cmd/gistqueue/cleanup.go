package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bonjohen/gistqueue/internal/common"
	"github.com/bonjohen/gistqueue/internal/models"
)

var deleteCompletedCmd = &cobra.Command{
	Use:   "delete-completed-messages <queue>",
	Short: "Delete completed messages older than the retention threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		removed, err := a.store.PurgeCompleted(cmd.Context(), models.ParseQueueRef(args[0]), config.Cleanup.ThresholdDays)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d completed messages.\n", removed)
		return nil
	},
}

var (
	cleanupAllFormat string

	cleanupAllCmd = &cobra.Command{
		Use:   "cleanup-all-queues",
		Short: "Run one cleanup pass over every queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(cleanupAllFormat); err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}

			results := a.sweeper.CleanupAllQueues(cmd.Context())
			if cleanupAllFormat == formatJSON {
				return printJSON(results)
			}
			printCleanupTable(results)
			return nil
		},
	}
)

var (
	stopTimeout time.Duration

	startCleanupCmd = &cobra.Command{
		Use:   "start-cleanup",
		Short: "Run the background cleanup loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			common.PrintBanner(common.GetVersion())

			if !a.sweeperRunning {
				if err := a.sweeper.Start(); err != nil {
					return err
				}
			}
			logger.Info().
				Str("interval", config.Cleanup.Interval.String()).
				Int("threshold_days", config.Cleanup.ThresholdDays).
				Msg("Cleanup loop running")
			fmt.Println("Cleanup loop running. Press Ctrl+C to stop.")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan

			logger.Info().Msg("Stopping cleanup loop...")
			if err := a.sweeper.Stop(stopTimeout); err != nil {
				return err
			}
			fmt.Println("Cleanup loop stopped.")
			return nil
		},
	}
)

func init() {
	cleanupAllCmd.Flags().StringVar(&cleanupAllFormat, "format", formatTable, "Output format (table|json)")
	startCleanupCmd.Flags().DurationVar(&stopTimeout, "timeout", 5*time.Second, "How long to wait for the loop to stop on shutdown")
}
