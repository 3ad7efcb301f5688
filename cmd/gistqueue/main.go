package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/bonjohen/gistqueue/internal/common"
)

var (
	configFiles []string
	config      *common.Config
	logger      arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "gistqueue",
	Short:         "A message queue backed by GitHub Gists",
	Long:          `GistQueue stores each queue as a gist holding a JSON array of messages, with optimistic-concurrency protection for concurrent workers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = common.LoadFromFiles(configFiles...)
		if err != nil {
			return err
		}
		logger = common.InitLogger(config)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil,
		"Configuration file path (can be specified multiple times, later files override earlier ones)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createQueueCmd)
	rootCmd.AddCommand(listQueuesCmd)
	rootCmd.AddCommand(getQueueCmd)
	rootCmd.AddCommand(createMessageCmd)
	rootCmd.AddCommand(listMessagesCmd)
	rootCmd.AddCommand(getNextMessageCmd)
	rootCmd.AddCommand(updateMessageCmd)
	rootCmd.AddCommand(deleteCompletedCmd)
	rootCmd.AddCommand(cleanupAllCmd)
	rootCmd.AddCommand(startCleanupCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
