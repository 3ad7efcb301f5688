package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bonjohen/gistqueue/internal/models"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Verify credentials and environment configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.checkEnvironment(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("GistQueue environment is properly configured.")
		return nil
	},
}

var (
	createQueuePublic bool

	createQueueCmd = &cobra.Command{
		Use:   "create-queue [name]",
		Short: "Create a new message queue (no-op if it already exists)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			name := ""
			if len(args) > 0 {
				name = args[0]
			}

			doc, err := a.directory.CreateQueue(cmd.Context(), name, createQueuePublic)
			if err != nil {
				return err
			}
			fmt.Printf("Queue ready: %s (%s)\n", doc.Description, doc.URL)
			return nil
		},
	}
)

var (
	listQueuesFormat string

	listQueuesCmd = &cobra.Command{
		Use:   "list-queues",
		Short: "List all available queues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(listQueuesFormat); err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}

			queues, err := a.directory.ListQueues(cmd.Context())
			if err != nil {
				return err
			}

			if listQueuesFormat == formatJSON {
				return printJSON(queues)
			}
			printQueueTable(queues)
			return nil
		},
	}
)

var (
	getQueueID     string
	getQueueFormat string

	getQueueCmd = &cobra.Command{
		Use:   "get-queue [name]",
		Short: "Show one queue by name or document ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(getQueueFormat); err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}

			var doc *models.Document
			switch {
			case getQueueID != "":
				doc, err = a.directory.GetQueueByID(cmd.Context(), getQueueID)
			case len(args) > 0:
				doc, err = a.directory.GetQueue(cmd.Context(), args[0])
			default:
				doc, err = a.directory.GetQueue(cmd.Context(), "")
			}
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("queue not found")
			}

			info := models.QueueInfo{
				ID:          doc.ID,
				Name:        queueNameFromDescription(doc.Description),
				Description: doc.Description,
				URL:         doc.URL,
				CreatedAt:   doc.CreatedAt,
				UpdatedAt:   doc.UpdatedAt,
			}
			if getQueueFormat == formatJSON {
				return printJSON(info)
			}
			printQueueTable([]models.QueueInfo{info})
			return nil
		},
	}
)

// queueNameFromDescription strips the configured prefix from a queue
// description to recover the queue name
func queueNameFromDescription(description string) string {
	prefix := config.Queue.DescriptionPrefix
	if len(description) > len(prefix) && description[:len(prefix)] == prefix {
		name := description[len(prefix):]
		for len(name) > 0 && name[0] == ' ' {
			name = name[1:]
		}
		return name
	}
	return description
}

func init() {
	createQueueCmd.Flags().BoolVar(&createQueuePublic, "public", false, "Create the queue as a public gist")
	listQueuesCmd.Flags().StringVar(&listQueuesFormat, "format", formatTable, "Output format (table|json)")
	getQueueCmd.Flags().StringVar(&getQueueID, "id", "", "Look the queue up by document ID instead of name")
	getQueueCmd.Flags().StringVar(&getQueueFormat, "format", formatTable, "Output format (table|json)")
}
