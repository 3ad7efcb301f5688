package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bonjohen/gistqueue/internal/models"
)

// parseContent decodes message content given on the command line: valid
// JSON is stored structured, anything else as a plain string
func parseContent(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

var createMessageCmd = &cobra.Command{
	Use:   "create-message <queue> <content>",
	Short: "Append a new pending message to a queue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		msg, err := a.store.CreateMessage(cmd.Context(), models.ParseQueueRef(args[0]), parseContent(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("Message created with ID: %s\n", msg.ID)
		return nil
	},
}

var (
	listMessagesStatus string
	listMessagesFormat string

	listMessagesCmd = &cobra.Command{
		Use:   "list-messages <queue>",
		Short: "List messages in a queue, optionally filtered by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(listMessagesFormat); err != nil {
				return err
			}

			status := models.MessageStatus(listMessagesStatus)
			if listMessagesStatus != "" && !status.Valid() {
				return fmt.Errorf("unknown status %q", listMessagesStatus)
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			msgs, err := a.store.ListMessages(cmd.Context(), models.ParseQueueRef(args[0]), status)
			if err != nil {
				return err
			}

			if listMessagesFormat == formatJSON {
				return printJSON(msgs)
			}
			printMessageTable(msgs)
			return nil
		},
	}
)

var (
	getNextMessageFormat string

	getNextMessageCmd = &cobra.Command{
		Use:   "get-next-message <queue>",
		Short: "Claim the next pending message and mark it in progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(getNextMessageFormat); err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}

			msg, err := a.controller.AtomicClaimNext(cmd.Context(), models.ParseQueueRef(args[0]))
			if err != nil {
				if errors.Is(err, models.ErrNoMessage) {
					fmt.Println("No pending messages found.")
					return nil
				}
				return err
			}

			if getNextMessageFormat == formatJSON {
				return printJSON(msg)
			}
			printMessageTable([]models.Message{*msg})
			return nil
		},
	}
)

var (
	updateMessageContent string
	updateMessageStatus  string
	updateMessageFormat  string

	updateMessageCmd = &cobra.Command{
		Use:   "update-message <queue> <id>",
		Short: "Update a message's content and/or status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(updateMessageFormat); err != nil {
				return err
			}

			var content interface{}
			if cmd.Flags().Changed("content") {
				content = parseContent(updateMessageContent)
			}

			var status *models.MessageStatus
			if cmd.Flags().Changed("status") {
				s := models.MessageStatus(updateMessageStatus)
				if !s.Valid() {
					return fmt.Errorf("unknown status %q", updateMessageStatus)
				}
				status = &s
			}

			if content == nil && status == nil {
				return fmt.Errorf("nothing to update: provide --content and/or --status")
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			msg, err := a.controller.AtomicUpdateMessage(cmd.Context(), models.ParseQueueRef(args[0]), args[1], content, status)
			if err != nil {
				return err
			}

			if updateMessageFormat == formatJSON {
				return printJSON(msg)
			}
			printMessageTable([]models.Message{*msg})
			return nil
		},
	}
)

func init() {
	listMessagesCmd.Flags().StringVar(&listMessagesStatus, "status", "", "Filter by status (pending|in_progress|complete|failed)")
	listMessagesCmd.Flags().StringVar(&listMessagesFormat, "format", formatTable, "Output format (table|json)")
	getNextMessageCmd.Flags().StringVar(&getNextMessageFormat, "format", formatTable, "Output format (table|json)")
	updateMessageCmd.Flags().StringVar(&updateMessageContent, "content", "", "New message content")
	updateMessageCmd.Flags().StringVar(&updateMessageStatus, "status", "", "New message status")
	updateMessageCmd.Flags().StringVar(&updateMessageFormat, "format", formatTable, "Output format (table|json)")
}
