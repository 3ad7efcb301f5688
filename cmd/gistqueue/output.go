package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bonjohen/gistqueue/internal/models"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func validFormat(format string) error {
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unknown format %q (expected %s or %s)", format, formatTable, formatJSON)
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printQueueTable(queues []models.QueueInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tURL\tCREATED\tUPDATED")
	for _, q := range queues {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			q.ID, q.Name, q.URL,
			q.CreatedAt.Format(time.RFC3339),
			q.UpdatedAt.Format(time.RFC3339))
	}
	w.Flush()
}

func printMessageTable(msgs []models.Message) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTATUS_DATETIME\tPROCESS\tCONTENT")
	for _, m := range msgs {
		process := ""
		if m.Process != nil {
			process = *m.Process
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Status, m.StatusDatetime, process, renderContent(m.Content))
	}
	w.Flush()
}

// renderContent flattens arbitrary message content to one table cell
func renderContent(content interface{}) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(v, "\n", " ")
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func printCleanupTable(results map[string]int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QUEUE\tREMOVED")
	for name, count := range results {
		if count < 0 {
			fmt.Fprintf(w, "%s\t%s\n", name, "failed")
			continue
		}
		fmt.Fprintf(w, "%s\t%d\n", name, count)
	}
	w.Flush()
}
