package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// auditRecord mirrors the server's audit log JSON.
type auditRecord struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entityId,omitempty"`
	Action     string    `json:"action"`
	Outcome    string    `json:"outcome"`
	StatusCode int       `json:"statusCode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newLogsCmd() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List audit log records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/logs?limit=%d&offset=%d", limit, offset)
			body, err := globalClient.doRequest("GET", path, nil)
			if err != nil {
				return err
			}

			var resp struct {
				Logs  []auditRecord `json:"logs"`
				Total int64         `json:"total"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parsing logs response: %w", err)
			}

			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			if format != outputTable {
				return renderPayload(os.Stdout, format, resp)
			}

			table := newBatchTable("time", "actor", "entity", "entity id", "action", "outcome")
			for _, l := range resp.Logs {
				table.row(
					l.CreatedAt.Format(time.RFC3339),
					cellText(l.Actor, 30),
					l.Entity,
					cellText(l.EntityID, 24),
					l.Action,
					l.Outcome,
				)
			}
			table.footer = fmt.Sprintf("Showing %d of %d records", len(resp.Logs), resp.Total)
			return table.print(os.Stdout)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")

	return cmd
}
