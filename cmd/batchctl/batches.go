package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// batchRecord mirrors the server's batch JSON.
type batchRecord struct {
	ID           string     `json:"id"`
	APIBatchID   string     `json:"apiBatchId"`
	CustomerID   string     `json:"customerId"`
	ProjectID    string     `json:"projectId"`
	ProductName  string     `json:"productName"`
	Status       string     `json:"status"`
	Quantity     float64    `json:"quantity,omitempty"`
	Unit         string     `json:"unit,omitempty"`
	ReleasedAt   *time.Time `json:"releasedAt,omitempty"`
	ReleasedBy   string     `json:"releasedBy,omitempty"`
	ReleaseNotes string     `json:"releaseNotes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// releasedBatch mirrors the release endpoint's enriched response.
type releasedBatch struct {
	batchRecord
	CustomerName string `json:"customerName"`
	ProjectName  string `json:"projectName"`
}

func newBatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Inspect and operate manufacturing batches",
	}

	cmd.AddCommand(newBatchStatusCmd())
	cmd.AddCommand(newBatchReleaseCmd())
	cmd.AddCommand(newBatchForceReleaseCmd())
	cmd.AddCommand(newBatchUpdateStatusCmd())
	cmd.AddCommand(newBatchDetailCmd())
	cmd.AddCommand(newBatchGenealogyCmd())
	cmd.AddCommand(newBatchLineageCmd())

	return cmd
}

func newBatchStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <batch-id>",
		Short: "Show a batch's lifecycle status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.doRequest("GET", "/api/v1/batches/"+args[0]+"/status", nil)
			if err != nil {
				return err
			}
			var b batchRecord
			if err := json.Unmarshal(body, &b); err != nil {
				return fmt.Errorf("parsing batch response: %w", err)
			}
			return printBatch(b)
		},
	}
}

func newBatchReleaseCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "release <batch-id>",
		Short: "Release a completed batch",
		Long: `Release a completed batch. The server enforces the release gate:
the batch must not already be released, must have no open deviations,
and must have no pending or in-progress test results.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.postJSON("PUT", "/api/v1/batches/"+args[0]+"/release", map[string]string{"notes": notes})
			if err != nil {
				return err
			}
			var rb releasedBatch
			if err := json.Unmarshal(body, &rb); err != nil {
				return fmt.Errorf("parsing release response: %w", err)
			}
			return printReleased(rb)
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Release notes to record on the batch")

	return cmd
}

func newBatchForceReleaseCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "force-release <batch-id>",
		Short: "Release a batch bypassing the quality gate",
		Long: `Release a batch even when open deviations or pending tests would
normally block it. Requires the batches/force grant and a documented
reason, which is recorded in the audit trail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reason == "" {
				return fmt.Errorf("--reason is required for a force release")
			}
			body, err := globalClient.postJSON("PUT", "/api/v1/batches/"+args[0]+"/force-release", map[string]string{"reason": reason})
			if err != nil {
				return err
			}
			var rb releasedBatch
			if err := json.Unmarshal(body, &rb); err != nil {
				return fmt.Errorf("parsing release response: %w", err)
			}
			return printReleased(rb)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Documented justification (required)")

	return cmd
}

func newBatchUpdateStatusCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "update-status <batch-id> <status>",
		Short: "Move a batch to a new lifecycle status",
		Long: `Move a batch to a new lifecycle status. Valid statuses are
"Not Started", "In-Process", "On-Hold", "Completed", "Released", and
"Rejected". The server rejects transitions the lifecycle does not
allow; updating to Released goes through the full release gate.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"status": args[1], "notes": notes}
			body, err := globalClient.postJSON("PUT", "/api/v1/batches/"+args[0]+"/status", payload)
			if err != nil {
				return err
			}
			var b batchRecord
			if err := json.Unmarshal(body, &b); err != nil {
				return fmt.Errorf("parsing batch response: %w", err)
			}
			return printBatch(b)
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes to attach to the status change")

	return cmd
}

func newBatchDetailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detail <batch-id>",
		Short: "Show the full batch record with steps, samples, and deviations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.doRequest("GET", "/api/v1/batches/"+args[0], nil)
			if err != nil {
				return err
			}
			// Detail output is nested; render it as json/yaml regardless of
			// the table flag.
			return renderBody(os.Stdout, body)
		},
	}
}

func newBatchGenealogyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genealogy <batch-id>",
		Short: "Show the batch's component genealogy table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.doRequest("GET", "/api/v1/batches/"+args[0]+"/genealogy-table", nil)
			if err != nil {
				return err
			}

			var resp struct {
				Rows []struct {
					StepSequence     int     `json:"stepSequence"`
					StepName         string  `json:"stepName"`
					ComponentName    string  `json:"componentName"`
					ComponentType    string  `json:"componentType"`
					ComponentBatchID string  `json:"componentBatchId"`
					Quantity         float64 `json:"quantity"`
					Unit             string  `json:"unit"`
					HasDeviationLink bool    `json:"hasDeviationLink"`
				} `json:"rows"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parsing genealogy response: %w", err)
			}

			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			if format != outputTable {
				return renderBody(os.Stdout, body)
			}

			table := newBatchTable("seq", "step", "component", "type", "source batch", "qty", "deviation")
			for _, r := range resp.Rows {
				dev := ""
				if r.HasDeviationLink {
					dev = "yes"
				}
				table.row(
					strconv.Itoa(r.StepSequence),
					cellText(r.StepName, 30),
					cellText(r.ComponentName, 30),
					r.ComponentType,
					cellText(r.ComponentBatchID, 24),
					fmt.Sprintf("%g %s", r.Quantity, r.Unit),
					dev,
				)
			}
			return table.print(os.Stdout)
		},
	}
}

func newBatchLineageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lineage <batch-id>",
		Short: "Show upstream materials and downstream batches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.doRequest("GET", "/api/v1/batches/"+args[0]+"/lineage", nil)
			if err != nil {
				return err
			}
			return renderBody(os.Stdout, body)
		},
	}
}

// printBatch renders a single batch record.
func printBatch(b batchRecord) error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	if format != outputTable {
		return renderPayload(os.Stdout, format, b)
	}

	fmt.Fprintf(os.Stdout, "Batch:    %s\n", b.APIBatchID)
	fmt.Fprintf(os.Stdout, "Product:  %s\n", b.ProductName)
	fmt.Fprintf(os.Stdout, "Status:   %s\n", b.Status)
	if b.Quantity > 0 {
		fmt.Fprintf(os.Stdout, "Quantity: %g %s\n", b.Quantity, b.Unit)
	}
	if b.ReleasedAt != nil {
		fmt.Fprintf(os.Stdout, "Released: %s by %s\n", b.ReleasedAt.Format(time.RFC3339), b.ReleasedBy)
	}
	fmt.Fprintf(os.Stdout, "Updated:  %s\n", b.UpdatedAt.Format(time.RFC3339))
	return nil
}

// printReleased renders the enriched release response.
func printReleased(rb releasedBatch) error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	if format != outputTable {
		return renderPayload(os.Stdout, format, rb)
	}

	fmt.Fprintf(os.Stdout, "Released %s (%s) for %s / %s\n", rb.APIBatchID, rb.ProductName, rb.CustomerName, rb.ProjectName)
	if rb.ReleasedAt != nil {
		fmt.Fprintf(os.Stdout, "At %s by %s\n", rb.ReleasedAt.Format(time.RFC3339), rb.ReleasedBy)
	}
	return nil
}
