package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// dashboardSummary mirrors the server's dashboard summary JSON.
type dashboardSummary struct {
	ActiveCustomers int64 `json:"activeCustomers"`
	ActiveBatches   int64 `json:"activeBatches"`
	OpenDeviations  int64 `json:"openDeviations"`
	LabSamples      int64 `json:"labSamples"`
	ReleasedToday   int64 `json:"releasedToday"`
}

type statusCounts struct {
	NotStarted int `json:"notStarted"`
	InProgress int `json:"inProgress"`
	QAHold     int `json:"qaHold"`
	Completed  int `json:"completed"`
	Released   int `json:"released"`
}

type customerDashboardRow struct {
	CustomerID   string       `json:"customerId"`
	CustomerName string       `json:"customerName"`
	Counts       statusCounts `json:"counts"`
	TotalBatches int          `json:"totalBatches"`
	LastActivity string       `json:"lastActivity"`
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Operational dashboards",
	}

	cmd.AddCommand(newDashboardSummaryCmd())
	cmd.AddCommand(newDashboardCustomersCmd())
	cmd.AddCommand(newCustomerBatchesCmd())

	return cmd
}

func newDashboardSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show site-wide activity counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.doRequest("GET", "/api/v1/dashboard/summary", nil)
			if err != nil {
				return err
			}
			var s dashboardSummary
			if err := json.Unmarshal(body, &s); err != nil {
				return fmt.Errorf("parsing summary response: %w", err)
			}

			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			if format != outputTable {
				return renderPayload(os.Stdout, format, s)
			}

			fmt.Fprintf(os.Stdout, "Active customers:  %d\n", s.ActiveCustomers)
			fmt.Fprintf(os.Stdout, "Active batches:    %d\n", s.ActiveBatches)
			fmt.Fprintf(os.Stdout, "Open deviations:   %d\n", s.OpenDeviations)
			fmt.Fprintf(os.Stdout, "Lab samples:       %d\n", s.LabSamples)
			fmt.Fprintf(os.Stdout, "Released today:    %d\n", s.ReleasedToday)
			return nil
		},
	}
}

func newDashboardCustomersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "Show per-customer batch counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.doRequest("GET", "/api/v1/dashboard/customers", nil)
			if err != nil {
				return err
			}
			var resp struct {
				Customers []customerDashboardRow `json:"customers"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parsing customers response: %w", err)
			}

			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			if format != outputTable {
				return renderPayload(os.Stdout, format, resp)
			}

			table := newBatchTable("customer", "total", "in progress", "qa hold", "completed", "released", "last activity")
			for _, c := range resp.Customers {
				table.row(
					cellText(c.CustomerName, 40),
					strconv.Itoa(c.TotalBatches),
					strconv.Itoa(c.Counts.InProgress),
					strconv.Itoa(c.Counts.QAHold),
					strconv.Itoa(c.Counts.Completed),
					strconv.Itoa(c.Counts.Released),
					c.LastActivity,
				)
			}
			return table.print(os.Stdout)
		},
	}
}

func newCustomerBatchesCmd() *cobra.Command {
	var (
		page   int
		limit  int
		search string
		status string
	)

	cmd := &cobra.Command{
		Use:   "batches <customer-id>",
		Short: "List a customer's batches with progress and deviation counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/customers/%s/batches?page=%d&limit=%d", args[0], page, limit)
			if search != "" {
				path += "&search=" + search
			}
			if status != "" {
				path += "&status=" + status
			}
			body, err := globalClient.doRequest("GET", path, nil)
			if err != nil {
				return err
			}

			var resp struct {
				Batches []struct {
					APIBatchID    string `json:"apiBatchId"`
					ProductName   string `json:"productName"`
					DisplayStatus string `json:"displayStatus"`
					Progress      int    `json:"progress"`
					Samples       int64  `json:"samples"`
					Deviations    struct {
						Total int64 `json:"total"`
					} `json:"deviations"`
				} `json:"batches"`
				Pagination struct {
					Page         int   `json:"page"`
					TotalPages   int   `json:"totalPages"`
					TotalRecords int64 `json:"totalRecords"`
				} `json:"pagination"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parsing batch list response: %w", err)
			}

			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			if format != outputTable {
				return renderBody(os.Stdout, body)
			}

			table := newBatchTable("batch", "product", "status", "progress", "samples", "deviations")
			for _, b := range resp.Batches {
				table.row(
					b.APIBatchID,
					cellText(b.ProductName, 30),
					b.DisplayStatus,
					fmt.Sprintf("%d%%", b.Progress),
					strconv.FormatInt(b.Samples, 10),
					strconv.FormatInt(b.Deviations.Total, 10),
				)
			}
			table.footer = fmt.Sprintf("Page %d of %d (%d batches)",
				resp.Pagination.Page, resp.Pagination.TotalPages, resp.Pagination.TotalRecords)
			return table.print(os.Stdout)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Batches per page")
	cmd.Flags().StringVar(&search, "search", "", "Filter by batch identifier substring")
	cmd.Flags().StringVar(&status, "status", "", "Filter by lifecycle status")

	return cmd
}
