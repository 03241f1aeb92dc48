package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// outputFormat specifies how to render CLI output.
type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

// parseOutputFormat parses and validates the output format flag.
func parseOutputFormat(s string) (outputFormat, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return outputTable, nil
	case "json":
		return outputJSON, nil
	case "yaml":
		return outputYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (supported: table, json, yaml)", s)
	}
}

// batchTable is the columnar form of a command result: batch listings,
// genealogy rows, roles, audit records. The footer carries pagination or
// record-count lines under the table.
type batchTable struct {
	columns []string
	rows    [][]string
	footer  string
}

func newBatchTable(columns ...string) *batchTable {
	return &batchTable{columns: columns}
}

func (t *batchTable) row(cells ...string) {
	t.rows = append(t.rows, cells)
}

// print writes the table with aligned columns and uppercased headers.
func (t *batchTable) print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(t.columns, "\t")))
	for _, cells := range t.rows {
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if t.footer != "" {
		fmt.Fprintf(w, "\n%s\n", t.footer)
	}
	return nil
}

// renderPayload serializes a decoded response as JSON or YAML.
func renderPayload(w io.Writer, format outputFormat, data any) error {
	if format == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// renderBody re-renders a raw JSON response body honoring the output flag.
// Nested payloads (batch detail, lineage) have no flat table form, so table
// mode falls back to pretty JSON.
func renderBody(w io.Writer, body []byte) error {
	format, err := parseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return renderPayload(w, format, data)
}

// cellText prepares a free-text value (product names, descriptions, actors)
// for a table cell: empty prints as "-", long values are shortened.
func cellText(s string, maxLen int) string {
	if s == "" {
		return "-"
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
