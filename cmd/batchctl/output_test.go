package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]outputFormat{
		"":      outputTable,
		"table": outputTable,
		"JSON":  outputJSON,
		"yaml":  outputYAML,
	} {
		got, err := parseOutputFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseOutputFormat("xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestBatchTablePrint(t *testing.T) {
	table := newBatchTable("batch", "status")
	table.row("B-100", "Released")
	table.row("B-101", "In-Process")
	table.footer = "Page 1 of 1 (2 batches)"

	var buf bytes.Buffer
	require.NoError(t, table.print(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "BATCH"))
	assert.Contains(t, lines[1], "B-100")
	assert.Contains(t, lines[2], "In-Process")
	assert.Empty(t, lines[3])
	assert.Equal(t, "Page 1 of 1 (2 batches)", lines[4])
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "-", cellText("", 10))
	assert.Equal(t, "Purified Water", cellText("Purified Water", 20))
	assert.Equal(t, "Recombinant...", cellText("Recombinant Protein A Resin", 14))
}
