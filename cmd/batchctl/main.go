// Package main provides the batchctl CLI for operating the batch registry
// server over its HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Global flags
	serverURL    string
	outputFlag   string
	tokenFlag    string
	globalClient *registryClient
)

// registryClient wraps an HTTP client and the server base URL.
type registryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// newRegistryClient creates a new client targeting the given server URL.
func newRegistryClient(baseURL string) *registryClient {
	return &registryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
}

// doRequest performs an HTTP request and returns the response body bytes.
// It returns an error if the status code indicates a failure.
func (c *registryClient) doRequest(method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tokenFlag != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFlag)
	}

	c.logger.Debug("sending request", "method", method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to batch registry at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("server error (%d %s): %s", resp.StatusCode, errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("server error (%d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// postJSON marshals payload and POSTs/PUTs it to path.
func (c *registryClient) postJSON(method, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.doRequest(method, path, bytes.NewReader(data))
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "batchctl",
		Short: "CLI for the batch registry server",
		Long: `batchctl is a command-line tool for operating the batch registry.

It provides commands for logging in, inspecting and releasing batches,
viewing dashboards, and managing users and roles.

The CLI communicates with the batch-server HTTP API. Authenticated
commands read the session token from --token or BATCHREG_TOKEN.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			globalClient = newRegistryClient(serverURL)
			if tokenFlag == "" {
				tokenFlag = os.Getenv("BATCHREG_TOKEN")
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Batch registry server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Session token (defaults to BATCHREG_TOKEN)")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newBatchesCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(newLogsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
