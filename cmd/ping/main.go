// Command ping checks the local /healthz endpoint and exits non-zero when the
// server is unhealthy. It is meant for a container HEALTHCHECK.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort    = 8080
	healthEndpoint = "/healthz"
	requestTimeout = 2 * time.Second
)

// exit codes
const (
	codeRequestFailed = 2
	codeBadStatus     = 3
	codeDecodeError   = 4
	codeUnhealthy     = 5
)

type healthResp struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// checkError carries the exit code for a failed check.
type checkError struct {
	code int
	err  error
}

func (e *checkError) Error() string { return e.err.Error() }

func main() {
	port := detectPort(os.Getenv("APP_PORT"))
	url := fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := checkHealth(ctx, http.DefaultClient, url); err != nil {
		log.Print(err)
		var pe *checkError
		if errors.As(err, &pe) {
			os.Exit(pe.code)
		}
		os.Exit(1)
	}
	log.Printf("service healthy on port %d", port)
}

func checkHealth(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &checkError{codeRequestFailed, err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return &checkError{codeRequestFailed, fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	var h healthResp
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return &checkError{codeDecodeError, fmt.Errorf("decode error: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &checkError{codeBadStatus, fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, h.Error)}
	}
	if h.Status != "" && h.Status != "ok" {
		return &checkError{codeUnhealthy, fmt.Errorf("service reported %q", h.Status)}
	}
	return nil
}

// detectPort parses raw and falls back to defaultPort.
func detectPort(raw string) int {
	if p, err := strconv.Atoi(raw); err == nil && p > 0 && p <= 65535 {
		return p
	}
	return defaultPort
}
