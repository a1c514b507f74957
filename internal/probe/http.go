package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTP probes a URL with GET. Any 2xx or 3xx answer counts as success.
type HTTP struct {
	Client *http.Client
	Target string
}

func NewHTTP(target string) *HTTP {
	return &HTTP{
		// deadline comes from the probe context
		Client: &http.Client{},
		Target: strings.TrimSpace(target),
	}
}

func (h *HTTP) Execute(ctx context.Context, _ string) (time.Duration, error) {
	if h.Target == "" {
		return 0, fmt.Errorf("http probe: target URL is required")
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Target, nil)
	if err != nil {
		return 0, fmt.Errorf("http probe: build request: %w", err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http probe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	latency := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return 0, fmt.Errorf("http probe: unexpected status %s", resp.Status)
	}
	return latency, nil
}
