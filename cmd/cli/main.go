package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/buzzmonitor/internal/jsonutil"
)

type stats struct {
	TotalQueries           int     `json:"total_queries"`
	SuccessfulQueries      int     `json:"successful_queries"`
	FailedQueries          int     `json:"failed_queries"`
	AverageExecutionTimeMS float64 `json:"average_execution_time_ms"`
	UptimeMS               float64 `json:"uptime_ms"`
	Running                bool    `json:"running"`
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")

	cmd := "stats"
	if len(os.Args) > 1 {
		cmd = strings.ToLower(os.Args[1])
	}

	client := &http.Client{Timeout: 10 * time.Second}
	switch cmd {
	case "stats":
		var s stats
		if err := call(client, http.MethodGet, api+"/api/stats", key, &s); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		state := "stopped"
		if s.Running {
			state = "running"
		}
		fmt.Printf("Monitor %s, up %s\n", state, (time.Duration(s.UptimeMS) * time.Millisecond).Round(time.Second))
		fmt.Printf("Queries: %d total, %d ok, %d failed\n", s.TotalQueries, s.SuccessfulQueries, s.FailedQueries)
		fmt.Printf("Average execution time: %.1f ms\n", s.AverageExecutionTimeMS)
	case "start", "stop":
		if err := call(client, http.MethodPost, api+"/api/monitor/"+cmd, key, nil); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Monitor " + cmd + " requested.")
	default:
		fmt.Println("usage: cli [stats|start|stop]")
		os.Exit(2)
	}
}

func call(c *http.Client, method, url, key string, out any) error {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return err
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API returned status: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return jsonutil.Decode(resp.Body, out)
}
