// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/hamed0406/buzzmonitor/internal/config"
	"github.com/hamed0406/buzzmonitor/internal/probe"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fail(err.Error())
	}

	if err := cfg.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		os.Exit(1)
	}
	pc := cfg.ProbeConfig()
	ok(fmt.Sprintf("monitor %q: every %s, keep %d, timeout %s", cfg.Monitor.Name, pc.Interval, pc.MaxQueries, pc.Timeout))

	if pc.Timeout > pc.Interval && pc.MaxInFlight == 0 {
		warn("monitor.timeout exceeds monitor.interval with no max_in_flight; slow probes will overlap.")
	}
	if cfg.Probe.Kind == probe.KindSimulated {
		warn("probe.kind is simulated; no real target is probed.")
	} else {
		ok("probe " + cfg.Probe.Kind + " -> " + cfg.Probe.Target)
	}

	if len(cfg.API.AdminKeys) == 0 {
		warn("API_ADMIN_KEYS is empty; anyone can start/stop the monitor.")
	}
	if len(cfg.API.PublicKeys) == 0 && len(cfg.API.AdminKeys) == 0 {
		warn("no API keys configured; read routes are open.")
	}
	if len(cfg.API.AllowedOrigins) == 0 {
		warn("API_ALLOWED_ORIGINS empty; CORS allows every origin.")
	}
	if cfg.Alert.Enabled && cfg.Alert.SlackWebhook == "" {
		warn("alerts enabled without ALERT_SLACK_WEBHOOK; alerts only go to the log.")
	}

	ok("API_ADDR=" + cfg.API.Addr)
	ok("preflight passed")
}
