package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/hamed0406/buzzmonitor/internal/domain"
	"github.com/hamed0406/buzzmonitor/internal/probe"
)

type MonitorCfg struct {
	Name        string        `mapstructure:"name"`
	Interval    time.Duration `mapstructure:"interval"`
	MaxQueries  int           `mapstructure:"max_queries"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxInFlight int           `mapstructure:"max_in_flight"`
}

type ProbeCfg struct {
	Kind        string  `mapstructure:"kind"`
	Target      string  `mapstructure:"target"`
	FailureRate float64 `mapstructure:"failure_rate"`
}

type APICfg struct {
	Addr           string   `mapstructure:"addr"` // e.g. "127.0.0.1:8080" or ":8080" (Docker)
	PublicKeys     []string `mapstructure:"public_keys"`
	AdminKeys      []string `mapstructure:"admin_keys"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PublicRPM      int      `mapstructure:"public_rpm"`
	PublicBurst    int      `mapstructure:"public_burst"`
	AdminRPM       int      `mapstructure:"admin_rpm"`
	AdminBurst     int      `mapstructure:"admin_burst"`
}

type LogCfg struct {
	Dir     string `mapstructure:"dir"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type AlertCfg struct {
	Enabled      bool          `mapstructure:"enabled"`
	SlackWebhook string        `mapstructure:"slack_webhook"`
	OnRecovery   bool          `mapstructure:"on_recovery"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type Config struct {
	Monitor MonitorCfg `mapstructure:"monitor"`
	Probe   ProbeCfg   `mapstructure:"probe"`
	API     APICfg     `mapstructure:"api"`
	Log     LogCfg     `mapstructure:"log"`
	Alert   AlertCfg   `mapstructure:"alert"`
}

// Load reads an optional YAML file at path, then lets environment variables
// override any key (monitor.interval -> MONITOR_INTERVAL).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("monitor.name", "buzz-monitor")
	v.SetDefault("monitor.interval", "5s")
	v.SetDefault("monitor.max_queries", 100)
	v.SetDefault("monitor.timeout", "30s")
	v.SetDefault("monitor.max_in_flight", 0)

	v.SetDefault("probe.kind", probe.KindSimulated)
	v.SetDefault("probe.target", "")
	v.SetDefault("probe.failure_rate", 0.1)

	// Windows-friendly default bind address
	v.SetDefault("api.addr", "127.0.0.1:8080")
	v.SetDefault("api.public_keys", []string{})
	v.SetDefault("api.admin_keys", []string{})
	v.SetDefault("api.allowed_origins", []string{})
	v.SetDefault("api.public_rpm", 120)
	v.SetDefault("api.public_burst", 60)
	v.SetDefault("api.admin_rpm", 30)
	v.SetDefault("api.admin_burst", 10)

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)

	v.SetDefault("alert.enabled", false)
	v.SetDefault("alert.slack_webhook", "")
	v.SetDefault("alert.on_recovery", true)
	v.SetDefault("alert.cooldown", "10m")
	v.SetDefault("alert.poll_interval", "10s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Probe.Kind = strings.ToLower(strings.TrimSpace(cfg.Probe.Kind))
	if cfg.Probe.Kind == "" {
		cfg.Probe.Kind = probe.KindSimulated
	}
	cfg.API.PublicKeys = clean(cfg.API.PublicKeys)
	cfg.API.AdminKeys = clean(cfg.API.AdminKeys)
	cfg.API.AllowedOrigins = clean(cfg.API.AllowedOrigins)
	return &cfg, nil
}

// ProbeConfig is the monitor part of the configuration.
func (c *Config) ProbeConfig() domain.ProbeConfig {
	return domain.ProbeConfig{
		Interval:    c.Monitor.Interval,
		MaxQueries:  c.Monitor.MaxQueries,
		Timeout:     c.Monitor.Timeout,
		MaxInFlight: c.Monitor.MaxInFlight,
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	err := c.ProbeConfig().Validate()

	switch c.Probe.Kind {
	case probe.KindSimulated:
		if c.Probe.FailureRate < 0 || c.Probe.FailureRate > 1 {
			err = multierr.Append(err, fmt.Errorf("probe.failure_rate must be within [0,1], got %v", c.Probe.FailureRate))
		}
	case probe.KindHTTP, probe.KindDNS, probe.KindHTTPDNS:
		if strings.TrimSpace(c.Probe.Target) == "" {
			err = multierr.Append(err, fmt.Errorf("probe.target is required for kind %q", c.Probe.Kind))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("probe.kind %q is not one of simulated, http, dns, http+dns", c.Probe.Kind))
	}

	if c.API.Addr == "" {
		err = multierr.Append(err, errors.New("api.addr is required"))
	}
	if c.Alert.Enabled && c.Alert.PollInterval <= 0 {
		err = multierr.Append(err, errors.New("alert.poll_interval must be positive"))
	}
	return err
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
