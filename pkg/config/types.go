package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent cliptape configuration stored as
// config.toml in the .cliptape/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Capture     CaptureConfig     `toml:"capture"`
	EventStream EventStreamConfig `toml:"event_stream"`
}

// StorageConfig selects and configures the key-value store behind the
// history.
type StorageConfig struct {
	// Driver is one of "in-memory", "sqlite", "postgres" or "file".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	FilePath    string `toml:"file_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running
// daemon (e.g. cliptape list, cliptape ui). APITarget is a full URL.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`

	// Timeout is a Go duration string applied to every request.
	Timeout string `toml:"timeout,omitempty"`
}

// CaptureConfig holds settings for the clipboard watcher run by serve.
type CaptureConfig struct {
	Enabled      bool   `toml:"enabled"`
	PollInterval string `toml:"poll_interval,omitempty"`
	SourceURL    string `toml:"source_url,omitempty"`
	SourceTitle  string `toml:"source_title,omitempty"`
}

// EventStreamConfig holds settings for publishing store changes.
type EventStreamConfig struct {
	// Provider is "nop" or "kafka".
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// ClientTimeout parses Client.Timeout, falling back to the default.
func (c *Config) ClientTimeout() time.Duration {
	return parseDurationOr(c.Client.Timeout, defaultClientTimeout)
}

// CapturePollInterval parses Capture.PollInterval, falling back to the default.
func (c *Config) CapturePollInterval() time.Duration {
	return parseDurationOr(c.Capture.PollInterval, defaultPollInterval)
}

func parseDurationOr(s, fallback string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func durationSetter(key string, field func(c *Config) *string) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid value for %s: must be positive", key)
		}
		*field(c) = v
		return nil
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error {
			if !IsValidStorageDriver(v) {
				return fmt.Errorf("invalid value for storage.driver: %q (available: %s)", v, strings.Join(StorageDrivers(), ", "))
			}
			c.Storage.Driver = v
			return nil
		},
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"storage.file_path": {
		get: func(c *Config) string { return c.Storage.FilePath },
		set: func(c *Config, v string) error { c.Storage.FilePath = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: durationSetter("client.timeout", func(c *Config) *string { return &c.Client.Timeout }),
	},
	"capture.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Capture.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for capture.enabled: %w", err)
			}
			c.Capture.Enabled = b
			return nil
		},
	},
	"capture.poll_interval": {
		get: func(c *Config) string { return c.Capture.PollInterval },
		set: durationSetter("capture.poll_interval", func(c *Config) *string { return &c.Capture.PollInterval }),
	},
	"capture.source_url": {
		get: func(c *Config) string { return c.Capture.SourceURL },
		set: func(c *Config, v string) error { c.Capture.SourceURL = v; return nil },
	},
	"capture.source_title": {
		get: func(c *Config) string { return c.Capture.SourceTitle },
		set: func(c *Config, v string) error { c.Capture.SourceTitle = v; return nil },
	},
	"event_stream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventStreamNop, EventStreamKafka:
				c.EventStream.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for event_stream.provider: %q (available: %s, %s)", v, EventStreamNop, EventStreamKafka)
			}
		},
	},
	"event_stream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error {
			var brokers []string
			for b := range strings.SplitSeq(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					brokers = append(brokers, b)
				}
			}
			c.EventStream.Brokers = brokers
			return nil
		},
	},
	"event_stream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}
