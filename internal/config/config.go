package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir string `json:"dataDir" yaml:"dataDir" toml:"dataDir"`
	// Fsync is one of always, interval, never.
	Fsync           string `json:"fsync" yaml:"fsync" toml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs" toml:"fsyncIntervalMs"`

	Feed    FeedConfig    `json:"feed" yaml:"feed" toml:"feed"`
	Server  ServerConfig  `json:"server" yaml:"server" toml:"server"`
	Notify  NotifyConfig  `json:"notify" yaml:"notify" toml:"notify"`
	Archive ArchiveConfig `json:"archive" yaml:"archive" toml:"archive"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
}

// FeedConfig holds the values fixed for the lifetime of the feed.
type FeedConfig struct {
	Queue                  string `json:"queue" yaml:"queue" toml:"queue"`
	RetentionPeriodSeconds uint64 `json:"retentionPeriodSeconds" yaml:"retentionPeriodSeconds" toml:"retentionPeriodSeconds"`
	AuthorizedIdentity     string `json:"authorizedIdentity" yaml:"authorizedIdentity" toml:"authorizedIdentity"`
	TickIntervalMs         int    `json:"tickIntervalMs" yaml:"tickIntervalMs" toml:"tickIntervalMs"`
	MaxPayloadBytes        int    `json:"maxPayloadBytes" yaml:"maxPayloadBytes" toml:"maxPayloadBytes"`
	PruneBatch             int    `json:"pruneBatch" yaml:"pruneBatch" toml:"pruneBatch"`
}

// ServerConfig holds listener addresses.
type ServerConfig struct {
	HTTPAddr    string   `json:"httpAddr" yaml:"httpAddr" toml:"httpAddr"`
	GRPCAddr    string   `json:"grpcAddr" yaml:"grpcAddr" toml:"grpcAddr"`
	CORSOrigins []string `json:"corsOrigins" yaml:"corsOrigins" toml:"corsOrigins"`
}

// NotifyConfig selects the broker used for feed notifications.
type NotifyConfig struct {
	Driver           string   `json:"driver" yaml:"driver" toml:"driver"`
	NATSURL          string   `json:"natsUrl" yaml:"natsUrl" toml:"natsUrl"`
	RedisURL         string   `json:"redisUrl" yaml:"redisUrl" toml:"redisUrl"`
	KafkaBrokers     []string `json:"kafkaBrokers" yaml:"kafkaBrokers" toml:"kafkaBrokers"`
	PublishTimeoutMs int      `json:"publishTimeoutMs" yaml:"publishTimeoutMs" toml:"publishTimeoutMs"`
}

// ArchiveConfig enables export of evicted records to S3.
type ArchiveConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Bucket    string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Prefix    string `json:"prefix" yaml:"prefix" toml:"prefix"`
	Region    string `json:"region" yaml:"region" toml:"region"`
	Endpoint  string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	QueueSize int    `json:"queueSize" yaml:"queueSize" toml:"queueSize"`
}

// LogConfig mirrors log.Config.
type LogConfig struct {
	Level  string   `json:"level" yaml:"level" toml:"level"`
	Format string   `json:"format" yaml:"format" toml:"format"`
	Redact []string `json:"redact" yaml:"redact" toml:"redact"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Fsync:           "interval",
		FsyncIntervalMs: 5,
		Feed: FeedConfig{
			Queue:                  "events",
			RetentionPeriodSeconds: 3600,
			TickIntervalMs:         1000,
			MaxPayloadBytes:        1 << 20,
			PruneBatch:             1024,
		},
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":50051",
		},
		Notify: NotifyConfig{
			Driver:           "none",
			PublishTimeoutMs: 2000,
		},
		Archive: ArchiveConfig{
			Prefix:    "eventfeed",
			Region:    "us-east-1",
			QueueSize: 64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Redact: []string{"identity"},
		},
	}
}

// Load reads configuration from a JSON, YAML or TOML file (by extension)
// over the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(b), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse toml config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse json config %s: %w", path, err)
		}
	}
	return cfg, nil
}

var knownDrivers = map[string]bool{"": true, "none": true, "nats": true, "redis": true, "kafka": true}

// Validate reports every problem found in cfg.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Fsync) {
	case "", "always", "interval", "never":
	default:
		errs = append(errs, fmt.Errorf("fsync: unknown mode %q", c.Fsync))
	}
	if c.Feed.Queue == "" {
		errs = append(errs, errors.New("feed.queue: must not be empty"))
	}
	if c.Feed.TickIntervalMs <= 0 {
		errs = append(errs, errors.New("feed.tickIntervalMs: must be positive"))
	}
	if c.Feed.MaxPayloadBytes < 0 {
		errs = append(errs, errors.New("feed.maxPayloadBytes: must not be negative"))
	}
	if !knownDrivers[strings.ToLower(c.Notify.Driver)] {
		errs = append(errs, fmt.Errorf("notify.driver: unknown driver %q", c.Notify.Driver))
	}
	switch strings.ToLower(c.Notify.Driver) {
	case "nats":
		if c.Notify.NATSURL == "" {
			errs = append(errs, errors.New("notify.natsUrl: required for nats driver"))
		}
	case "redis":
		if c.Notify.RedisURL == "" {
			errs = append(errs, errors.New("notify.redisUrl: required for redis driver"))
		}
	case "kafka":
		if len(c.Notify.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("notify.kafkaBrokers: required for kafka driver"))
		}
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		errs = append(errs, errors.New("archive.bucket: required when archive is enabled"))
	}
	return errors.Join(errs...)
}
