package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays FEED_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("FEED_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FEED_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	setInt("FEED_FSYNC_INTERVAL_MS", &cfg.FsyncIntervalMs)

	if v := os.Getenv("FEED_QUEUE"); v != "" {
		cfg.Feed.Queue = v
	}
	if v := os.Getenv("FEED_RETENTION_PERIOD_SECONDS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Feed.RetentionPeriodSeconds = n
		}
	}
	if v := os.Getenv("FEED_AUTHORIZED_IDENTITY"); v != "" {
		cfg.Feed.AuthorizedIdentity = v
	}
	setInt("FEED_TICK_INTERVAL_MS", &cfg.Feed.TickIntervalMs)
	setInt("FEED_MAX_PAYLOAD_BYTES", &cfg.Feed.MaxPayloadBytes)
	setInt("FEED_PRUNE_BATCH", &cfg.Feed.PruneBatch)

	if v := os.Getenv("FEED_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("FEED_GRPC_ADDR"); v != "" {
		cfg.Server.GRPCAddr = v
	}
	setList("FEED_CORS_ORIGINS", &cfg.Server.CORSOrigins)

	if v := os.Getenv("FEED_NOTIFY_DRIVER"); v != "" {
		cfg.Notify.Driver = v
	}
	if v := os.Getenv("FEED_NATS_URL"); v != "" {
		cfg.Notify.NATSURL = v
	}
	if v := os.Getenv("FEED_REDIS_URL"); v != "" {
		cfg.Notify.RedisURL = v
	}
	setList("FEED_KAFKA_BROKERS", &cfg.Notify.KafkaBrokers)
	setInt("FEED_PUBLISH_TIMEOUT_MS", &cfg.Notify.PublishTimeoutMs)

	if v := os.Getenv("FEED_ARCHIVE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if v := os.Getenv("FEED_ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("FEED_ARCHIVE_PREFIX"); v != "" {
		cfg.Archive.Prefix = v
	}
	if v := os.Getenv("FEED_ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}
	if v := os.Getenv("FEED_ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}

	if v := os.Getenv("FEED_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FEED_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	setList("FEED_LOG_REDACT", &cfg.Log.Redact)
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setList(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	*dst = nil
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			*dst = append(*dst, p)
		}
	}
}
