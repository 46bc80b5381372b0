package events

import (
	"context"
	"fmt"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverNone  = "none"
	DriverNATS  = "nats"
	DriverRedis = "redis"
	DriverKafka = "kafka"
)

// Options selects and configures the broker publisher.
type Options struct {
	Driver       string
	NATSURL      string
	RedisURL     string
	KafkaBrokers []string
}

// Open returns the publisher for opts.Driver. An empty driver means none.
func Open(ctx context.Context, opts Options) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverNone:
		return &NoopPublisher{}, nil
	case DriverNATS:
		if opts.NATSURL == "" {
			return nil, fmt.Errorf("events: nats driver requires a url")
		}
		return NewNATSPublisher(opts.NATSURL)
	case DriverRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("events: redis driver requires a url")
		}
		return NewRedisPublisher(ctx, opts.RedisURL)
	case DriverKafka:
		return NewKafkaPublisher(opts.KafkaBrokers)
	default:
		return nil, fmt.Errorf("events: unknown driver %q", opts.Driver)
	}
}
