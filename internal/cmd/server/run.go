package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rzbill/eventfeed/internal/archive"
	"github.com/rzbill/eventfeed/internal/auth"
	cfgpkg "github.com/rzbill/eventfeed/internal/config"
	"github.com/rzbill/eventfeed/internal/events"
	"github.com/rzbill/eventfeed/internal/feed"
	"github.com/rzbill/eventfeed/internal/runtime"
	grpcserver "github.com/rzbill/eventfeed/internal/server/grpc"
	httpserver "github.com/rzbill/eventfeed/internal/server/http"
	pebblestore "github.com/rzbill/eventfeed/internal/storage/pebble"
	"github.com/rzbill/eventfeed/internal/ticker"
	"github.com/rzbill/eventfeed/pkg/clock"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

const slowCommitThreshold = 100 * time.Millisecond

type Options struct {
	Config cfgpkg.Config
	// Clock overrides the wall clock; tests only.
	Clock clock.Clock
}

// Run starts the feed with its tick driver and the gRPC and HTTP servers,
// and blocks until ctx is cancelled or a signal arrives.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg.Log)
	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	mode, err := pebblestore.ParseFsyncMode(cfg.Fsync)
	if err != nil {
		return err
	}
	rt, err := runtime.Open(runtime.Options{
		DataDir:       cfgpkg.StoreDir(cfg.DataDir),
		Fsync:         mode,
		FsyncInterval: time.Duration(cfg.FsyncIntervalMs) * time.Millisecond,
		Metrics:       pebblestore.SlowCommitLogger{Logger: logger.WithComponent("storage"), Threshold: slowCommitThreshold},
		Config:        cfg,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	queue, err := rt.OpenLog(cfg.Feed.Queue)
	if err != nil {
		return err
	}

	hub := events.NewHub(logger.WithComponent("ws"))
	pub, err := openPublisher(sctx, cfg.Notify, hub)
	if err != nil {
		return err
	}
	defer pub.Close()

	var archWG sync.WaitGroup
	archCtx, stopArchive := context.WithCancel(context.Background())
	defer stopArchive()
	if cfg.Archive.Enabled {
		arch, err := openArchiver(sctx, cfg.Archive, logger.WithComponent("archive"))
		if err != nil {
			return err
		}
		queue.SetEvictionHook(arch)
		archWG.Add(1)
		go func() {
			defer archWG.Done()
			arch.Run(archCtx)
		}()
	}

	if cfg.Feed.AuthorizedIdentity == "" {
		logger.Warn("no authorized identity configured; every write will be rejected")
	}
	svc, err := feed.New(queue, feed.Options{
		Gate:            auth.StaticIdentity(cfg.Feed.AuthorizedIdentity),
		Clock:           opts.Clock,
		RetentionPeriod: cfg.Feed.RetentionPeriodSeconds,
		Publisher:       pub,
		PublishTimeout:  time.Duration(cfg.Notify.PublishTimeoutMs) * time.Millisecond,
		MaxPayloadBytes: cfg.Feed.MaxPayloadBytes,
		PruneBatch:      cfg.Feed.PruneBatch,
		Logger:          logger.WithComponent("feed"),
	})
	if err != nil {
		return err
	}

	logger.Info("Starting eventfeed server",
		logpkg.Str("grpc", cfg.Server.GRPCAddr),
		logpkg.Str("http", cfg.Server.HTTPAddr),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Str("queue", cfg.Feed.Queue),
		logpkg.Uint64("retention_period", cfg.Feed.RetentionPeriodSeconds),
		logpkg.Str("notify", cfg.Notify.Driver),
		logpkg.Bool("archive", cfg.Archive.Enabled),
	)

	gsrv := grpcserver.New(rt, svc, logger)
	hsrv := httpserver.New(rt, svc, httpserver.Options{Hub: hub, CORSOrigins: cfg.Server.CORSOrigins, Logger: logger})

	// rctx ends on shutdown or when either listener fails.
	rctx, cancel := context.WithCancel(sctx)
	defer cancel()
	var (
		serveErr  error
		serveOnce sync.Once
	)
	fail := func(name string, err error) {
		if err == nil || rctx.Err() != nil {
			return
		}
		logger.Error(name+" error", logpkg.Err(err))
		serveOnce.Do(func() { serveErr = fmt.Errorf("%s: %w", name, err) })
		cancel()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(rctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker.Run(rctx, time.Duration(cfg.Feed.TickIntervalMs)*time.Millisecond, svc, logger.WithComponent("ticker"))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		fail("grpc", gsrv.ListenAndServe(rctx, cfg.Server.GRPCAddr))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		fail("http", hsrv.ListenAndServe(rctx, cfg.Server.HTTPAddr))
	}()

	<-rctx.Done()
	// Stop servers and the tick driver before the archiver and the DB so no
	// eviction lands after the archive queue has drained.
	gsrv.Close()
	hsrv.Close()
	wg.Wait()
	stopArchive()
	archWG.Wait()
	if serveErr != nil {
		return serveErr
	}
	logger.Info("eventfeed server stopped", logpkg.Int("len", svc.Len()))
	return nil
}

func newLogger(cfg cfgpkg.LogConfig) logpkg.Logger {
	lc := &logpkg.Config{Level: cfg.Level, Format: cfg.Format, Redact: cfg.Redact}
	logger, err := logpkg.ApplyConfig(lc)
	if err != nil {
		// Fallback to a sane default
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		logger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}), logpkg.WithRedactedKeys(cfg.Redact...))
	}
	return logger
}

// openPublisher fans notifications out to the configured broker and the
// websocket hub.
func openPublisher(ctx context.Context, cfg cfgpkg.NotifyConfig, hub *events.Hub) (events.Publisher, error) {
	broker, err := events.Open(ctx, events.Options{
		Driver:       cfg.Driver,
		NATSURL:      cfg.NATSURL,
		RedisURL:     cfg.RedisURL,
		KafkaBrokers: cfg.KafkaBrokers,
	})
	if err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	return events.Fanout{broker, hub}, nil
}

func openArchiver(ctx context.Context, cfg cfgpkg.ArchiveConfig, logger logpkg.Logger) (*archive.Archiver, error) {
	sink, err := archive.NewS3Sink(ctx, cfg.Bucket, cfg.Region, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return archive.New(sink, cfg.Prefix, cfg.QueueSize, logger), nil
}
