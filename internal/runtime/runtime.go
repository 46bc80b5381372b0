package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/rzbill/eventfeed/internal/config"
	"github.com/rzbill/eventfeed/internal/eventlog"
	pebblestore "github.com/rzbill/eventfeed/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	// Metrics observes storage latencies. Optional.
	Metrics pebblestore.MetricsHook
	Config  cfgpkg.Config
}

// Runtime wires storage and config for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       opts.Metrics,
	})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{db: db, config: opts.Config}
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// OpenLog opens the named event queue.
func (r *Runtime) OpenLog(name string) (*eventlog.Log, error) {
	return eventlog.OpenLog(r.db, name)
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
