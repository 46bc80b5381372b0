package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/eventfeed/internal/cmd/client"
	serverrun "github.com/rzbill/eventfeed/internal/cmd/server"
	cfgpkg "github.com/rzbill/eventfeed/internal/config"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

func main() {
	// CLI logger; the server builds its own from config.
	level := os.Getenv("FEED_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "eventfeed",
		Short: "eventfeed runtime CLI",
		Long:  "eventfeed is a single-writer, time-expiring event feed. This CLI runs the server and talks to it.",
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start eventfeed server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("FEED_CONFIG"), "Config file (.json, .yaml, .toml)")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("grpc", ":50051", "gRPC listen address")
	f.String("http", ":8080", "HTTP listen address")
	f.String("fsync", "interval", "Fsync mode: always|interval|never")
	f.Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms")
	f.Uint64("retention", 3600, "Retention period in seconds")
	f.String("identity", "", "The single identity allowed to write")
	f.Int("tick-ms", 1000, "Eviction tick interval in ms")
	f.String("notify", "none", "Notification driver: none|nats|redis|kafka")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	rootCmd.AddCommand(clientcmd.NewFeedCommand(apiURL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, FEED_* env and explicitly
// set flags, in that order.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfg, err
	}
	cfgpkg.FromEnv(&cfg)

	if f.Changed("data-dir") {
		cfg.DataDir, _ = f.GetString("data-dir")
	}
	if f.Changed("grpc") {
		cfg.Server.GRPCAddr, _ = f.GetString("grpc")
	}
	if f.Changed("http") {
		cfg.Server.HTTPAddr, _ = f.GetString("http")
	}
	if f.Changed("fsync") {
		cfg.Fsync, _ = f.GetString("fsync")
	}
	if f.Changed("fsync-interval-ms") {
		cfg.FsyncIntervalMs, _ = f.GetInt("fsync-interval-ms")
	}
	if f.Changed("retention") {
		cfg.Feed.RetentionPeriodSeconds, _ = f.GetUint64("retention")
	}
	if f.Changed("identity") {
		cfg.Feed.AuthorizedIdentity, _ = f.GetString("identity")
	}
	if f.Changed("tick-ms") {
		cfg.Feed.TickIntervalMs, _ = f.GetInt("tick-ms")
	}
	if f.Changed("notify") {
		cfg.Notify.Driver, _ = f.GetString("notify")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
	return cfg, cfg.Validate()
}

func apiURL() string {
	if v := os.Getenv("FEED_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
