// Package config provides loading and environment overlay for eventfeed
// configuration. Default() is the baseline; Load reads a JSON, YAML or TOML
// file over it and FromEnv overlays FEED_* variables.
//
// Example:
//
//	cfg, err := config.Load("/etc/eventfeed.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(runtime.Options{DataDir: cfg.DataDir, Config: cfg})
//	defer rt.Close()
package config
