// Package dispatcherconfig loads the dispatcher process's configuration
// from command-line flags and environment variables: flags are parsed
// first, then PORT, BIND and LOGLEVEL override them when set. No other
// entrypoint in this module reads environment overrides.
package dispatcherconfig

import (
	"flag"
	"os"
	"strconv"
)

// Config holds the dispatcher's configuration.
type Config struct {
	Port     int
	BindAddr string
	LogLevel string
}

// Load parses flags, then applies environment variable overrides.
func Load() *Config {
	cfg := &Config{}

	flag.IntVar(&cfg.Port, "port", 3000, "dispatcher listening port")
	flag.StringVar(&cfg.BindAddr, "bind", "127.0.0.1", "dispatcher bind address")
	flag.StringVar(&cfg.LogLevel, "loglevel", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if bind := os.Getenv("BIND"); bind != "" {
		cfg.BindAddr = bind
	}
	if loglevel := os.Getenv("LOGLEVEL"); loglevel != "" {
		cfg.LogLevel = loglevel
	}

	return cfg
}
