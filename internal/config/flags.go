package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags reads command-line flags into a fresh Config. Flags take the
// highest precedence in the merge order. Unset flags leave zero values so
// that lower-precedence sources can fill them in.
func ParseFlags() *Config {
	return parseFlagsFrom(os.Args[1:])
}

func parseFlagsFrom(args []string) *Config {
	cfg := &Config{}

	fs := flag.NewFlagSet("notesyncd", flag.ContinueOnError)
	fs.StringVar(&cfg.JSONFilePath, "c", "", "path to JSON config file (shorthand)")
	fs.StringVar(&cfg.JSONFilePath, "config", "", "path to JSON config file")
	fs.StringVar(&cfg.Server.URL, "server", "", "sync server base URL")
	fs.StringVar(&cfg.Server.APIKey, "api-key", "", "sync server API key")
	fs.StringVar(&cfg.Storage.DBPath, "db", "", "path to local sync database")
	fs.StringVar(&cfg.Storage.NotesDir, "notes-dir", "", "directory holding note documents")
	fs.BoolVar(&cfg.Engine.Enabled, "enabled", false, "enable synchronization")
	fs.DurationVar(&cfg.Engine.SyncInterval, "sync-interval", 0, "background sync period (e.g. 5m)")
	fs.DurationVar(&cfg.Engine.DebounceDelay, "debounce", time.Duration(0), "delay for coalescing local edits")

	// ContinueOnError keeps unknown host-application flags from killing the
	// daemon during embedded use.
	_ = fs.Parse(args)

	return cfg
}
