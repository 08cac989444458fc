// Package config assembles the notesync daemon configuration from three
// sources (command-line flags, environment variables and an optional JSON
// file), merged in that order of precedence via mergo, then validated.
//
// The sync engine core never reads files or the environment itself: it
// receives a fully-built Config value from the caller.
package config
