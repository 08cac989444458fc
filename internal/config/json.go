package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// parseJSON reads a JSON configuration file into a fresh Config. Unknown
// fields are rejected so that typos in config files fail loudly instead of
// being silently ignored.
func parseJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading json config %s: %w", path, err)
	}

	cfg := &Config{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err = dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("error decoding json config %s: %w", path, err)
	}

	return cfg, nil
}
