package config

import "errors"

// validate checks the merged configuration for fields the engine cannot run
// without. Scheduling fields are defaulted rather than rejected.
func (c *Config) validate() error {
	var errs []error

	if c.Storage.DBPath == "" {
		errs = append(errs, ErrNoDBPath)
	}
	if c.Engine.Enabled {
		if c.Server.URL == "" {
			errs = append(errs, ErrNoServerURL)
		}
		if c.Server.APIKey == "" {
			errs = append(errs, ErrNoAPIKey)
		}
	}

	return errors.Join(errs...)
}
