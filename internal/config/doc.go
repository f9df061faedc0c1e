// Package config loads the canopy server configuration from YAML.
//
// ${VAR} references are expanded from the environment before parsing, durations are
// written as Go duration strings ("30s", "5m"), and every field has a default so an empty
// or missing file yields a working configuration.
package config
