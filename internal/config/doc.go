// Package config loads and validates the console configuration from YAML,
// with ${VAR} environment expansion and defaults for every optional field.
package config
