// Package config loads, normalizes, and validates the clipfeed TOML
// configuration.
package config
