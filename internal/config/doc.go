// Package config loads and validates moshpit configuration from TOML.
//
// Configuration resolution is deliberately simple: built-in defaults,
// overridden by a single config file. A missing file is not an error.
package config
