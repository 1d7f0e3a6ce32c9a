// Package config loads, validates, and defaults the TOML configuration
// for voxpull.
package config
