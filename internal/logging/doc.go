// Package logging constructs the slog loggers used across voxpull and
// provides the shared attribute helpers and field-name constants.
package logging
