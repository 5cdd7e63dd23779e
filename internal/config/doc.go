// Package config loads and validates the application configuration.
//
// Configuration is layered: compiled-in defaults, then an optional
// config.yaml, then SURVEY_-prefixed environment variables. Later
// layers win. Path resolution is always relative to the executable
// directory (or an explicit base override), never the working
// directory, so the server behaves the same regardless of where it is
// launched from.
package config
