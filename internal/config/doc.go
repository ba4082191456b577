// Package config loads, normalizes, and validates arheritage configuration.
//
// Configuration lives in TOML (default ~/.config/arheritage/config.toml, or
// ./arheritage.toml in the working directory). Load applies Default(), decodes
// the file when present, expands paths, pulls secrets from the environment
// (GEMINI_API_KEY or API_KEY, ARHERITAGE_SESSION_SECRET, ARHERITAGE_API_TOKEN)
// and finally runs Validate.
//
// CreateSample writes the embedded sample configuration for `arheritage
// config init`.
package config
