// Package config loads, normalizes, and validates reelpost configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file when present, and honours
// environment fallbacks such as TELEGRAM_BOT_TOKEN. The Config type
// centralizes every knob the daemon and CLI need so the pipeline, storage
// backends, shorteners, and site adapters are configured in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language codes, and clear validation errors.
package config
