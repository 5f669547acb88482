// Package config loads server, storage, engine timing, task runner and
// quiz generation settings from an optional file and SCRY_-prefixed
// environment variables, then validates them.
package config
