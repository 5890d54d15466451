// Package util holds small environment helpers used by the entrypoint.
package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads a boolean from the environment. Unset variables take
// the fallback; true/1/yes/on and false/0/no/off are recognized in any case,
// anything else logs a warning and takes the fallback too.
func ParseBoolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: unrecognized value",
		"key", key, "value", raw, "fallback", fallback)
	return fallback
}

// EnvOrDefault returns the environment value for key, or fallback when the
// variable is unset or empty.
func EnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
