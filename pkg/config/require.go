package config

import (
	"fmt"
	"log/slog"
	"os"
)

// MustNonEmpty stops the process when a required variable is missing.
func MustNonEmpty(value, envName string) {
	if value == "" {
		slog.Error("config_error", "reason", fmt.Sprintf("missing required env %s", envName))
		os.Exit(1)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	MustNonEmpty(string(value), envName)
}

// OneOf reports an error when value is not among allowed.
func OneOf(envName, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s=%q: expected one of %v", envName, value, allowed)
}
