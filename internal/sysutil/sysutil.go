// Package sysutil holds small process-level helpers shared by the
// entrypoint: zerolog level configuration and environment echoing.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// EchoEnv logs a set of environment-derived values at debug level, masking
// any key whose name looks secret-bearing. Used once at startup so the
// effective configuration is visible in the logs without leaking passwords.
func EchoEnv(values map[string]string) {
	ev := log.Debug()
	for k, v := range values {
		ev = ev.Str(k, maskSecret(k, v))
	}
	ev.Msg("effective configuration")
}

// maskSecret replaces secret-ish values with **** while preserving whether
// they were set at all.
func maskSecret(key, val string) string {
	k := strings.ToLower(key)
	if strings.Contains(k, "password") || strings.Contains(k, "secret") || strings.Contains(k, "token") {
		if val == "" {
			return "NOT_SET"
		}
		return "****"
	}
	if val == "" {
		return "NOT_SET"
	}
	return val
}
