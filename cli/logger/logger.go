// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package logger configures the global zerolog instance for CLI use.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogOutputWriter is the sink for all CLI logging. Logs go to stderr so
// that report output on stdout stays machine-readable.
var LogOutputWriter io.Writer = os.Stderr

// CliCompactLogger switches the global logger to a compact console format
// when the output is a terminal. Non-interactive runs (launchd, cron, MDM
// agents) keep structured JSON lines.
func CliCompactLogger(out io.Writer) {
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
		})
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Set adjusts the global log level. Unknown values fall back to info.
func Set(level string) {
	switch strings.ToLower(level) {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// GetEnvLogLevel reads the log level from the environment. Environment
// variables always win over flags.
func GetEnvLogLevel() (string, bool) {
	level, ok := os.LookupEnv("NPMSCAN_LOG_LEVEL")
	if !ok || level == "" {
		if _, debug := os.LookupEnv("DEBUG"); debug {
			return "debug", true
		}
		return "", false
	}
	return level, true
}
