// Package logging configures the process-wide slog logger for botrun.
//
// Log lines go to stderr so that stdout stays reserved for command output
// (and for whatever the bot itself prints once launched). An optional
// rotating file sink can be added with --log-file; rotation is handled by
// gopkg.in/natefinch/lumberjack.v2 so long-running deployments don't grow
// an unbounded launch log.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the optional file sink. The launch log is tiny per
// run, so these are generous.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// Setup installs the default slog logger. verbose lowers the level to
// debug; logFile, when non-empty, mirrors all output to a rotating file.
func Setup(verbose bool, logFile string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		})
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
