// Package cli implements the cookgems command-line interface.
//
// Commands load cookbooks, detect the Ruby runtime and drive
// geminstall.Installer, reporting progress on the console or in an
// interactive view. Supporting commands list declared gems, print the
// manifest, draw the requirement graph, browse the run history, serve it
// over HTTP and follow events published to Redis.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// rides on the command context so library packages log with the same
// level and writer.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

const logTimeFormat = "15:04:05.00"

// newLogger returns a logger writing to w at level, with short timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// timed starts a clock for a slow step. The returned func logs msg at info
// level with the given key-values and a "took" field.
//
//	done := timed(logger, "checked gem source")
//	...
//	done("gems", 4) // INFO checked gem source gems=4 took=1.234s
func timed(logger *log.Logger, msg string) func(keyvals ...any) {
	start := time.Now()
	return func(keyvals ...any) {
		took := time.Since(start).Round(time.Millisecond)
		logger.Info(msg, append(keyvals, "took", took)...)
	}
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default() outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
