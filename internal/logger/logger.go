package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

type Options struct {
	Development bool
	SentryDSN   string
	Environment string
	// Output defaults to os.Stdout. The CLI points it at stderr.
	Output io.Writer
}

// Init initializes the global logger based on environment
// Development: Text format with Debug level
// Production: JSON format with Info level
// Errors are forwarded to Sentry when a DSN is configured
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handlers []slog.Handler

	if opts.Development {
		handlers = append(handlers, slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			Environment:      opts.Environment,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
	return Log
}

// Flush waits for buffered Sentry events. Safe to call when Sentry is off.
func Flush() {
	sentry.Flush(2 * time.Second)
}
