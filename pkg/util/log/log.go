package log

import (
	"io"
	"os"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
)

// Logger is a shared go-kit logger for the binaries. Packages take their
// logger as a constructor argument.
var Logger = kitlog.NewNopLogger()

// InitLogger initialises the global gokit logger on stderr and returns it.
func InitLogger(logFormat string, logLevel dslog.Level) kitlog.Logger {
	Logger = NewLogger(kitlog.NewSyncWriter(os.Stderr), logFormat, logLevel)
	return Logger
}

// NewLogger returns a leveled logger writing logfmt or json to w.
func NewLogger(w io.Writer, logFormat string, logLevel dslog.Level) kitlog.Logger {
	logger := dslog.NewGoKitWithWriter(logFormat, w)

	// use UTC timestamps and skip 5 stack frames.
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.Caller(5))

	// Must put the level filter last for efficiency.
	return level.NewFilter(logger, logLevel.Option)
}
