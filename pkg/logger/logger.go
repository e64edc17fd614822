package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New creates a logger writing JSON to stdout, or a console layout in development.
func New(serviceName string, environment string) *Logger {
	var output io.Writer = os.Stdout
	if environment == "development" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(serviceName, output)
}

// NewWithWriter creates a logger that writes to w. Used by the CLI (stderr) and tests.
func NewWithWriter(serviceName string, w io.Writer) *Logger {
	return &Logger{
		Logger: zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger(),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With().Str(key, value).Logger()}
}

// WithRequestID returns a logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

// WithComponent returns a logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithReportType returns a logger tagged with the report family being parsed.
func (l *Logger) WithReportType(reportType string) *Logger {
	return l.with("report_type", reportType)
}

// WithReportID returns a logger tagged with a parse result ID.
func (l *Logger) WithReportID(reportID string) *Logger {
	return l.with("report_id", reportID)
}

// WithError returns a logger with the error attached
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With().Err(err).Logger()}
}
