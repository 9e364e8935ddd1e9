// Package logging provides structured logging with zerolog.
// It supports simple text and console formats, log levels, file output,
// run ID tracking, and redaction of PII field values: every rendered line
// passes through a redact.Redactor before it reaches the sink, so sensitive
// field values never appear in emitted output.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thalib/veil/cmd/veil/internal/constants"
	"github.com/thalib/veil/cmd/veil/internal/redact"
)

// redactWriter renders a zerolog JSON event as [LEVEL](TIMESTAMP): {MESSAGE}
// and applies the redactor to the fully rendered line before writing it.
// This is the formatting stage of the pipeline: base rendering first, then
// redaction, then the sink.
type redactWriter struct {
	out      io.Writer
	redactor redact.Redactor
}

func (rw *redactWriter) Write(p []byte) (n int, err error) {
	var logEntry map[string]any
	if err := json.Unmarshal(p, &logEntry); err != nil {
		// Not a JSON event; still redact before passing through. Report
		// len(p) consumed, not the redacted length, so callers never see a
		// short write when redaction shrinks the line.
		if _, err := rw.out.Write([]byte(rw.redactor.Apply(string(p)))); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	level, _ := logEntry["level"].(string)
	timestamp, _ := logEntry["time"].(string)
	message, _ := logEntry["message"].(string)

	formatted := fmt.Sprintf("[%s](%s): %s\n",
		strings.ToUpper(level),
		timestamp,
		message,
	)

	if _, err := rw.out.Write([]byte(rw.redactor.Apply(formatted))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// redactSink is a passthrough writer that redacts whatever bytes are written.
// It backs the console and json formats, where zerolog (or its ConsoleWriter)
// does the rendering and we only scrub the result.
type redactSink struct {
	out      io.Writer
	redactor redact.Redactor
}

func (rs *redactSink) Write(p []byte) (n int, err error) {
	if _, err := rs.out.Write([]byte(rs.redactor.Apply(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// dualWriter fans a JSON event out to two differently formatted outputs:
// a colorized console writer and a simple-format file writer.
type dualWriter struct {
	consoleWriter io.Writer
	fileWriter    io.Writer
}

func (dw *dualWriter) Write(p []byte) (n int, err error) {
	n1, err1 := dw.consoleWriter.Write(p)
	n2, err2 := dw.fileWriter.Write(p)

	if n1 > n2 {
		n = n1
	} else {
		n = n2
	}

	if err1 != nil {
		return n, err1
	}
	return n, err2
}

// Level represents logging levels
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level Level

	// Format is the output format (simple, console or json)
	Format string

	// Output is the writer for logs (default: os.Stdout)
	Output io.Writer

	// FilePath is the path to the log file (if specified, Output is ignored)
	FilePath string

	// DualOutput enables dual logging: stdout (console format) + file
	// (simple format). When true, FilePath must also be set.
	DualOutput bool

	// ServiceName is the name of the service
	ServiceName string

	// SlowQueryThreshold is the duration after which a query is considered slow
	SlowQueryThreshold time.Duration

	// SensitiveFields are field names redacted in addition to the built-in
	// PII set. The built-in set is always applied regardless of this value.
	SensitiveFields []string
}

// Logger wraps zerolog for structured logging. Every rendered line is passed
// through the redactor before it reaches the configured sink.
type Logger struct {
	logger          zerolog.Logger
	config          LoggerConfig
	redactor        redact.Redactor
	sensitiveFields map[string]bool
}

// NewLogger creates a new structured logger. The redaction stage is always
// installed; there is no configuration that bypasses it.
func NewLogger(config LoggerConfig) *Logger {
	// Built-in PII fields first, then caller additions, order preserved for
	// deterministic application.
	fields := append([]string(nil), constants.PIIFields...)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[strings.ToLower(f)] = true
	}
	for _, f := range config.SensitiveFields {
		if f == "" || seen[strings.ToLower(f)] {
			continue
		}
		seen[strings.ToLower(f)] = true
		fields = append(fields, f)
	}

	redactor := redact.New(fields, constants.RedactionToken, constants.FieldSeparator)

	var output io.Writer

	if config.DualOutput && config.FilePath != "" {
		dir := filepath.Dir(config.FilePath)
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log directory %s: %v\n", dir, err)
			output = os.Stdout
		} else {
			file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, constants.FilePermissions)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", config.FilePath, err)
				output = os.Stdout
			} else {
				consoleOut := zerolog.ConsoleWriter{
					Out:        &redactSink{out: os.Stdout, redactor: redactor},
					TimeFormat: time.RFC3339,
				}
				fileOut := &redactWriter{out: file, redactor: redactor}
				output = &dualWriter{
					consoleWriter: consoleOut,
					fileWriter:    fileOut,
				}
			}
		}
	} else if config.FilePath != "" {
		dir := filepath.Dir(config.FilePath)
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log directory %s: %v\n", dir, err)
			output = os.Stdout
		} else {
			file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, constants.FilePermissions)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", config.FilePath, err)
				output = os.Stdout
			} else {
				output = file
			}
		}
	} else if config.Output != nil {
		output = config.Output
	} else {
		output = os.Stdout
	}

	if config.Level == "" {
		config.Level = LevelInfo
	}

	if config.SlowQueryThreshold == 0 {
		config.SlowQueryThreshold = constants.SlowQueryThreshold
	}

	var zeroLevel zerolog.Level
	switch config.Level {
	case LevelDebug:
		zeroLevel = zerolog.DebugLevel
	case LevelInfo:
		zeroLevel = zerolog.InfoLevel
	case LevelWarn:
		zeroLevel = zerolog.WarnLevel
	case LevelError:
		zeroLevel = zerolog.ErrorLevel
	default:
		zeroLevel = zerolog.InfoLevel
	}

	var logger zerolog.Logger

	if config.DualOutput {
		// The dualWriter handles per-output formatting and redaction.
		logger = zerolog.New(output).Level(zeroLevel).With().Timestamp().Logger()
	} else if config.Format == "json" {
		sink := &redactSink{out: output, redactor: redactor}
		logger = zerolog.New(sink).Level(zeroLevel).With().Timestamp().Logger()
	} else if config.Format == "console" {
		consoleOut := zerolog.ConsoleWriter{
			Out:        &redactSink{out: output, redactor: redactor},
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(consoleOut).Level(zeroLevel).With().Timestamp().Logger()
	} else {
		// Default simple text format: [LEVEL](TIMESTAMP): {MESSAGE}
		simpleOut := &redactWriter{out: output, redactor: redactor}
		logger = zerolog.New(simpleOut).Level(zeroLevel).With().Timestamp().Logger()
	}

	if config.ServiceName != "" {
		logger = logger.With().Str("service", config.ServiceName).Logger()
	}

	return &Logger{
		logger:          logger,
		config:          config,
		redactor:        redactor,
		sensitiveFields: seen,
	}
}

// Redactor returns the redaction policy installed in this logger.
func (l *Logger) Redactor() redact.Redactor {
	return l.redactor
}

// WithContext returns a logger with context fields
func (l *Logger) WithContext(ctx context.Context) *Logger {
	newLogger := *l

	if runID := GetRunID(ctx); runID != "" {
		newLogger.logger = l.logger.With().Str(constants.ContextKeyRunID, runID).Logger()
	}

	return &newLogger
}

// WithField returns a logger with an additional field
func (l *Logger) WithField(key string, value any) *Logger {
	newLogger := *l
	newLogger.logger = l.logger.With().Interface(key, l.maskSensitive(key, value)).Logger()
	return &newLogger
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	newLogger := *l
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, l.maskSensitive(key, value))
	}
	newLogger.logger = ctx.Logger()
	return &newLogger
}

// maskSensitive masks sensitive structured-field values (case-insensitive)
func (l *Logger) maskSensitive(key string, value any) any {
	if l.sensitiveFields[strings.ToLower(key)] {
		return constants.RedactionToken
	}
	return value
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...any) {
	l.logger.Debug().Msgf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...any) {
	l.logger.Info().Msgf(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(format, args...)
}

// ErrorWithErr logs an error with the error object
func (l *Logger) ErrorWithErr(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

// LogSlowQuery logs a slow query warning
func (l *Logger) LogSlowQuery(query string, duration time.Duration) {
	if duration >= l.config.SlowQueryThreshold {
		l.logger.Warn().
			Str("query", query).
			Dur("duration", duration).
			Msg("Slow query detected")
	}
}

// Context key for run ID
type contextKey string

const runIDKey contextKey = constants.ContextKeyRunID

// NewRunID generates a run identifier for correlating the log lines of one
// export run.
func NewRunID() string {
	return uuid.New().String()
}

// SetRunID sets the run ID in the context
func SetRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID gets the run ID from the context
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}
