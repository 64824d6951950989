// Package log provides structured logging for notesort with optional
// JSON output, key/value fields, and file mirroring. A package-level
// logger serves the common case; Configure replaces it.
package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"notesort/internal/errors"
)

var (
	isDebug = false
	logger  = NewLogger()
)

// Field is a single key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger writes leveled, optionally structured log entries.
type Logger struct {
	out    io.Writer
	file   *os.File
	json   bool
	fields []Field
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput directs log entries to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.out = w
	}
}

// WithJSON switches the logger to one-JSON-object-per-line output.
func WithJSON() Option {
	return func(l *Logger) {
		l.json = true
	}
}

// WithFile mirrors every entry into the named file in addition to the
// logger's primary output.
func WithFile(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log: cannot open %s: %v\n", path, err)
			return
		}
		l.file = f
	}
}

// NewLogger creates a logger writing to stdout unless configured otherwise.
func NewLogger(opts ...Option) *Logger {
	l := &Logger{out: os.Stdout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Configure replaces the package-level logger.
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// SetDebug toggles debug-level output globally.
func SetDebug(debug bool) {
	isDebug = debug
}

// With returns a copy of the logger carrying additional fields.
func (l *Logger) With(fields ...Field) *Logger {
	clone := &Logger{
		out:    l.out,
		file:   l.file,
		json:   l.json,
		fields: make([]Field, 0, len(l.fields)+len(fields)),
	}
	clone.fields = append(clone.fields, l.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

// WithContext is a placeholder for context-aware logging; it currently
// attaches nothing.
func (l *Logger) WithContext(_ context.Context) *Logger {
	return l
}

// Debug logs a message at debug level when debug output is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if isDebug {
		l.log("DEBUG", format, args...)
	}
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if isDebug {
		l.log("DEBUG", format, args...)
	}
}

// Info logs a message at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

// Warn logs a message at warning level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

// Warnf logs a formatted message at warning level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

// Error logs a message at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}

func (l *Logger) log(level, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	caller := callerInfo()

	var line string
	if l.json {
		entry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level,
			"message":   msg,
			"caller":    caller,
		}
		for _, f := range l.fields {
			entry[f.Key] = f.Value
		}
		data, err := json.Marshal(entry)
		if err != nil {
			data = []byte(fmt.Sprintf(`{"level":"ERROR","message":"log marshal failure: %v"}`, err))
		}
		line = string(data) + "\n"
	} else {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s] %s %s: %s", timestamp, level, caller, msg)
		for _, f := range l.fields {
			fmt.Fprintf(&sb, " %s=%v", f.Key, f.Value)
		}
		sb.WriteByte('\n')
		line = sb.String()
	}

	fmt.Fprint(l.out, line)
	if l.file != nil {
		fmt.Fprint(l.file, line)
	}
}

// callerInfo walks the stack past this package to find the logging call site.
func callerInfo() string {
	for skip := 2; skip < 10; skip++ {
		_, file, line, ok := runtime.Caller(skip)
		if !ok {
			break
		}
		if strings.HasSuffix(filepath.Dir(file), string(filepath.Separator)+"log") &&
			filepath.Base(file) == "logger.go" {
			continue
		}
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return "???"
}

// Package-level helpers delegating to the configured logger.

// Debug logs a message at debug level when debug output is enabled.
func Debug(format string, args ...interface{}) { logger.Debug(format, args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }

// Info logs a message at info level.
func Info(format string, args ...interface{}) { logger.Info(format, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) { logger.Infof(format, args...) }

// Warn logs a message at warning level.
func Warn(format string, args ...interface{}) { logger.Warn(format, args...) }

// Warnf logs a formatted message at warning level.
func Warnf(format string, args ...interface{}) { logger.Warnf(format, args...) }

// Error logs a message at error level.
func Error(format string, args ...interface{}) { logger.Error(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }

// LogWithFields returns the global logger with fields attached.
func LogWithFields(fields ...Field) *Logger {
	return logger.With(fields...)
}

// LogWithError returns the global logger with the error's details
// attached as fields. Typed application errors contribute their kind
// and their specific context (path, param, rule name, document).
func LogWithError(err error) *Logger {
	if err == nil {
		return logger.With(F("error", "<nil>"))
	}

	fields := []Field{F("error", err.Error())}

	if kinded, ok := err.(interface{ Kind() errors.ErrorKind }); ok {
		fields = append(fields, F("error_kind", int(kinded.Kind())))
	}

	var fileErr *errors.FileError
	if errors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var configErr *errors.ConfigError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	var ruleErr *errors.RuleError
	if errors.As(err, &ruleErr) && ruleErr.RuleName() != "" {
		fields = append(fields, F("rule_name", ruleErr.RuleName()))
	}
	var parseErr *errors.ParseError
	if errors.As(err, &parseErr) && parseErr.Document() != "" {
		fields = append(fields, F("document", parseErr.Document()))
	}

	return logger.With(fields...)
}

// LogError is a convenience for LogWithError(err).Error(msg).
func LogError(err error, msg string) {
	LogWithError(err).Error(msg)
}
