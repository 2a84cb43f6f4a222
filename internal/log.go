package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = map[LogLevel]string{
	LogLevelError: "ERROR",
	LogLevelWarn:  "WARN",
	LogLevelInfo:  "INFO",
	LogLevelDebug: "DEBUG",
	LogLevelTrace: "TRACE",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLogLevel maps ERROR, WARN, INFO, DEBUG or TRACE (any case) to a level
func ParseLogLevel(s string) (LogLevel, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == s {
			return level, true
		}
	}
	return LogLevelInfo, false
}

// Logger provides leveled logging with an optional component prefix
type Logger struct {
	level     LogLevel
	component string
	out       *log.Logger
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	level, _ := ParseLogLevel(os.Getenv("LOG_LEVEL")) // INFO when unset or unknown
	return &Logger{level: level}
}

// Named returns a logger that prefixes every line with [component]
func (l *Logger) Named(component string) *Logger {
	return &Logger{level: l.level, component: component, out: l.out}
}

// WithOutput returns a logger writing to out instead of the standard logger
func (l *Logger) WithOutput(out *log.Logger) *Logger {
	return &Logger{level: l.level, component: l.component, out: out}
}

func (l *Logger) printf(level LogLevel, format string, args ...interface{}) {
	if l.level < level {
		return
	}
	prefix := "[" + level.String() + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	if l.out != nil {
		l.out.Printf(prefix+format, args...)
		return
	}
	log.Printf(prefix+format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf(LogLevelError, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf(LogLevelWarn, format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf(LogLevelInfo, format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.printf(LogLevelDebug, format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.printf(LogLevelTrace, format, args...)
}

// SetLevel changes the level. Loggers derived with Named afterwards inherit it.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
