package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// StatusCode represents domain-specific operation types
type StatusCode string

const (
	StatusInit    StatusCode = "INIT"    // Initialization
	StatusOK      StatusCode = "OK"      // Success confirmation
	StatusErr     StatusCode = "ERR"     // Errors/failures
	StatusWarn    StatusCode = "WARN"    // Warnings/caution
	StatusAct     StatusCode = "ACT"     // Actor actions
	StatusCascade StatusCode = "CASCADE" // Cascade expansion
	StatusRipple  StatusCode = "RIPPLE"  // Indirect/second-order effects
	StatusWorld   StatusCode = "WORLD"   // World system catalog
	StatusViz     StatusCode = "VIZ"     // Visualization synthesis
	StatusNarr    StatusCode = "NARR"    // Narrative generation
	StatusSave    StatusCode = "SAVE"    // Persistence
	StatusNet     StatusCode = "NET"     // Server/websocket
	StatusWait    StatusCode = "WAIT"    // Rate limiting / backoff
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

// Logger handles all logging operations. It is safe for concurrent use and
// can be constructed standalone so components like the cascade engine take an
// explicit instance instead of reaching for the global.
type Logger struct {
	mu           sync.Mutex
	out          io.Writer
	level        LogLevel
	enableColors bool
	noColors     bool // Force disable colors (e.g., when piped or in TUI mode)
}

// New creates a standalone logger writing to the given writer.
func New(out io.Writer, level string, enableColors bool) *Logger {
	return &Logger{
		out:          out,
		level:        parseLevel(level),
		enableColors: enableColors,
		noColors:     os.Getenv("NO_COLOR") != "",
	}
}

var globalLogger *Logger
var once sync.Once

// Init initializes the global logger
func Init(level string, enableColors bool) {
	once.Do(func() {
		globalLogger = &Logger{
			out:          os.Stdout,
			level:        parseLevel(level),
			enableColors: enableColors,
			noColors:     !isTerminal() || os.Getenv("NO_COLOR") != "",
		}
	})
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	if globalLogger == nil {
		Init("info", true)
	}
	return globalLogger
}

// SetOutput redirects the global logger (e.g., into the TUI log pane).
func SetOutput(w io.Writer) {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// SetTUIMode disables ANSI colors; tview uses its own markup.
func SetTUIMode(on bool) {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.noColors = on
}

// parseLevel converts string to LogLevel
func parseLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// isTerminal checks if output is a terminal (not piped)
func isTerminal() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// colorize applies ANSI color codes if enabled
func (l *Logger) colorize(color, text string) string {
	if l.enableColors && !l.noColors {
		return color + text + colorReset
	}
	return text
}

// getStatusColor returns the appropriate color for a status code
func (l *Logger) getStatusColor(status StatusCode) string {
	switch status {
	case StatusInit, StatusOK, StatusSave:
		return colorGreen
	case StatusErr:
		return colorRed
	case StatusWarn, StatusWait:
		return colorYellow
	case StatusAct, StatusNarr, StatusNet:
		return colorBlue
	case StatusCascade, StatusRipple, StatusWorld, StatusViz:
		return colorCyan
	default:
		return colorWhite
	}
}

// formatMessage builds the log message with timestamp and status
func (l *Logger) formatMessage(depth int, status StatusCode, format string, args ...interface{}) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)

	var statusStr string
	if status != "" {
		statusStr = fmt.Sprintf("[%s] ", status)
		statusStr = l.colorize(l.getStatusColor(status), statusStr)
	}

	indent := strings.Repeat("  ", depth)
	return fmt.Sprintf("%s %s%s%s", timestamp, statusStr, indent, message)
}

// log is the internal logging function
func (l *Logger) log(level LogLevel, depth int, status StatusCode, format string, args ...interface{}) {
	if l == nil {
		return
	}
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := l.formatMessage(depth, status, format, args...)
	fmt.Fprintln(l.out, msg)
}

// Debug logs a debug message on this logger.
func (l *Logger) Debug(status StatusCode, format string, args ...interface{}) {
	l.log(DEBUG, 0, status, format, args...)
}

// Info logs an informational message on this logger.
func (l *Logger) Info(status StatusCode, format string, args ...interface{}) {
	l.log(INFO, 0, status, format, args...)
}

// Warn logs a warning message on this logger.
func (l *Logger) Warn(status StatusCode, format string, args ...interface{}) {
	l.log(WARN, 0, status, format, args...)
}

// Error logs an error message on this logger.
func (l *Logger) Error(status StatusCode, format string, args ...interface{}) {
	l.log(ERROR, 0, status, format, args...)
}

// InfoDepth logs an informational message with indentation on this logger.
func (l *Logger) InfoDepth(depth int, status StatusCode, format string, args ...interface{}) {
	l.log(INFO, depth, status, format, args...)
}

// DebugDepth logs a debug message with indentation on this logger.
func (l *Logger) DebugDepth(depth int, status StatusCode, format string, args ...interface{}) {
	l.log(DEBUG, depth, status, format, args...)
}

// Debug logs a debug message
func Debug(status StatusCode, format string, args ...interface{}) {
	GetLogger().log(DEBUG, 0, status, format, args...)
}

// DebugDepth logs a debug message with indentation
func DebugDepth(depth int, status StatusCode, format string, args ...interface{}) {
	GetLogger().log(DEBUG, depth, status, format, args...)
}

// Info logs an informational message
func Info(status StatusCode, format string, args ...interface{}) {
	GetLogger().log(INFO, 0, status, format, args...)
}

// InfoDepth logs an informational message with indentation
func InfoDepth(depth int, status StatusCode, format string, args ...interface{}) {
	GetLogger().log(INFO, depth, status, format, args...)
}

// Warn logs a warning message
func Warn(status StatusCode, format string, args ...interface{}) {
	GetLogger().log(WARN, 0, status, format, args...)
}

// WarnDepth logs a warning message with indentation
func WarnDepth(depth int, status StatusCode, format string, args ...interface{}) {
	GetLogger().log(WARN, depth, status, format, args...)
}

// Error logs an error message
func Error(status StatusCode, format string, args ...interface{}) {
	GetLogger().log(ERROR, 0, status, format, args...)
}

// ErrorDepth logs an error message with indentation
func ErrorDepth(depth int, status StatusCode, format string, args ...interface{}) {
	GetLogger().log(ERROR, depth, status, format, args...)
}

// Success logs a success message (always uses StatusOK)
func Success(format string, args ...interface{}) {
	GetLogger().log(INFO, 0, StatusOK, format, args...)
}

// SuccessDepth logs a success message with indentation
func SuccessDepth(depth int, format string, args ...interface{}) {
	GetLogger().log(INFO, depth, StatusOK, format, args...)
}

// Plain logs a message without status code or timestamp (for special formatting)
func Plain(format string, args ...interface{}) {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, format+"\n", args...)
}

// Separator prints a visual separator line
func Separator() {
	Plain("==================================================")
}

// Section prints a section header
func Section(title string) {
	Separator()
	Plain("   %s", title)
	Separator()
}
