package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"
)

// LogLevel represents the log level
type LogLevel int

const (
	// DEBUG level
	DEBUG LogLevel = iota
	// INFO level
	INFO
	// WARN level
	WARN
	// ERROR level
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var levelColors = map[LogLevel]string{
	DEBUG: "\033[90m",
	INFO:  "\033[32m",
	WARN:  "\033[33m",
	ERROR: "\033[31m",
}

// Logger represents a leveled logger with size-based file rotation
type Logger struct {
	level       LogLevel
	file        *os.File
	output      io.Writer
	filePath    string
	maxSize     int64 // bytes
	maxBackups  int
	console     bool
	currentSize int64
	mu          sync.Mutex
}

// LoggerConfig represents the configuration for the logger
type LoggerConfig struct {
	// Log level
	Level LogLevel
	// Log file path
	FilePath string
	// Maximum log file size in MB before rotation
	MaxSize int
	// Maximum number of rotated backups to keep
	MaxBackups int
	// Whether to also log to the console
	Console bool
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level:      INFO,
		FilePath:   "./logs/sensor-gate.log",
		MaxSize:    10,
		MaxBackups: 5,
		Console:    true,
	}
}

// New creates a new logger
func New(config LoggerConfig) (*Logger, error) {
	logDir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %v", err)
	}

	l := &Logger{
		level:       config.Level,
		file:        file,
		filePath:    config.FilePath,
		maxSize:     int64(config.MaxSize) * 1024 * 1024,
		maxBackups:  config.MaxBackups,
		console:     config.Console,
		currentSize: info.Size(),
	}
	l.resetOutput()

	return l, nil
}

// resetOutput rebuilds the output writer from the current file and console flag.
// Caller must hold the mutex (or own the logger exclusively).
func (l *Logger) resetOutput() {
	if l.console {
		l.output = io.MultiWriter(os.Stdout, l.file)
	} else {
		l.output = l.file
	}
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// log formats and writes a single entry
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Caller of the exported Debug/Info/Warn/Error wrapper
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		file = "unknown"
		line = 0
	}
	file = filepath.Base(file)

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	logEntry := fmt.Sprintf("%s [%s%s\033[0m] %s:%d: %s\n",
		timestamp, levelColors[level], levelNames[level], file, line, msg)

	n, err := io.WriteString(l.output, logEntry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log: %v\n", err)
		return
	}

	l.currentSize += int64(n)
	if l.currentSize >= l.maxSize {
		l.rotate()
	}
}

// rotate moves the current log file aside and starts a new one.
// Caller must hold the mutex.
func (l *Logger) rotate() {
	l.file.Close()

	timestamp := time.Now().Format("20060102-150405")
	dir := filepath.Dir(l.filePath)
	base := filepath.Base(l.filePath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	backupPath := filepath.Join(dir, fmt.Sprintf("%s.%s%s", name, timestamp, ext))

	os.Rename(l.filePath, backupPath)
	l.cleanOldLogs(dir, name, ext)

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create new log file: %v\n", err)
		return
	}

	l.file = file
	l.resetOutput()
	l.currentSize = 0
}

// cleanOldLogs removes rotated backups beyond the configured count
func (l *Logger) cleanOldLogs(dir, name, ext string) {
	matches, err := filepath.Glob(filepath.Join(dir, name+".*"+ext))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list old log files: %v\n", err)
		return
	}

	if len(matches) <= l.maxBackups {
		return
	}

	type fileInfo struct {
		path string
		time time.Time
	}
	files := make([]fileInfo, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		files = append(files, fileInfo{match, info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].time.Before(files[j].time)
	})

	for i := 0; i < len(files)-l.maxBackups; i++ {
		os.Remove(files[i].path)
	}
}

// Debug logs debug level messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs info level messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs warning level messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs error level messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Close closes the logger
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
