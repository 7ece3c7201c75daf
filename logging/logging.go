package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	logger  = newDefaultLogger()
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
)

// Options controls where log output goes and how much of it there is
type Options struct {
	Level string
	File  string
	// Debug mirrors file output to stderr and forces the debug level
	Debug bool
}

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return l
}

// Configure applies the options to the package logger
func Configure(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	level := parseLevel(opts.Level)
	if opts.Debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if strings.TrimSpace(opts.File) == "" {
		return nil
	}
	if err := openFileLocked(opts.File); err != nil {
		return err
	}
	if opts.Debug {
		logger.SetOutput(io.MultiWriter(os.Stderr, logFile))
	} else {
		logger.SetOutput(logFile)
	}
	return nil
}

// SetupLogger sends debug output to the specified log file
func SetupLogger(logFilePath string) error {
	return Configure(Options{File: logFilePath, Debug: true})
}

func openFileLocked(path string) error {
	if isSetup {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	isSetup = true
	logger.SetOutput(logFile)
	logger.Infof("--- imagesync log started at %s ---", time.Now().Format(time.RFC3339))
	return nil
}

// CloseLogger closes the log file and falls back to stderr
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Infof("--- imagesync log closed at %s ---", time.Now().Format(time.RFC3339))
		logger.SetOutput(os.Stderr)
		logFile.Close()
		logFile = nil
		isSetup = false
	}
}

// SetOutput redirects log output, mostly useful in tests
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// Logger exposes the underlying logger for callers that need fields
func Logger() *logrus.Logger {
	return logger
}

// WithFields returns an entry carrying structured fields
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return logger.WithFields(logrus.Fields(fields))
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// LogImageProcessed logs when an image is processed
func LogImageProcessed(path string, success bool, errMsg string) {
	if success {
		logger.WithField("path", path).Debug("processed")
		return
	}
	logger.WithFields(logrus.Fields{"path": path, "error": errMsg}).Warn("processing failed")
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "info", "":
		return logrus.InfoLevel
	default:
		return logrus.InfoLevel
	}
}
