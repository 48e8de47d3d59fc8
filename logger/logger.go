package logger

import (
	"os"

	"github.com/teranos/codegen/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool

	logFile *os.File
)

func init() {
	// Safe no-op logger until Initialize is called
	Logger = zap.NewNop().Sugar()
}

// Options controls how Initialize builds the global logger.
type Options struct {
	// JSON switches the console output to structured JSON records
	JSON bool
	// Verbosity is the -v flag count, see VerbosityToLevel
	Verbosity int
	// File, when set, receives a JSON copy of every record
	File string
	// Theme selects the console palette ("everforest" or "gruvbox")
	Theme string
}

// Initialize sets up the global logger.
// Console records go to stderr so generated output on stdout stays clean.
func Initialize(opts Options) error {
	JSONOutput = opts.JSON
	if opts.Theme != "" {
		SetTheme(opts.Theme)
	} else if theme := os.Getenv("CODEGEN_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}

	level := zap.NewAtomicLevelAt(VerbosityToLevel(opts.Verbosity))

	var consoleEncoder zapcore.Encoder
	if opts.JSON {
		consoleEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		consoleEncoder = newMinimalEncoder()
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level),
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrapf(err, "failed to open log file %s", opts.File)
		}
		closeLogFile()
		logFile = f
		// The log file always records at debug level
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(f),
			zap.DebugLevel,
		))
	}

	Logger = zap.New(zapcore.NewTee(cores...)).Sugar()
	return nil
}

func closeLogFile() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Cleanup flushes any buffered log entries and closes the log file
func Cleanup() {
	if Logger != nil {
		Logger.Sync()
	}
	closeLogFile()
}

// Info logs an info message
func Info(args ...interface{}) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

// Infof logs a formatted info message
func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Error logs an error message
func Error(args ...interface{}) {
	if Logger != nil {
		Logger.Error(args...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Warn logs a warning message
func Warn(args ...interface{}) {
	if Logger != nil {
		Logger.Warn(args...)
	}
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Debugf logs a formatted debug message
func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
