package logger

import (
	"os"
	"strings"
	"sync"

	"market-dashboard/src/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseOnce sync.Once
	base     *zap.Logger
	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	sugar  *zap.SugaredLogger
	config interface{}
}

// -----------------------------------------------------------------------------

func root() *zap.Logger {
	baseOnce.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "time"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level)
		base = zap.New(core)
	})
	return base
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. config may be a *models.MConfig or a
// level name; either one adjusts the shared level of every logger.
func NewLogger(config interface{}, name string) *Logger {
	switch c := config.(type) {
	case *models.MConfig:
		if c != nil {
			SetLevel(c.LogLevel)
		}
	case string:
		SetLevel(c)
	}

	return &Logger{
		name:   name,
		sugar:  root().Named(name).Sugar(),
		config: config,
	}
}

// -----------------------------------------------------------------------------

// SetLevel changes the shared log level. Unknown names are ignored.
func SetLevel(name string) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		level.SetLevel(zapcore.DebugLevel)
	case "INFO":
		level.SetLevel(zapcore.InfoLevel)
	case "WARNING", "WARN":
		level.SetLevel(zapcore.WarnLevel)
	case "ERROR":
		level.SetLevel(zapcore.ErrorLevel)
	}
}

// -----------------------------------------------------------------------------

// Zap exposes the underlying zap logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.sugar.Errorf("CRITICAL: "+format, args...)
	_ = l.sugar.Sync()
	os.Exit(1)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
