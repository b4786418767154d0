package logging

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prairieworks/gomodbus/common"
)

// Logger implements common.LoggerInterface and common.LoggerInterfaceHexdump
// over a zap.SugaredLogger. Field attachment (WithFields) builds a new
// *Logger carrying a derived *zap.SugaredLogger, matching zap's own
// immutable-logger idiom rather than the mutable map the field name might
// suggest.
type Logger struct {
	mu     sync.Mutex
	level  *zap.AtomicLevel
	sugar  *zap.SugaredLogger
	fields map[string]interface{}
}

// Option configures a Logger.
type Option func(*loggerConfig)

type loggerConfig struct {
	level  common.LogLevel
	writer *os.File
	fields map[string]interface{}
}

// WithLevel sets the initial log level.
func WithLevel(level common.LogLevel) Option {
	return func(c *loggerConfig) { c.level = level }
}

// WithWriter directs log output at writer instead of stdout.
func WithWriter(writer *os.File) Option {
	return func(c *loggerConfig) { c.writer = writer }
}

// WithFields attaches structured fields present on every entry the logger
// emits.
func WithFields(fields map[string]interface{}) Option {
	return func(c *loggerConfig) {
		if c.fields == nil {
			c.fields = make(map[string]interface{}, len(fields))
		}
		for k, v := range fields {
			c.fields[k] = v
		}
	}
}

func toZapLevel(l common.LogLevel) zapcore.Level {
	switch {
	case l <= common.LevelTrace:
		return zapcore.DebugLevel - 1 // zap has no trace level; one below debug keeps trace distinct, traces log at debug
	case l <= common.LevelDebug:
		return zapcore.DebugLevel
	case l <= common.LevelInfo:
		return zapcore.InfoLevel
	case l <= common.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// NewLogger builds a Logger backed by a zap production JSON encoder writing
// to stdout (or WithWriter's target), at LevelInfo unless overridden.
func NewLogger(options ...Option) *Logger {
	cfg := loggerConfig{level: common.LevelInfo, writer: os.Stdout}
	for _, o := range options {
		o(&cfg)
	}

	atomicLevel := zap.NewAtomicLevelAt(toZapLevel(cfg.level))
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(cfg.writer), atomicLevel)
	base := zap.New(core)

	l := &Logger{level: &atomicLevel, sugar: base.Sugar(), fields: cfg.fields}
	if len(cfg.fields) > 0 {
		l.sugar = l.sugar.With(flatten(cfg.fields)...)
	}
	return l
}

func flatten(fields map[string]interface{}) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func (l *Logger) log(level common.LogLevel, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch {
	case level <= common.LevelDebug:
		l.sugar.Debug(msg)
	case level <= common.LevelInfo:
		l.sugar.Info(msg)
	case level <= common.LevelWarn:
		l.sugar.Warn(msg)
	default:
		l.sugar.Error(msg)
	}
}

// Trace logs at trace level (mapped onto zap's debug level -- zap has no
// trace level of its own).
func (l *Logger) Trace(ctx context.Context, format string, args ...interface{}) {
	if l.GetLevel() <= common.LevelTrace {
		l.log(common.LevelTrace, format, args...)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(ctx context.Context, format string, args ...interface{}) {
	if l.GetLevel() <= common.LevelDebug {
		l.log(common.LevelDebug, format, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(ctx context.Context, format string, args ...interface{}) {
	if l.GetLevel() <= common.LevelInfo {
		l.log(common.LevelInfo, format, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(ctx context.Context, format string, args ...interface{}) {
	if l.GetLevel() <= common.LevelWarn {
		l.log(common.LevelWarn, format, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(ctx context.Context, format string, args ...interface{}) {
	if l.GetLevel() <= common.LevelError {
		l.log(common.LevelError, format, args...)
	}
}

// WithFields returns a new logger carrying fields merged on top of l's own.
func (l *Logger) WithFields(fields map[string]interface{}) common.LoggerInterface {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{level: l.level, sugar: l.sugar.With(flatten(fields)...), fields: merged}
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() common.LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fromZapLevel(l.level.Level())
}

// SetLevel sets the log level. Because the underlying zap.AtomicLevel is
// shared across every Logger derived via WithFields, the change is visible
// to all of them.
func (l *Logger) SetLevel(level common.LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level.SetLevel(toZapLevel(level))
}

func fromZapLevel(lvl zapcore.Level) common.LogLevel {
	if lvl < zapcore.DebugLevel {
		return common.LevelTrace
	}
	switch lvl {
	case zapcore.DebugLevel:
		return common.LevelDebug
	case zapcore.InfoLevel:
		return common.LevelInfo
	case zapcore.WarnLevel:
		return common.LevelWarn
	default:
		return common.LevelError
	}
}

// Hexdump writes a hexdump of data at trace level. Format:
// offset   00 01 02 03 04 05 06 07 | 08 09 0a 0b 0c 0d 0e 0f
func (l *Logger) Hexdump(ctx context.Context, data []byte) {
	if l.GetLevel() > common.LevelTrace {
		return
	}

	dump := "offset   00 01 02 03 04 05 06 07 | 08 09 0a 0b 0c 0d 0e 0f\n"
	for i := 0; i < len(data); i += 16 {
		dump += fmt.Sprintf("%08x", i)
		for j := 0; j < 16; j++ {
			if j == 8 {
				dump += " |"
			}
			dump += " "
			if i+j < len(data) {
				dump += fmt.Sprintf("%02x", data[i+j])
			} else {
				dump += "  "
			}
		}
		dump += "\n"
	}
	l.sugar.Debug(dump)
}
