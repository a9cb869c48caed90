// File: internal/observability/logger.go
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xkilldash9x/pinpoint-cli/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// globalLogger stores the global logger instance safely across goroutines.
	globalLogger atomic.Pointer[zap.Logger]
	// once ensures that initialization happens exactly once.
	once sync.Once
)

// ANSI color codes for the terminal.
const (
	colorBlack   = "\x1b[30m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorReset   = "\x1b[0m"
)

// colorMap translates friendly names to ANSI codes.
var colorMap = map[string]string{
	"black":   colorBlack,
	"red":     colorRed,
	"green":   colorGreen,
	"yellow":  colorYellow,
	"blue":    colorBlue,
	"magenta": colorMagenta,
	"cyan":    colorCyan,
	"white":   colorWhite,
}

// Initialize sets up the global Zap logger based on configuration and a
// specified output writer. This is the core, flexible initializer.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		consoleEncoder := getEncoder(cfg)
		consoleCore := zapcore.NewCore(consoleEncoder, consoleWriter, level)
		cores := []zapcore.Core{consoleCore}

		if cfg.LogFile != "" {
			// File encoder is always JSON for structured logging.
			fileEncoder := getEncoder(config.LoggerConfig{Format: "json"})
			// lumberjack handles file rotation and thread-safe writes.
			fileWriter := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
			fileCore := zapcore.NewCore(fileEncoder, fileWriter, level)
			cores = append(cores, fileCore)
		}

		core := zapcore.NewTee(cores...)
		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}

		logger := zap.New(core, options...).Named(cfg.ServiceName)
		globalLogger.Store(logger)

		// Replace the standard library logger and Zap's global loggers.
		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger is a convenience wrapper around Initialize for production
// use. It defaults console output to a locked Stdout.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stdout))
}

// ResetForTest resets the sync.Once and clears the global logger.
// This function should ONLY be used in tests to ensure isolation.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// newColorizedLevelEncoder creates a zapcore.LevelEncoder that colorizes the log level.
func newColorizedLevelEncoder(colors config.ColorConfig) zapcore.LevelEncoder {
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		var color string
		levelStr := strings.ToUpper(level.String())

		switch level {
		case zapcore.DebugLevel:
			color = colorMap[colors.Debug]
		case zapcore.InfoLevel:
			color = colorMap[colors.Info]
		case zapcore.WarnLevel:
			color = colorMap[colors.Warn]
		case zapcore.ErrorLevel:
			color = colorMap[colors.Error]
		case zapcore.DPanicLevel:
			color = colorMap[colors.DPanic]
		case zapcore.PanicLevel:
			color = colorMap[colors.Panic]
		case zapcore.FatalLevel:
			color = colorMap[colors.Fatal]
		default:
			color = colorReset
		}

		if color != "" {
			enc.AppendString(fmt.Sprintf("%s%s%s", color, levelStr, colorReset))
		} else {
			enc.AppendString(levelStr)
		}
	}
}

// getEncoder selects and configures the appropriate log encoder based on the
// provided configuration. It supports "json" for structured logging and a
// custom "console" format for human-readable, colorized terminal output.
func getEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = newColorizedLevelEncoder(cfg.Colors)
		return newCustomConsoleEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// newCustomConsoleEncoder creates a Zap encoder with a format optimized for
// terminal readability: timestamp, color-coded level, component name, message,
// and structured fields.
func newCustomConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	consoleCfg := cfg
	// A dot suffix makes the component name visually distinct in the log line
	// (e.g., "pinpoint.driver.").
	consoleCfg.EncodeName = func(loggerName string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(loggerName + ".")
	}
	return zapcore.NewConsoleEncoder(consoleCfg)
}

// GetLogger returns the initialized global logger instance.
func GetLogger() *zap.Logger {
	logger := globalLogger.Load()
	if logger == nil {
		// Fallback mechanism if InitializeLogger hasn't been called.
		l, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		l.Warn("Global logger requested before initialization; using fallback.")
		return l.Named("fallback")
	}
	return logger
}

// Sync flushes any buffered log entries. Applications should call this before exiting.
func Sync() {
	logger := globalLogger.Load()
	if logger != nil {
		if err := logger.Sync(); err != nil {
			// Syncing stdout fails on some platforms; ignore the usual suspects
			// to avoid noise during shutdown or test teardown.
			errMsg := err.Error()
			if !strings.Contains(errMsg, "sync /dev/stdout") &&
				!strings.Contains(errMsg, "invalid argument") &&
				!strings.Contains(errMsg, "operation not supported") {
				fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
			}
		}
	}
}
