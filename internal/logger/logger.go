// Package logger configures the process-wide zap logger that a Planet's
// per-frame sequence, its TreeManagers, and tile sources log through. A
// render session is long-running (a fly-by can walk thousands of frames),
// so file output always goes through a rotating lumberjack writer rather
// than a single ever-growing file.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Faultbox/lodbodies/internal/config"
)

// Log is the global logger instance, configured by Init and passed
// explicitly into internal/planet, internal/treemanager, and the tile
// sources rather than reached for as a global from inside those packages.
var Log *zap.Logger

// Sugar is the sugared logger cmd/planetview uses for the occasional
// formatted debug line.
var Sugar *zap.SugaredLogger

// Init configures Log/Sugar from a LoggingConfig, writing to the console
// and, if LogFile is set, to a rotating file.
func Init(cfg config.LoggingConfig) error {
	return InitWithFileConfig(cfg, true)
}

// InitWithFileConfig is Init with console output togglable, so tests can
// exercise file rotation without also spamming stdout.
func InitWithFileConfig(cfg config.LoggingConfig, consoleOutput bool) error {
	lvl := parseLevel(cfg.Level)

	var cores []zapcore.Core

	if consoleOutput {
		consoleEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			MessageKey:       "msg",
			CallerKey:        "caller",
			EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
			EncodeLevel:      zapcore.CapitalColorLevelEncoder,
			EncodeCaller:     zapcore.ShortCallerEncoder,
			ConsoleSeparator: " ",
		})

		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), lvl))
	}

	if cfg.LogFile != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}

		fileEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			MessageKey:       "msg",
			CallerKey:        "caller",
			EncodeTime:       zapcore.ISO8601TimeEncoder,
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			EncodeCaller:     zapcore.ShortCallerEncoder,
			ConsoleSeparator: " ",
		})

		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), lvl))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	Sugar = Log.Sugar()

	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered log entries. Call it deferred from main once
// Init has succeeded.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// Info logs planet-lifecycle messages: session start/finish, config dump.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Error logs a failure that stops planetview from proceeding, such as a
// tile source or config error at startup.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
