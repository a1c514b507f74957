package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Dir   string
	Level string
	// Console also writes human-readable entries to stderr.
	Console bool
}

// NewLogger writes JSON entries to a rotating buzzmonitor.log in opts.Dir.
// An unknown level falls back to info.
func NewLogger(opts Options) (*zap.Logger, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	level := zapcore.InfoLevel
	if err := level.Set(opts.Level); err != nil {
		level = zapcore.InfoLevel
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "buzzmonitor.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)

	if opts.Console {
		dev := zap.NewDevelopmentEncoderConfig()
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewConsoleEncoder(dev), zapcore.Lock(os.Stderr), level))
	}
	return zap.New(core, zap.Fields(zap.String("service", "buzzmonitor"))), nil
}
