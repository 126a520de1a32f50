// Package logging builds the process zap logger from config.
package logging

import (
	"github.com/kasuganosora/lootsim/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a development logger when debug is set, a production logger
// otherwise. If cfg.File is set, JSON entries are also written to a rotating
// file at the same level.
func New(cfg config.LogConfig, debug bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		var err error
		if level, err = zap.ParseAtomicLevel(cfg.Level); err != nil {
			return nil, err
		}
	} else if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	var zc zap.Config
	if debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	opts := []zap.Option{}
	if cfg.File != "" {
		sink := zapcore.AddSync(FileWriter(cfg))
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level)
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}
	return zc.Build(opts...)
}

// FileWriter returns the rotating writer for cfg.File.
func FileWriter(cfg config.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
