// Package logging 创建编译器使用的 zap 日志
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 创建日志
//
// debug 时使用开发配置（控制台格式、Debug 级别），否则只输出 Warn 及以上的 JSON 日志。
// 日志写到 stderr，stdout 留给汇编输出。
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		cfg.Sampling = nil
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !debug
	return cfg.Build()
}

// Must 同 New，失败时退回到空日志
func Must(debug bool) *zap.Logger {
	l, err := New(debug)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Nop 不输出任何内容的日志
func Nop() *zap.Logger { return zap.NewNop() }
