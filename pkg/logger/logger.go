// Package logger 构造所有组件共用的 zap logger。
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 选择日志级别和编码
type Config struct {
	Level  string // debug | info | warn | error
	Format string // console | json
}

// New 构造写到 stderr 的 logger，stdout 只留给命令输出。
// 默认 console 编码、ISO8601 时间戳，Format 为 "json" 时输出 JSON。
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(level)
	c.Encoding = "console"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.OutputPaths = []string{"stderr"}
	c.ErrorOutputPaths = []string{"stderr"}
	c.Sampling = nil

	switch cfg.Format {
	case "", "console":
	case "json":
		c.Encoding = "json"
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	log, err := c.Build(
		zap.AddStacktrace(zap.NewAtomicLevelAt(zap.FatalLevel)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return log, nil
}
