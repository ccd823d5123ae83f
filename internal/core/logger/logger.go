package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(level string) *zap.Logger {
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if parsed, err := zapcore.ParseLevel(level); err == nil {
		loggerConfig.Level = zap.NewAtomicLevelAt(parsed)
	}

	logger, err := loggerConfig.Build()
	if nil != err {
		panic(err)
	}

	return logger
}
