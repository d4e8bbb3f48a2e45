package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger that writes JSON to the given log file path
// and also writes to stderr. The PID is included as an initial field.
func New(logPath string) (*zap.Logger, error) {
	return newLogger(logPath, zapcore.InfoLevel, zapcore.AddSync(os.Stderr))
}

func newLogger(logPath string, level zapcore.Level, console zapcore.WriteSyncer) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	jsonEncoder := zapcore.NewJSONEncoder(encoderCfg)
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	fileCore := zapcore.NewCore(jsonEncoder, zapcore.AddSync(file), level)
	consoleCore := zapcore.NewCore(consoleEncoder, console, level)

	logger := zap.New(zapcore.NewTee(fileCore, consoleCore),
		zap.Fields(zap.Int("pid", os.Getpid())),
	)
	return logger, nil
}
