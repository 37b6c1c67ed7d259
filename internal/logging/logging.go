package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const jsonLoggingEnv = "WIDEDEEP_JSON_LOGGING"

func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (expected one of debug, info, warn, error)", level)
	}
}

func DefaultZapConfig(level zapcore.Level, fields ...map[string]interface{}) zap.Config {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	initialFields := map[string]interface{}{}
	for _, m := range fields {
		for k, v := range m {
			initialFields[k] = v
		}
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    initialFields,
	}
}

// NewLogger builds the process logger. Output is console text unless
// WIDEDEEP_JSON_LOGGING=true.
func NewLogger(level string, fields ...map[string]interface{}) (*zap.SugaredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := DefaultZapConfig(lvl, fields...)
	if strings.ToLower(os.Getenv(jsonLoggingEnv)) == "true" {
		cfg.Encoding = "json"
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
