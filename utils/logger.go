// utils/logger.go
package utils

import (
	"strings"

	"go.uber.org/zap"
)

// Logger is the structured logger injected into services and workers.
// Audit behaves like Info but redacts known-sensitive field values.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Audit(msg string, keysAndValues ...interface{})
}

// sensitiveKeys are field-name fragments that must never reach the logs in
// clear text. "key" covers both api_key and raw game keys.
var sensitiveKeys = []string{"token", "secret", "password", "key", "balance", "authorization"}

const redactedPlaceholder = "[REDACTED]"

type ZapLogger struct {
	sugar *zap.SugaredLogger
}

func NewLogger() (*ZapLogger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: z.Sugar()}, nil
}

// NewLoggerWith wraps an existing zap logger (used by tests with an
// observer core).
func NewLoggerWith(z *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: z.Sugar()}
}

func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) Audit(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, redactPairs(keysAndValues)...)
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

func redactPairs(keysAndValues []interface{}) []interface{} {
	out := make([]interface{}, len(keysAndValues))
	copy(out, keysAndValues)
	for i := 0; i+1 < len(out); i += 2 {
		if key, ok := out[i].(string); ok && isSensitiveKey(key) {
			out[i+1] = redactedPlaceholder
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveKeys {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// NopLogger discards everything. Default for tests.
type NopLogger struct{}

func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Audit(string, ...interface{}) {}
