// utils/logger_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return NewLoggerWith(zap.New(core)), logs
}

func TestAuditRedactsSensitiveFields(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Audit("balance credited",
		"user_id", "u-1",
		"balance", "50.00",
		"api_key", "sk-live-abc",
		"game_key", "AAAA-BBBB-CCCC",
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "[REDACTED]", fields["balance"])
	assert.Equal(t, "[REDACTED]", fields["api_key"])
	assert.Equal(t, "[REDACTED]", fields["game_key"])
}

func TestInfoDoesNotRedact(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Info("job finished", "checked", 23)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.EqualValues(t, 23, fields["checked"])
}

func TestIsSensitiveKeyMatchesFragments(t *testing.T) {
	assert.True(t, isSensitiveKey("Authorization"))
	assert.True(t, isSensitiveKey("service_token"))
	assert.True(t, isSensitiveKey("PASSWORD"))
	assert.False(t, isSensitiveKey("order_id"))
	assert.False(t, isSensitiveKey("status"))
}
