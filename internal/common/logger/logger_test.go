package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapAdapter(zap.New(core)), logs
}

func TestZapFields_SortedByKey(t *testing.T) {
	fields := zapFields(map[string]interface{}{
		"userId":   "ent-001",
		"attempt":  3,
		"taskType": "process-swipe",
	})

	require.Len(t, fields, 3)
	assert.Equal(t, "attempt", fields[0].Key)
	assert.Equal(t, "taskType", fields[1].Key)
	assert.Equal(t, "userId", fields[2].Key)
}

func TestZapFields_EmptyMap(t *testing.T) {
	assert.Nil(t, zapFields(nil))
	assert.Nil(t, zapFields(map[string]interface{}{}))
}

func TestAdapter_EmitsFields(t *testing.T) {
	log, logs := observedLogger()

	log.Info("swipe recorded", map[string]interface{}{"matchId": "rec-1"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "swipe recorded", entries[0].Message)
	assert.Equal(t, "rec-1", entries[0].ContextMap()["matchId"])
}

func TestAdapter_WithFieldsAccumulates(t *testing.T) {
	log, logs := observedLogger()

	scoped := log.WithFields(map[string]interface{}{"taskType": "list-matches"})
	scoped.Warn("slow query", map[string]interface{}{"elapsedMs": 1200})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "list-matches", ctx["taskType"])
	assert.EqualValues(t, 1200, ctx["elapsedMs"])

	// The parent logger is untouched.
	log.Info("unscoped", nil)
	assert.NotContains(t, logs.All()[1].ContextMap(), "taskType")
}

func TestAdapter_WithError(t *testing.T) {
	log, logs := observedLogger()

	log.WithError(errors.New("room create failed")).Error("match degraded", nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "room create failed", entries[0].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("loud"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestNew_BadOutputFallsBackToNop(t *testing.T) {
	l := New("info", "json", "/no/such/dir/worker.log")
	require.NotNil(t, l)
	// Nop logger still accepts writes.
	l.Info("dropped")
}
