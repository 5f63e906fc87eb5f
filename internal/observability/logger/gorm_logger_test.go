package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseGormLevel("off", gormlogger.Warn))
	assert.Equal(t, gormlogger.Error, ParseGormLevel(" ERROR ", gormlogger.Warn))
	assert.Equal(t, gormlogger.Info, ParseGormLevel("debug", gormlogger.Warn))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel("", gormlogger.Warn))
	assert.Equal(t, gormlogger.Error, ParseGormLevel("chatty", gormlogger.Error))
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	logs := withObservedGlobal(t)
	l := NewGormLogger(DefaultGormLoggerConfig())

	l.Trace(t.Context(), time.Now(), func() (string, int64) {
		return `SELECT * FROM "products" WHERE id = ?`, 0
	}, gormlogger.ErrRecordNotFound)

	assert.Zero(t, logs.Len())
}

func TestGormLogger_SlowQueryWarns(t *testing.T) {
	logs := withObservedGlobal(t)
	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: time.Millisecond})

	l.Trace(t.Context(), time.Now().Add(-time.Second), func() (string, int64) {
		return `UPDATE "products" SET landed_cost = ?`, 12
	}, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "gorm.query", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "UPDATE", fields["operation"])
	assert.Equal(t, true, fields["slow"])
	assert.Equal(t, int64(12), fields["rows_affected"])
}

func TestGormLogger_SilentLogsNothing(t *testing.T) {
	logs := withObservedGlobal(t)
	l := NewGormLogger(DefaultGormLoggerConfig()).LogMode(gormlogger.Silent)

	l.Error(t.Context(), "boom")
	l.Trace(t.Context(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, nil)

	assert.Zero(t, logs.Len())
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "INSERT", operationFromSQL(`  insert into "settings" ("key") values (?)`))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}
