package database

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-dev/gatehouse/internal/models"
)

func TestOpen_MigratesAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")

	db, err := Open(path, zerolog.Nop())
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Account{}))
	assert.True(t, db.Migrator().HasTable(&models.Setting{}))

	require.NoError(t, Close(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "pool should be closed")
}

func TestOpen_GormErrorsGoThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"), zerolog.New(&buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	buf.Reset()
	require.Error(t, db.Exec("SELECT * FROM missing_table").Error)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "gorm", entry["source"])
	assert.Contains(t, entry["message"], "missing_table")
}
