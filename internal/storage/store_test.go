package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/postcli/internal/migrations"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, dbPath
}

// storeContract runs the same behaviour checks against every implementation
func storeContract(t *testing.T, s Store) {
	t.Helper()

	_, found, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(KeyToken, "T1"))
	require.NoError(t, s.Set(KeyUsername, "alice"))

	v, found, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "T1", v)

	require.NoError(t, s.Set(KeyToken, "T2"))
	v, _, err = s.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "T2", v)

	require.NoError(t, s.Delete(KeyToken, KeyUsername, "missing"))

	_, found, err = s.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = s.Get(KeyUsername)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Contract(t *testing.T) {
	s := NewMemoryStore()
	storeContract(t, s)
	assert.Equal(t, 0, s.Len())
}

func TestSQLiteStore_Contract(t *testing.T) {
	s, _ := newTestSQLiteStore(t)
	storeContract(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	s, dbPath := newTestSQLiteStore(t)
	require.NoError(t, s.Set(KeyToken, "T1"))
	require.NoError(t, s.Set(KeyUsername, "alice"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	token, found, err := reopened.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "T1", token)

	user, found, err := reopened.Get(KeyUsername)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice", user)
}

func TestSQLiteStore_ClosedStore(t *testing.T) {
	s, _ := newTestSQLiteStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err := s.Get(KeyToken)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(KeyToken, "x"), ErrClosed)
	assert.ErrorIs(t, s.Delete(KeyToken), ErrClosed)
}

func TestSQLiteStore_MigrationsApplied(t *testing.T) {
	_, dbPath := newTestSQLiteStore(t)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	version, err := migrations.GetCurrentVersion(db)
	require.NoError(t, err)
	assert.Equal(t, len(migrations.AllMigrations), version)
}

func TestMigrations_DropOrphanedHalfSession(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, migrations.InitSchema(db))
	_, err = db.Exec("INSERT INTO kv_store (key, value) VALUES ('token', 'stale')")
	require.NoError(t, err)

	require.NoError(t, migrations.Run(db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM kv_store").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestMigrations_KeepCompleteSession(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, migrations.InitSchema(db))
	_, err = db.Exec("INSERT INTO kv_store (key, value) VALUES ('token', 'T1'), ('username', 'alice')")
	require.NoError(t, err)

	require.NoError(t, migrations.Run(db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM kv_store").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store, closeStore := Open(filepath.Join(blocker, "postcli.db"), nil)
	_, isMemory := store.(*MemoryStore)
	assert.True(t, isMemory)
	assert.NoError(t, closeStore())

	store, closeStore = Open(filepath.Join(t.TempDir(), "postcli.db"), nil)
	_, isSQLite := store.(*SQLiteStore)
	assert.True(t, isSQLite)
	assert.NoError(t, closeStore())
}
