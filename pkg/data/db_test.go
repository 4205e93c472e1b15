package data

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	err := Init(dbPath)
	require.NoError(t, err)
	db, err := GetDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInit_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	err := Init(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestInit_EmptyPath(t *testing.T) {
	err := Init("")
	assert.Error(t, err)
}

func TestInit_RunsMigrations(t *testing.T) {
	db := setupTestDB(t)

	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	assert.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestInit_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, Init(dbPath))
	assert.NoError(t, Init(dbPath))

	db, err := GetDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, Init(dbPath))
	require.NoError(t, Delete(dbPath))
	_, err := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, Delete(dbPath))
}

func TestNilDB(t *testing.T) {
	assert.ErrorIs(t, SaveTrainingRun(nil, &TrainingRun{}), errDBNotInitialized)
	_, err := GetTrainingRuns(nil, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
	_, err = GetLatestTrainingRun(nil)
	assert.ErrorIs(t, err, errDBNotInitialized)
	assert.ErrorIs(t, SaveScore(nil, &ScoreRecord{}), errDBNotInitialized)
	_, err = GetScores(nil, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
	assert.ErrorIs(t, SaveSimulation(nil, &SimulationRecord{}), errDBNotInitialized)
	_, err = GetSimulations(nil, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
	_, err = GetDataState(nil)
	assert.ErrorIs(t, err, errDBNotInitialized)
}
