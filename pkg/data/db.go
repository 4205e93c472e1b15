package data

import (
	"database/sql"
	"embed"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DataFileName string = "data.db"

	timeFormat = "2006-01-02T15:04:05.000000Z07:00"

	createVersionTableSQL = `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`
	selectVersionSQL      = `SELECT COALESCE(MAX(version), 0) FROM schema_version`
	insertVersionSQL      = `INSERT INTO schema_version (version) VALUES (?)`
)

var (
	//go:embed sql/*.sql
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")
)

// Init creates the database file if needed and applies pending migrations.
func Init(dbFilePath string) error {
	if dbFilePath == "" {
		return errors.New("dbFilePath not specified")
	}

	db, err := GetDB(dbFilePath)
	if err != nil {
		return errors.Wrapf(err, "error opening database: %s", dbFilePath)
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		return errors.Wrapf(err, "failed to migrate database: %s", dbFilePath)
	}

	return nil
}

func GetDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", path)
	}
	return conn, nil
}

// Delete removes the database file.
func Delete(dbFilePath string) error {
	if err := os.Remove(dbFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "deleting database: %s", dbFilePath)
	}
	return nil
}

type migration struct {
	version int
	name    string
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(createVersionTableSQL); err != nil {
		return errors.Wrap(err, "failed to create schema_version table")
	}

	var current int
	if err := db.QueryRow(selectVersionSQL).Scan(&current); err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}

	list, err := migrations()
	if err != nil {
		return err
	}

	for _, m := range list {
		if m.version <= current {
			continue
		}

		b, err := f.ReadFile(path.Join("sql", m.name))
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", m.name)
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrap(err, "failed to begin transaction")
		}
		if _, err := tx.Exec(string(b)); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to apply migration %s", m.name)
		}
		if _, err := tx.Exec(insertVersionSQL, m.version); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to record migration %s", m.name)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "failed to commit migration %s", m.name)
		}
		slog.Debug("applied migration", "version", m.version, "name", m.name)
	}

	return nil
}

func migrations() ([]migration, error) {
	entries, err := f.ReadDir("sql")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list migrations")
	}

	list := make([]migration, 0, len(entries))
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid migration name: %s", e.Name())
		}
		list = append(list, migration{version: v, name: e.Name()})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].version < list[j].version })
	return list, nil
}
