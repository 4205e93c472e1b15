package data

import (
	"database/sql"

	"github.com/pkg/errors"
)

var stateQueries = map[string]string{
	"training_run": "SELECT COUNT(*) FROM training_run",
	"score":        "SELECT COUNT(*) FROM score",
	"simulation":   "SELECT COUNT(*) FROM simulation",
}

// GetDataState returns the number of records in each registry table.
func GetDataState(db *sql.DB) (map[string]int64, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	state := make(map[string]int64)
	for k, v := range stateQueries {
		stmt, err := db.Prepare(v)
		if err != nil {
			return nil, errors.Wrapf(err, "error preparing %s statement", k)
		}

		count, err := getCount(stmt)
		_ = stmt.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "error getting %s count", k)
		}
		state[k] = count
	}

	return state, nil
}

func getCount(stmt *sql.Stmt) (int64, error) {
	var count int64
	if err := stmt.QueryRow().Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to scan row")
	}
	return count, nil
}
