package data

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/ordermix/pkg/sim"
	"github.com/pkg/errors"
)

const (
	insertSimulationSQL = `INSERT INTO simulation (
			id, created_at, games, seed, legacy, win_x, win_o, tie
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectSimulationsSQL = `SELECT id, created_at, games, seed, legacy, win_x, win_o, tie
		FROM simulation
		ORDER BY created_at DESC
		LIMIT ?`
)

// SimulationRecord is a stored simulation result.
type SimulationRecord struct {
	ID         string    `json:"id" yaml:"id"`
	CreatedAt  time.Time `json:"created_at" yaml:"createdAt"`
	sim.Result `yaml:",inline"`
}

func SaveSimulation(db *sql.DB, r *SimulationRecord) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil || r.Games < 1 {
		return errors.New("simulation with at least one game required")
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	// sqlite integers are signed; the seed is stored bit for bit
	if _, err := db.Exec(insertSimulationSQL,
		r.ID, r.CreatedAt.Format(timeFormat), r.Games, int64(r.Seed), r.Legacy,
		r.WinX, r.WinO, r.Tie,
	); err != nil {
		return errors.Wrapf(err, "failed to insert simulation %s", r.ID)
	}
	return nil
}

func GetSimulations(db *sql.DB, limit int) ([]*SimulationRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectSimulationsSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query simulations")
	}
	defer rows.Close()

	list := make([]*SimulationRecord, 0)
	for rows.Next() {
		r := &SimulationRecord{}
		var created string
		var seed int64
		if err := rows.Scan(&r.ID, &created, &r.Games, &seed, &r.Legacy, &r.WinX, &r.WinO, &r.Tie); err != nil {
			return nil, errors.Wrap(err, "failed to scan simulation")
		}
		r.Seed = uint64(seed)
		if r.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
			return nil, errors.Wrapf(err, "invalid created_at on simulation %s", r.ID)
		}
		list = append(list, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate simulations")
	}
	return list, nil
}
