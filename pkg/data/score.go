package data

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	insertScoreSQL = `INSERT INTO score (id, created_at, run_id, input, output) VALUES (?, ?, ?, ?, ?)`

	selectScoresSQL = `SELECT id, created_at, COALESCE(run_id, ''), input, output
		FROM score
		ORDER BY created_at DESC
		LIMIT ?`
)

// ScoreRecord is one scored input and the output written for it.
type ScoreRecord struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"createdAt"`
	RunID     string    `json:"run_id,omitempty" yaml:"runId,omitempty"`
	Input     string    `json:"input" yaml:"input"`
	Output    string    `json:"output" yaml:"output"`
}

func SaveScore(db *sql.DB, s *ScoreRecord) error {
	if db == nil {
		return errDBNotInitialized
	}
	if s == nil || s.Input == "" || s.Output == "" {
		return errors.New("score input and output required")
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	var runID sql.NullString
	if s.RunID != "" {
		runID = sql.NullString{String: s.RunID, Valid: true}
	}

	if _, err := db.Exec(insertScoreSQL, s.ID, s.CreatedAt.Format(timeFormat), runID, s.Input, s.Output); err != nil {
		return errors.Wrapf(err, "failed to insert score %s", s.ID)
	}
	return nil
}

func GetScores(db *sql.DB, limit int) ([]*ScoreRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectScoresSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query scores")
	}
	defer rows.Close()

	list := make([]*ScoreRecord, 0)
	for rows.Next() {
		s := &ScoreRecord{}
		var created string
		if err := rows.Scan(&s.ID, &created, &s.RunID, &s.Input, &s.Output); err != nil {
			return nil, errors.Wrap(err, "failed to scan score")
		}
		if s.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
			return nil, errors.Wrapf(err, "invalid created_at on score %s", s.ID)
		}
		list = append(list, s)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate scores")
	}
	return list, nil
}
