package data

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/ordermix/pkg/feature"
	"github.com/mchmarny/ordermix/pkg/model"
	"github.com/pkg/errors"
)

const (
	insertTrainingRunSQL = `INSERT INTO training_run (
			id, created_at, source, total_rows, train_rows, test_rows,
			scaling, classes, priors, errors, model
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectTrainingRunsSQL = `SELECT
			id, created_at, source, total_rows, train_rows, test_rows,
			scaling, classes, priors, errors
		FROM training_run
		ORDER BY created_at DESC
		LIMIT ?`

	selectLatestModelSQL = `SELECT
			id, created_at, source, total_rows, train_rows, test_rows,
			scaling, classes, priors, errors, model
		FROM training_run
		ORDER BY created_at DESC
		LIMIT 1`
)

// TrainingRun records one completed training invocation.
type TrainingRun struct {
	ID        string                `json:"id" yaml:"id"`
	CreatedAt time.Time             `json:"created_at" yaml:"createdAt"`
	Source    string                `json:"source" yaml:"source"`
	TotalRows int                   `json:"total_rows" yaml:"totalRows"`
	TrainRows int                   `json:"train_rows" yaml:"trainRows"`
	TestRows  int                   `json:"test_rows" yaml:"testRows"`
	Scaling   feature.ScalingSpec   `json:"scaling" yaml:"scaling"`
	Classes   []string              `json:"classes" yaml:"classes"`
	Priors    []float64             `json:"priors" yaml:"priors"`
	Errors    []model.CategoryError `json:"errors" yaml:"errors"`
	Model     []byte                `json:"-" yaml:"-"`
}

// SaveTrainingRun persists run, assigning its ID and creation time when unset.
func SaveTrainingRun(db *sql.DB, run *TrainingRun) error {
	if db == nil {
		return errDBNotInitialized
	}
	if run == nil {
		return errors.New("training run required")
	}
	if len(run.Model) == 0 {
		return errors.New("training run has no model")
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	scaling, err := json.Marshal(run.Scaling)
	if err != nil {
		return errors.Wrap(err, "failed to marshal scaling")
	}
	classes, err := json.Marshal(run.Classes)
	if err != nil {
		return errors.Wrap(err, "failed to marshal classes")
	}
	priors, err := json.Marshal(run.Priors)
	if err != nil {
		return errors.Wrap(err, "failed to marshal priors")
	}
	maes, err := json.Marshal(run.Errors)
	if err != nil {
		return errors.Wrap(err, "failed to marshal errors")
	}

	if _, err := db.Exec(insertTrainingRunSQL,
		run.ID, run.CreatedAt.Format(timeFormat), run.Source,
		run.TotalRows, run.TrainRows, run.TestRows,
		string(scaling), string(classes), string(priors), string(maes), run.Model,
	); err != nil {
		return errors.Wrapf(err, "failed to insert training run %s", run.ID)
	}

	return nil
}

// GetTrainingRuns returns up to limit runs, newest first, without model bytes.
func GetTrainingRuns(db *sql.DB, limit int) ([]*TrainingRun, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectTrainingRunsSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query training runs")
	}
	defer rows.Close()

	list := make([]*TrainingRun, 0)
	for rows.Next() {
		r, err := scanTrainingRun(rows, false)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate training runs")
	}

	return list, nil
}

// GetLatestTrainingRun returns the newest run including its model bytes,
// or nil when nothing has been trained yet.
func GetLatestTrainingRun(db *sql.DB) (*TrainingRun, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	r, err := scanTrainingRun(db.QueryRow(selectLatestModelSQL), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrainingRun(s scanner, withModel bool) (*TrainingRun, error) {
	r := &TrainingRun{}
	var created, scaling, classes, priors, maes string

	dest := []any{
		&r.ID, &created, &r.Source, &r.TotalRows, &r.TrainRows, &r.TestRows,
		&scaling, &classes, &priors, &maes,
	}
	if withModel {
		dest = append(dest, &r.Model)
	}

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan training run")
	}

	var err error
	if r.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return nil, errors.Wrapf(err, "invalid created_at on run %s", r.ID)
	}
	if err := json.Unmarshal([]byte(scaling), &r.Scaling); err != nil {
		return nil, errors.Wrapf(err, "invalid scaling on run %s", r.ID)
	}
	if err := json.Unmarshal([]byte(classes), &r.Classes); err != nil {
		return nil, errors.Wrapf(err, "invalid classes on run %s", r.ID)
	}
	if err := json.Unmarshal([]byte(priors), &r.Priors); err != nil {
		return nil, errors.Wrapf(err, "invalid priors on run %s", r.ID)
	}
	if err := json.Unmarshal([]byte(maes), &r.Errors); err != nil {
		return nil, errors.Wrapf(err, "invalid errors on run %s", r.ID)
	}

	return r, nil
}
