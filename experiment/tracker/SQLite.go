package tracker

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	created_at   TEXT NOT NULL,
	config_json  TEXT
);

CREATE TABLE IF NOT EXISTS episodes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	step         INTEGER NOT NULL,
	slot         INTEGER NOT NULL,
	return       REAL NOT NULL,
	length       INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS losses (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	step         INTEGER NOT NULL,
	name         TEXT NOT NULL,
	value        REAL NOT NULL,
	episodes     INTEGER NOT NULL,
	mean_return  REAL NOT NULL,
	used         INTEGER NOT NULL,
	wasted       INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// LossRecord is a loss reported during a run, as stored by a SQLite
// Tracker
type LossRecord struct {
	Step       int
	Name       string
	Value      float64
	Episodes   int
	MeanReturn float64
	Used       int
	Wasted     int
}

// SQLite tracks the episodes and losses of a run in a SQLite database.
// Every run gets its own identifier, so many runs can share one
// database. Data is written as it is tracked.
type SQLite struct {
	db    *sql.DB
	runID string

	returns []float64
	lengths []int
}

// NewSQLite opens the SQLite database at path, creating it if needed,
// and registers a new run with the given configuration. Use ":memory:"
// for a database which only lives as long as the Tracker.
func NewSQLite(path string, config interface{}) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("newSQLite: open db: %v", err)
	}

	// An in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("newSQLite: pragma fk: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("newSQLite: migrate: %v", err)
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("newSQLite: marshal config: %v", err)
	}

	runID := uuid.New().String()
	_, err = db.Exec(
		`INSERT INTO runs (run_id, created_at, config_json) VALUES (?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano), string(configJSON),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("newSQLite: insert run: %v", err)
	}

	return &SQLite{db: db, runID: runID}, nil
}

// RunID returns the identifier of the tracked run
func (s *SQLite) RunID() string {
	return s.runID
}

// Track records the episodes which ended and the loss reported at a
// step
func (s *SQLite) Track(step Step) error {
	if len(step.Rewards) != len(step.Done) {
		return fmt.Errorf("track: %d rewards but %d done flags",
			len(step.Rewards), len(step.Done))
	}
	if s.returns == nil {
		s.returns = make([]float64, len(step.Rewards))
		s.lengths = make([]int, len(step.Rewards))
	} else if len(s.returns) != len(step.Rewards) {
		return fmt.Errorf("track: number of slots changed from %d to %d",
			len(s.returns), len(step.Rewards))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("track: begin tx: %v", err)
	}
	defer tx.Rollback()

	for slot, reward := range step.Rewards {
		s.returns[slot] += reward
		s.lengths[slot]++
		if !step.Done[slot] {
			continue
		}

		_, err := tx.Exec(
			`INSERT INTO episodes (run_id, step, slot, return, length)
			 VALUES (?, ?, ?, ?, ?)`,
			s.runID, step.Number, slot, s.returns[slot], s.lengths[slot],
		)
		if err != nil {
			return fmt.Errorf("track: insert episode: %v", err)
		}
		s.returns[slot] = 0
		s.lengths[slot] = 0
	}

	if !step.Loss.IsZero() {
		loss := step.Loss
		_, err := tx.Exec(
			`INSERT INTO losses (run_id, step, name, value, episodes,
			 mean_return, used, wasted) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, step.Number, loss.Name, loss.Value,
			len(loss.Metrics.Episodes), loss.Metrics.MeanReturn(),
			loss.Metrics.Gradient.Used, loss.Metrics.Gradient.Wasted,
		)
		if err != nil {
			return fmt.Errorf("track: insert loss: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("track: commit: %v", err)
	}
	return nil
}

// Save implements the Tracker interface. Data is written as it is
// tracked, so Save has nothing left to write.
func (s *SQLite) Save() error {
	return nil
}

// Returns returns the returns of the run's episodes in the order they
// ended
func (s *SQLite) Returns() ([]float64, error) {
	rows, err := s.db.Query(
		`SELECT return FROM episodes WHERE run_id = ? ORDER BY id`, s.runID)
	if err != nil {
		return nil, fmt.Errorf("returns: %v", err)
	}
	defer rows.Close()

	var returns []float64
	for rows.Next() {
		var r float64
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("returns: scan: %v", err)
		}
		returns = append(returns, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("returns: %v", err)
	}
	return returns, nil
}

// Losses returns the losses reported during the run in the order they
// were tracked
func (s *SQLite) Losses() ([]LossRecord, error) {
	rows, err := s.db.Query(
		`SELECT step, name, value, episodes, mean_return, used, wasted
		 FROM losses WHERE run_id = ? ORDER BY id`, s.runID)
	if err != nil {
		return nil, fmt.Errorf("losses: %v", err)
	}
	defer rows.Close()

	var losses []LossRecord
	for rows.Next() {
		var l LossRecord
		err := rows.Scan(&l.Step, &l.Name, &l.Value, &l.Episodes,
			&l.MeanReturn, &l.Used, &l.Wasted)
		if err != nil {
			return nil, fmt.Errorf("losses: scan: %v", err)
		}
		losses = append(losses, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("losses: %v", err)
	}
	return losses, nil
}

// Close closes the underlying database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}
