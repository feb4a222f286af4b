package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// StartRun journals the start of a pipeline run.
func (s *SQLiteStore) StartRun(containerID string, year int) (*core.RunRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.RunRecord{
		ID:          generateID(),
		ContainerID: containerID,
		Year:        year,
		Status:      core.RunStatusRunning,
		StartedAt:   s.now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, container_id, year, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ContainerID, run.Year, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Debug("run started", "run_id", run.ID, "year", year)
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(runID string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), formatTime(s.now()), errMsg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *SQLiteStore) GetRun(id string) (*core.RunRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, container_id, year, status, started_at, completed_at, error FROM runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *SQLiteStore) ListRuns(limit int) ([]core.RunRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT id, container_id, year, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []core.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*core.RunRecord, error) {
	var (
		run       core.RunRecord
		status    string
		started   string
		completed sql.NullString
	)
	if err := row.Scan(&run.ID, &run.ContainerID, &run.Year, &status, &started, &completed, &run.Error); err != nil {
		return nil, err
	}
	run.Status = core.RunStatus(status)

	t, err := parseTime(started)
	if err != nil {
		return nil, err
	}
	run.StartedAt = t

	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &t
	}
	return &run, nil
}
