package state

import (
	"fmt"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

// RecordPhase stores the tally of one phase. Recording the same phase twice
// replaces the earlier tally.
func (s *SQLiteStore) RecordPhase(runID string, result core.PhaseResult) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errMsg string
	if result.Err != nil {
		errMsg = result.Err.Error()
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO phases (run_id, number, name, created, skipped, errors, already_complete, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.Number, result.Name, result.Created, result.Skipped, result.Errors,
		boolToInt(result.AlreadyComplete), errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to record phase %d: %w", result.Number, err)
	}
	return nil
}

// ListPhases returns the phases of a run in pipeline order.
func (s *SQLiteStore) ListPhases(runID string) ([]core.PhaseRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT run_id, number, name, created, skipped, errors, already_complete, error
		 FROM phases WHERE run_id = ? ORDER BY number`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	defer rows.Close()

	var phases []core.PhaseRecord
	for rows.Next() {
		var (
			p        core.PhaseRecord
			complete int
		)
		if err := rows.Scan(&p.RunID, &p.Number, &p.Name, &p.Created, &p.Skipped, &p.Errors, &complete, &p.Error); err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		p.AlreadyComplete = complete != 0
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	return phases, nil
}

// RecordFailure stores one per-item error.
func (s *SQLiteStore) RecordFailure(f core.ItemFailure) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO item_failures (run_id, phase, item_index, label, error) VALUES (?, ?, ?, ?, ?)`,
		f.RunID, f.Phase, f.Index, f.Label, f.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

// ListFailures returns the item errors of a run ordered by phase and item.
func (s *SQLiteStore) ListFailures(runID string) ([]core.ItemFailure, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT run_id, phase, item_index, label, error
		 FROM item_failures WHERE run_id = ? ORDER BY phase, item_index, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	defer rows.Close()

	var failures []core.ItemFailure
	for rows.Next() {
		var f core.ItemFailure
		if err := rows.Scan(&f.RunID, &f.Phase, &f.Index, &f.Label, &f.Error); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	return failures, nil
}

// RecordTables stores the key to table id mapping a run found or created.
func (s *SQLiteStore) RecordTables(runID string, env []core.EnvEntry) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO run_tables (run_id, key, table_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range env {
		if _, err := stmt.Exec(runID, e.Key, e.TableID); err != nil {
			return fmt.Errorf("failed to record table %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tables: %w", err)
	}
	return nil
}

// ListTables returns the tables recorded for a run, sorted by key.
func (s *SQLiteStore) ListTables(runID string) ([]core.EnvEntry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT key, table_id FROM run_tables WHERE run_id = ? ORDER BY key`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var env []core.EnvEntry
	for rows.Next() {
		var e core.EnvEntry
		if err := rows.Scan(&e.Key, &e.TableID); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		env = append(env, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return env, nil
}
