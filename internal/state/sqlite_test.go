package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapyear/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// clock returns a deterministic time source advancing one second per call.
func clock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestSQLiteStore_OpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())
	assert.Equal(t, path, store.Path())

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	run, err := store.StartRun("page-1", 2026)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()
	require.NoError(t, reopened.Migrate())

	got, err := reopened.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "page-1", got.ContainerID)
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)
	store.now = clock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))

	run, err := store.StartRun("page-1", 2026)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, core.RunStatusRunning, run.Status)

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StartedAt, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, 2026, got.Year)

	require.NoError(t, store.CompleteRun(run.ID, core.RunStatusPartial, ""))

	got, err = store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusPartial, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.After(got.StartedAt))
}

func TestSQLiteStore_RunNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = store.CompleteRun("missing", core.RunStatusCompleted, "")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	store.now = clock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))

	var ids []string
	for _, year := range []int{2025, 2026, 2027} {
		run, err := store.StartRun("page-1", year)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID, "most recent first")
	assert.Equal(t, ids[0], runs[2].ID)

	runs, err = store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteStore_Phases(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.StartRun("page-1", 2026)
	require.NoError(t, err)

	require.NoError(t, store.RecordPhase(run.ID, core.PhaseResult{Number: 2, Name: "Wire relations", Created: 3, Errors: 1}))
	require.NoError(t, store.RecordPhase(run.ID, core.PhaseResult{Number: 1, Name: "Create tables", Skipped: 10, AlreadyComplete: true}))
	require.NoError(t, store.RecordPhase(run.ID, core.PhaseResult{Number: 4, Name: "Seed rows", Err: core.ErrEntityNotFound}))

	phases, err := store.ListPhases(run.ID)
	require.NoError(t, err)
	require.Len(t, phases, 3)

	assert.Equal(t, 1, phases[0].Number)
	assert.True(t, phases[0].AlreadyComplete)
	assert.Equal(t, 10, phases[0].Skipped)

	assert.Equal(t, 2, phases[1].Number)
	assert.Equal(t, 3, phases[1].Created)
	assert.Equal(t, 1, phases[1].Errors)
	assert.False(t, phases[1].AlreadyComplete)

	assert.Equal(t, "entity not found", phases[2].Error)

	// Re-recording replaces the tally.
	require.NoError(t, store.RecordPhase(run.ID, core.PhaseResult{Number: 2, Name: "Wire relations", Created: 4}))
	phases, err = store.ListPhases(run.ID)
	require.NoError(t, err)
	require.Len(t, phases, 3)
	assert.Equal(t, 4, phases[1].Created)
	assert.Equal(t, 0, phases[1].Errors)
}

func TestSQLiteStore_FailuresAndTables(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.StartRun("page-1", 2026)
	require.NoError(t, err)

	require.NoError(t, store.RecordFailure(core.ItemFailure{RunID: run.ID, Phase: 2, Index: 3, Label: "b", Error: "boom"}))
	require.NoError(t, store.RecordFailure(core.ItemFailure{RunID: run.ID, Phase: 1, Index: 7, Label: "a", Error: "bang"}))

	failures, err := store.ListFailures(run.ID)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "a", failures[0].Label)
	assert.Equal(t, 7, failures[0].Index)
	assert.Equal(t, "b", failures[1].Label)

	require.NoError(t, store.RecordTables(run.ID, []core.EnvEntry{
		{Key: "WEEKS", TableID: "t-2"},
		{Key: "MONTHS", TableID: "t-1"},
	}))
	env, err := store.ListTables(run.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.EnvEntry{{Key: "MONTHS", TableID: "t-1"}, {Key: "WEEKS", TableID: "t-2"}}, env)

	other, err := store.ListTables("other-run")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteStore_ForeignKeys(t *testing.T) {
	store := setupTestStore(t)

	err := store.RecordFailure(core.ItemFailure{RunID: "no-such-run", Phase: 1, Label: "x", Error: "y"})
	assert.Error(t, err)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.StartRun("page", 2026)
	assert.EqualError(t, err, "database not opened")
	assert.EqualError(t, store.CompleteRun("id", core.RunStatusCompleted, ""), "database not opened")
	assert.EqualError(t, store.RecordPhase("id", core.PhaseResult{}), "database not opened")
	assert.EqualError(t, store.RecordFailure(core.ItemFailure{}), "database not opened")
	assert.EqualError(t, store.RecordTables("id", nil), "database not opened")
	assert.EqualError(t, store.Migrate(), "database not opened")

	_, err = store.ListRuns(1)
	assert.Error(t, err)
	_, err = store.GetRun("id")
	assert.Error(t, err)
	_, err = store.ListPhases("id")
	assert.Error(t, err)
	_, err = store.ListFailures("id")
	assert.Error(t, err)
	_, err = store.ListTables("id")
	assert.Error(t, err)

	assert.NoError(t, store.Close())
}

func TestSQLiteStore_DriverErrors(t *testing.T) {
	boom := errors.New("disk I/O error")

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		call      func(s *SQLiteStore) error
		wantErr   string
	}{
		{
			name: "start run insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO runs").WillReturnError(boom)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.StartRun("page", 2026)
				return err
			},
			wantErr: "failed to create run",
		},
		{
			name: "complete run affects nothing",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE runs").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			call: func(s *SQLiteStore) error {
				return s.CompleteRun("gone", core.RunStatusCompleted, "")
			},
			wantErr: "run not found: gone",
		},
		{
			name: "record tables rolls back on insert failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare("INSERT OR REPLACE INTO run_tables")
				prep.ExpectExec().WithArgs("run", "MONTHS", "t-1").WillReturnResult(sqlmock.NewResult(1, 1))
				prep.ExpectExec().WithArgs("run", "WEEKS", "t-2").WillReturnError(boom)
				mock.ExpectRollback()
			},
			call: func(s *SQLiteStore) error {
				return s.RecordTables("run", []core.EnvEntry{{Key: "MONTHS", TableID: "t-1"}, {Key: "WEEKS", TableID: "t-2"}})
			},
			wantErr: "failed to record table WEEKS",
		},
		{
			name: "list runs query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM runs").WillReturnError(boom)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListRuns(5)
				return err
			},
			wantErr: "failed to list runs",
		},
		{
			name: "get run with corrupt timestamp",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "container_id", "year", "status", "started_at", "completed_at", "error"}).
					AddRow("r1", "page", 2026, "running", "yesterday", nil, "")
				mock.ExpectQuery("SELECT (.+) FROM runs WHERE id").WithArgs("r1").WillReturnRows(rows)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.GetRun("r1")
				return err
			},
			wantErr: "failed to parse timestamp",
		},
		{
			name: "record phase stores phase error text",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT OR REPLACE INTO phases").
					WithArgs("run", 4, "Seed", 0, 0, 0, 0, "entity not found").
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			call: func(s *SQLiteStore) error {
				return s.RecordPhase("run", core.PhaseResult{Number: 4, Name: "Seed", Err: core.ErrEntityNotFound})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setupMock(mock)
			store := NewSQLiteStoreWithDB(db, nil)

			err = tt.call(store)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
