package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gilad-rubin/hypergraph-sub004/engine"
	"github.com/gilad-rubin/hypergraph-sub004/node"

	_ "modernc.org/sqlite"
)

// SQLiteSink persists step records to a single-file SQLite database in WAL
// mode, one row per write.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if necessary) a SQLite database at path and
// ensures its step-record table exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &SQLiteSink{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) createTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			node_name TEXT NOT NULL,
			superstep_index INTEGER NOT NULL,
			status INTEGER NOT NULL,
			consumed_input_versions TEXT NOT NULL,
			produced_output_versions TEXT NOT NULL,
			partial_outputs TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			child_run_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create run_steps table: %w", err)
	}
	_, err = s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_run_steps_run_id ON run_steps(run_id)")
	if err != nil {
		return fmt.Errorf("create run_steps index: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Record(ctx context.Context, rec engine.StepRecord) error {
	consumed, err := json.Marshal(rec.ConsumedInputVersions)
	if err != nil {
		return fmt.Errorf("marshal consumed versions: %w", err)
	}
	produced, err := json.Marshal(rec.ProducedOutputVersions)
	if err != nil {
		return fmt.Errorf("marshal produced versions: %w", err)
	}
	outputs, err := json.Marshal(rec.PartialOutputs)
	if err != nil {
		return fmt.Errorf("marshal partial outputs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_steps
			(run_id, node_name, superstep_index, status, consumed_input_versions,
			 produced_output_versions, partial_outputs, error, child_run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.NodeName, rec.SuperstepIndex, int(rec.Status),
		string(consumed), string(produced), string(outputs), rec.Error, rec.ChildRunID)
	if err != nil {
		return fmt.Errorf("insert run_step: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// SQLiteCheckpointStore persists run checkpoints (value-store snapshot plus
// pending interrupt responses) to the same kind of single-file database,
// letting a paused run resume in a later process.
type SQLiteCheckpointStore struct {
	db *sql.DB
}

// NewSQLiteCheckpointStore opens (creating if necessary) a SQLite database
// at path and ensures its checkpoint table exists.
func NewSQLiteCheckpointStore(path string) (*SQLiteCheckpointStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	cs := &SQLiteCheckpointStore{db: db}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_checkpoints (
			run_id TEXT PRIMARY KEY,
			step INTEGER NOT NULL,
			values_json TEXT NOT NULL,
			responses_json TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create run_checkpoints table: %w", err)
	}
	return cs, nil
}

func (cs *SQLiteCheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	values, err := json.Marshal(cp.Values)
	if err != nil {
		return fmt.Errorf("marshal checkpoint values: %w", err)
	}
	responses, err := json.Marshal(cp.Responses)
	if err != nil {
		return fmt.Errorf("marshal checkpoint responses: %w", err)
	}
	_, err = cs.db.ExecContext(ctx, `
		INSERT INTO run_checkpoints (run_id, step, values_json, responses_json, timestamp)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			step = excluded.step,
			values_json = excluded.values_json,
			responses_json = excluded.responses_json,
			timestamp = excluded.timestamp
	`, cp.RunID, cp.Step, string(values), string(responses), cp.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (cs *SQLiteCheckpointStore) Load(ctx context.Context, runID string) (Checkpoint, error) {
	var (
		cp           Checkpoint
		valuesJSON   string
		responseJSON string
		timestampStr string
	)
	err := cs.db.QueryRowContext(ctx, `
		SELECT run_id, step, values_json, responses_json, timestamp
		FROM run_checkpoints WHERE run_id = ?
	`, runID).Scan(&cp.RunID, &cp.Step, &valuesJSON, &responseJSON, &timestampStr)
	if err == sql.ErrNoRows {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	cp.Values = node.Values{}
	if err := json.Unmarshal([]byte(valuesJSON), &cp.Values); err != nil {
		return Checkpoint{}, fmt.Errorf("unmarshal checkpoint values: %w", err)
	}
	cp.Responses = map[string]any{}
	if err := json.Unmarshal([]byte(responseJSON), &cp.Responses); err != nil {
		return Checkpoint{}, fmt.Errorf("unmarshal checkpoint responses: %w", err)
	}
	cp.Timestamp, err = time.Parse(time.RFC3339Nano, timestampStr)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("parse checkpoint timestamp: %w", err)
	}
	return cp, nil
}

// Close closes the underlying database connection.
func (cs *SQLiteCheckpointStore) Close() error { return cs.db.Close() }
