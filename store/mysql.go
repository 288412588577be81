package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gilad-rubin/hypergraph-sub004/engine"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLSink persists step records to MySQL/MariaDB with an append-only
// schema, one row per step.
type MySQLSink struct {
	db *sql.DB
}

// NewMySQLSink opens a MySQL connection pool at dsn and ensures its
// step-record table exists. Never hardcode credentials; read dsn from
// configuration.
func NewMySQLSink(dsn string) (*MySQLSink, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	s := &MySQLSink{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLSink) createTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			node_name VARCHAR(255) NOT NULL,
			superstep_index INT NOT NULL,
			status INT NOT NULL,
			consumed_input_versions JSON NOT NULL,
			produced_output_versions JSON NOT NULL,
			partial_outputs JSON NOT NULL,
			error TEXT NOT NULL,
			child_run_id VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_run_id (run_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`)
	if err != nil {
		return fmt.Errorf("create run_steps table: %w", err)
	}
	return nil
}

func (s *MySQLSink) Record(ctx context.Context, rec engine.StepRecord) error {
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
		consumed, produced, outputs, rec.Error, rec.ChildRunID)
	if err != nil {
		return fmt.Errorf("insert run_step: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *MySQLSink) Close() error { return s.db.Close() }
