package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spinor-lang/spinor/internal/executor"
	"github.com/spinor-lang/spinor/internal/ir"
)

// ErrNotFound is returned when a program or run does not exist.
var ErrNotFound = errors.New("not found")

// ProgramInfo summarizes a stored program without its node arena.
type ProgramInfo struct {
	Hash      string `json:"hash"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// RunRecord is a stored execution: the configuration it ran under and the
// full result payload.
type RunRecord struct {
	ID          string                   `json:"id"`
	ProgramHash string                   `json:"program_hash"`
	Config      executor.BackendConfig   `json:"config"`
	Result      executor.ExecutionResult `json:"result"`
	CreatedAt   string                   `json:"created_at"`
}

// LoadProgram returns the program stored under the given content hash.
// Returns ErrNotFound if no such program exists.
func (s *Store) LoadProgram(ctx context.Context, hash string) (*ir.Program, error) {
	var irJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT ir FROM programs WHERE hash = ?
	`, hash).Scan(&irJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load program %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}

	var prog ir.Program
	if err := json.Unmarshal([]byte(irJSON), &prog); err != nil {
		return nil, fmt.Errorf("load program: unmarshal: %w", err)
	}

	// A row that fails structural verification is corrupt, not absent.
	if err := prog.Verify(); err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}

	return &prog, nil
}

// ListPrograms returns metadata for all stored programs, newest first.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListPrograms(ctx context.Context) ([]ProgramInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, name, created_at
		FROM programs
		ORDER BY created_at DESC, hash ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	programs := []ProgramInfo{}
	for rows.Next() {
		var info ProgramInfo
		if err := rows.Scan(&info.Hash, &info.Name, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("list programs: scan: %w", err)
		}
		programs = append(programs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list programs: iterate: %w", err)
	}

	return programs, nil
}

// LoadRun returns the run with the given ID.
// Returns ErrNotFound if no such run exists.
func (s *Store) LoadRun(ctx context.Context, id string) (*RunRecord, error) {
	var (
		rec        RunRecord
		configJSON string
		resultJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, program_hash, config, result, created_at
		FROM runs WHERE id = ?
	`, id).Scan(&rec.ID, &rec.ProgramHash, &configJSON, &resultJSON, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &rec.Config); err != nil {
		return nil, fmt.Errorf("load run: unmarshal config: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, fmt.Errorf("load run: unmarshal result: %w", err)
	}

	return &rec, nil
}

// ListRuns returns all runs recorded for a program, oldest first.
// Returns an empty slice (not nil) when the program has no runs.
func (s *Store) ListRuns(ctx context.Context, programHash string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program_hash, config, result, created_at
		FROM runs
		WHERE program_hash = ?
		ORDER BY created_at ASC, id ASC
	`, programHash)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var (
			rec        RunRecord
			configJSON string
			resultJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.ProgramHash, &configJSON, &resultJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(configJSON), &rec.Config); err != nil {
			return nil, fmt.Errorf("list runs: unmarshal config: %w", err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
			return nil, fmt.Errorf("list runs: unmarshal result: %w", err)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: iterate: %w", err)
	}

	return runs, nil
}
