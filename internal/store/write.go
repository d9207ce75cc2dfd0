package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/spinor-lang/spinor/internal/executor"
	"github.com/spinor-lang/spinor/internal/ir"
)

// SaveProgram inserts a lowered program keyed by its content hash and
// returns the hash. Uses ON CONFLICT(hash) DO NOTHING for idempotency -
// saving an identical program twice keeps the first row.
func (s *Store) SaveProgram(ctx context.Context, name string, prog *ir.Program) (string, error) {
	hash, err := ir.ProgramHash(prog)
	if err != nil {
		return "", fmt.Errorf("save program: %w", err)
	}

	irJSON, err := json.Marshal(prog)
	if err != nil {
		return "", fmt.Errorf("save program: marshal: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO programs (hash, name, ir)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, name, string(irJSON))
	if err != nil {
		return "", fmt.Errorf("save program: %w", err)
	}

	return hash, nil
}

// SaveRun inserts an execution record for a previously saved program and
// returns the generated run ID. The program referenced by programHash must
// exist (foreign key constraint).
func (s *Store) SaveRun(ctx context.Context, programHash string, config executor.BackendConfig, result *executor.ExecutionResult) (string, error) {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("save run: marshal config: %w", err)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("save run: marshal result: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, program_hash, config, result)
		VALUES (?, ?, ?, ?)
	`, id, programHash, string(configJSON), string(resultJSON))
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}

	return id, nil
}
