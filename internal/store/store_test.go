package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spinor-lang/spinor/internal/executor"
	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/linalg"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "spinor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// testProgram builds a small valid arena: sigma_z, a ket, and one
// expectation-free experiment over them.
func testProgram(t *testing.T) *ir.Program {
	t.Helper()
	sz := linalg.SigmaZ()
	prog := &ir.Program{}
	h := prog.Append(ir.Node{Op: ir.OpLoadMatrix, Name: "sigma_z", Matrix: &sz})
	init := prog.Append(ir.Node{Op: ir.OpLoadVector, Name: "e/init_ket", Vector: linalg.Vector{1, 0}})
	prog.Experiments = []ir.Experiment{{
		Name:         "e",
		InitialState: init,
		Measurements: []ir.Measurement{{
			TimeIndex:  0,
			Kind:       ir.MeasureExpectation,
			Observable: h,
		}},
	}}
	require.NoError(t, prog.Verify())
	return prog
}

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spinor.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	require.NoError(t, err, "database file was not created")
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spinor.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestSaveLoadProgramRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	prog := testProgram(t)

	hash, err := s.SaveProgram(ctx, "rabi", prog)
	require.NoError(t, err)

	wantHash, err := ir.ProgramHash(prog)
	require.NoError(t, err)
	require.Equal(t, wantHash, hash)

	loaded, err := s.LoadProgram(ctx, hash)
	require.NoError(t, err)

	// Content-addressed identity survives the round trip.
	gotHash, err := ir.ProgramHash(loaded)
	require.NoError(t, err)
	require.Equal(t, hash, gotHash)
	require.Equal(t, prog.Experiments, loaded.Experiments)
}

func TestSaveProgramIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	prog := testProgram(t)

	h1, err := s.SaveProgram(ctx, "first", prog)
	require.NoError(t, err)
	h2, err := s.SaveProgram(ctx, "second", prog)
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	programs, err := s.ListPrograms(ctx)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	// First insert wins on conflict.
	require.Equal(t, "first", programs[0].Name)
}

func TestLoadProgramNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadProgram(context.Background(), "no-such-hash")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	hash, err := s.SaveProgram(ctx, "rabi", testProgram(t))
	require.NoError(t, err)

	config := executor.DefaultConfig()
	result := &executor.ExecutionResult{
		Experiments: []executor.ExperimentResult{{
			Name:      "e",
			Times:     []float64{0},
			StateType: executor.DensityMatrix,
			Measurements: []executor.MeasurementResult{{
				Time:        0,
				Kind:        ir.MeasureExpectation,
				Expectation: &linalg.Complex{Re: 1},
			}},
			FinalState: linalg.KetToRho(linalg.Vector{1, 0}),
		}},
	}

	id, err := s.SaveRun(ctx, hash, config, result)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.LoadRun(ctx, id)
	require.NoError(t, err)
	require.Equal(t, hash, rec.ProgramHash)
	require.Equal(t, config, rec.Config)
	require.Equal(t, *result, rec.Result)
	require.NotEmpty(t, rec.CreatedAt)
}

func TestSaveRunRequiresProgram(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveRun(context.Background(), "missing", executor.DefaultConfig(), &executor.ExecutionResult{})
	require.Error(t, err, "foreign key violation expected")
}

func TestLoadRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadRun(context.Background(), "no-such-run")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	hash, err := s.SaveProgram(ctx, "rabi", testProgram(t))
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, hash)
	require.NoError(t, err)
	require.Empty(t, runs)
	require.NotNil(t, runs)

	id1, err := s.SaveRun(ctx, hash, executor.DefaultConfig(), &executor.ExecutionResult{})
	require.NoError(t, err)
	id2, err := s.SaveRun(ctx, hash, executor.DefaultConfig(), &executor.ExecutionResult{})
	require.NoError(t, err)

	runs, err = s.ListRuns(ctx, hash)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	got := []string{runs[0].ID, runs[1].ID}
	require.ElementsMatch(t, []string{id1, id2}, got)
}
