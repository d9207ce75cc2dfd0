package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/spinor-lang/spinor/internal/ast"
)

// Section names, compiled in this order so later sections can reference
// earlier declarations.
var sections = []string{"constants", "symbols", "matrices", "hamiltonians", "measurements", "experiments"}

// CompileFile compiles one CUE document file to an AST program.
func CompileFile(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	return Compile(string(src))
}

// Compile compiles CUE source to an AST program.
func Compile(src string) (*ast.Program, error) {
	v := cuecontext.New().CompileString(src)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileValue(v)
}

// CompileValue compiles an already-built CUE value. A top-level "program"
// struct is unwrapped when present.
func CompileValue(v cue.Value) (*ast.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if p := v.LookupPath(cue.ParsePath("program")); p.Exists() {
		v = p
	}

	prog := &ast.Program{}
	for _, section := range sections {
		sec := v.LookupPath(cue.ParsePath(section))
		if !sec.Exists() {
			continue
		}
		var err error
		switch section {
		case "constants":
			err = compileConstants(sec, prog)
		case "symbols":
			err = compileSymbols(sec, prog)
		case "matrices":
			err = compileMatrices(sec, prog)
		case "hamiltonians":
			err = compileHamiltonians(sec, prog)
		case "measurements":
			err = compileMeasurements(sec, prog)
		case "experiments":
			err = compileExperiments(sec, prog)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(prog.Statements) == 0 {
		return nil, fieldErr(v, "program", "document declares nothing")
	}
	return prog, nil
}

func compileConstants(v cue.Value, prog *ast.Program) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		f, err := iter.Value().Float64()
		if err != nil {
			return formatCUEError(err)
		}
		prog.Statements = append(prog.Statements, ast.Statement{
			Kind: ast.StmtConst, Name: iter.Label(), Value: f,
		})
	}
	return nil
}

func compileSymbols(v cue.Value, prog *ast.Program) error {
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return formatCUEError(err)
		}
		prog.Statements = append(prog.Statements, ast.Statement{
			Kind: ast.StmtSymbol, Name: name,
		})
	}
	return nil
}

func compileMatrices(v cue.Value, prog *ast.Program) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		lit, err := parseMatrixLit(iter.Value())
		if err != nil {
			return err
		}
		prog.Statements = append(prog.Statements, ast.Statement{
			Kind: ast.StmtMatrix, Name: iter.Label(), Matrix: lit,
		})
	}
	return nil
}

func compileHamiltonians(v cue.Value, prog *ast.Program) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		expr, err := parseExpr(iter.Value())
		if err != nil {
			return err
		}
		prog.Statements = append(prog.Statements, ast.Statement{
			Kind: ast.StmtHamiltonian, Name: iter.Label(), Expr: expr,
		})
	}
	return nil
}

func compileMeasurements(v cue.Value, prog *ast.Program) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		spec, err := parseMeasurement(iter.Value())
		if err != nil {
			return err
		}
		prog.Statements = append(prog.Statements, ast.Statement{
			Kind: ast.StmtMeasurement, Name: iter.Label(), Measurement: spec,
		})
	}
	return nil
}

// parseMeasurement accepts exactly one of observable, projectors, effects.
func parseMeasurement(v cue.Value) (*ast.MeasurementSpec, error) {
	obs := v.LookupPath(cue.ParsePath("observable"))
	proj := v.LookupPath(cue.ParsePath("projectors"))
	eff := v.LookupPath(cue.ParsePath("effects"))

	set := 0
	for _, f := range []cue.Value{obs, proj, eff} {
		if f.Exists() {
			set++
		}
	}
	if set != 1 {
		return nil, fieldErr(v, "measurement",
			"need exactly one of observable, projectors, effects")
	}

	switch {
	case obs.Exists():
		expr, err := parseExpr(obs)
		if err != nil {
			return nil, err
		}
		return &ast.MeasurementSpec{Kind: ast.MeasureObservable, Observable: expr}, nil
	case proj.Exists():
		lits, err := parseMatrixLitList(proj)
		if err != nil {
			return nil, err
		}
		return &ast.MeasurementSpec{Kind: ast.MeasureProjective, Projectors: lits}, nil
	default:
		lits, err := parseMatrixLitList(eff)
		if err != nil {
			return nil, err
		}
		return &ast.MeasurementSpec{Kind: ast.MeasurePOVM, Effects: lits}, nil
	}
}

func parseMatrixLitList(v cue.Value) ([]*ast.MatrixLit, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var lits []*ast.MatrixLit
	for iter.Next() {
		lit, err := parseMatrixLit(iter.Value())
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
	}
	return lits, nil
}

func compileExperiments(v cue.Value, prog *ast.Program) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		body, err := parseExperiment(iter.Value())
		if err != nil {
			return err
		}
		prog.Statements = append(prog.Statements, ast.Statement{
			Kind: ast.StmtExperiment, Name: iter.Label(), Experiment: body,
		})
	}
	return nil
}

func parseExperiment(v cue.Value) (*ast.ExperimentBody, error) {
	body := &ast.ExperimentBody{}

	init := v.LookupPath(cue.ParsePath("init"))
	if !init.Exists() {
		return nil, fieldErr(v, "experiment", "init is required")
	}
	state, err := parseStateSpec(init)
	if err != nil {
		return nil, err
	}
	body.Init = state

	if ev := v.LookupPath(cue.ParsePath("evolution")); ev.Exists() {
		body.Evolution, err = parseEvolution(ev)
		if err != nil {
			return nil, err
		}
	}

	if ms := v.LookupPath(cue.ParsePath("measure")); ms.Exists() {
		iter, err := ms.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			ev := iter.Value()
			t, err := ev.LookupPath(cue.ParsePath("time")).Float64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			name, err := ev.LookupPath(cue.ParsePath("measurement")).String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			body.Measurements = append(body.Measurements, ast.MeasurementEvent{
				Time: t, Measurement: name,
			})
		}
	}
	return body, nil
}

func parseStateSpec(v cue.Value) (*ast.StateSpec, error) {
	ket := v.LookupPath(cue.ParsePath("ket"))
	rho := v.LookupPath(cue.ParsePath("rho"))
	switch {
	case ket.Exists() == rho.Exists():
		return nil, fieldErr(v, "init", "need exactly one of ket, rho")
	case ket.Exists():
		lit, err := parseVectorLit(ket)
		if err != nil {
			return nil, err
		}
		return &ast.StateSpec{Ket: lit}, nil
	default:
		lit, err := parseMatrixLit(rho)
		if err != nil {
			return nil, err
		}
		return &ast.StateSpec{Rho: lit}, nil
	}
}

func parseEvolution(v cue.Value) (*ast.EvolutionSpec, error) {
	spec := &ast.EvolutionSpec{}

	ham, err := v.LookupPath(cue.ParsePath("hamiltonian")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Hamiltonian = ham

	grid := v.LookupPath(cue.ParsePath("grid"))
	times := v.LookupPath(cue.ParsePath("times"))
	switch {
	case grid.Exists() == times.Exists():
		return nil, fieldErr(v, "evolution", "need exactly one of grid, times")
	case grid.Exists():
		t0, err := grid.LookupPath(cue.ParsePath("t0")).Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		dt, err := grid.LookupPath(cue.ParsePath("dt")).Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		steps, err := grid.LookupPath(cue.ParsePath("steps")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Grid = ast.TimeGrid{T0: t0, Dt: dt, NSteps: int(steps)}
	default:
		iter, err := times.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			t, err := iter.Value().Float64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.Grid.Explicit = append(spec.Grid.Explicit, t)
		}
	}

	if lb := v.LookupPath(cue.ParsePath("lindblad")); lb.Exists() {
		iter, err := lb.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			term := iter.Value()
			op, err := term.LookupPath(cue.ParsePath("operator")).String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			rate, err := parseExpr(term.LookupPath(cue.ParsePath("rate")))
			if err != nil {
				return nil, err
			}
			spec.Lindblad = append(spec.Lindblad, ast.LindbladTerm{Operator: op, Rate: rate})
		}
	}
	return spec, nil
}
