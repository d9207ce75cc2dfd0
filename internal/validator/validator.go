package validator

import (
	"fmt"
	"math"

	"github.com/spinor-lang/spinor/internal/ast"
	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/linalg"
	"github.com/spinor-lang/spinor/internal/shape"
)

// Tolerance is the numeric tolerance for all validation checks.
const Tolerance = 1e-10

// Results records what was proven about each declaration.
type Results struct {
	Hermitian map[string]bool    `json:"hermitian"`
	PSD       map[string]bool    `json:"psd"`
	Traces    map[string]float64 `json:"traces"`
}

// ValidatedProgram is the typed program plus its validation record. Produced
// once per program, immutable afterwards, consumed exactly once by lowering.
type ValidatedProgram struct {
	Typed   *shape.TypedProgram
	Results Results
}

// Validator walks a typed program and proves or rejects quantum
// well-formedness declaration by declaration.
type Validator struct {
	constants map[string]float64
	matrices  map[string]linalg.Matrix
}

// New returns a validator seeded with the predefined operator basis.
func New() *Validator {
	return &Validator{
		constants: map[string]float64{},
		matrices:  linalg.Basis(),
	}
}

// Matrix returns the concrete matrix recorded for a declared name.
func (v *Validator) Matrix(name string) (linalg.Matrix, bool) {
	m, ok := v.matrices[ir.CanonicalName(name)]
	return m, ok
}

// Validate checks every declaration in source order and stops at the first
// violation.
func (v *Validator) Validate(typed *shape.TypedProgram) (*ValidatedProgram, error) {
	results := Results{
		Hermitian: map[string]bool{},
		PSD:       map[string]bool{},
		Traces:    map[string]float64{},
	}

	for i := range typed.Program.Statements {
		stmt := &typed.Program.Statements[i]
		name := ir.CanonicalName(stmt.Name)
		switch stmt.Kind {
		case ast.StmtConst:
			v.constants[name] = stmt.Value

		case ast.StmtMatrix:
			m, err := v.evalMatrixLit(name, stmt.Matrix)
			if err != nil {
				return nil, err
			}
			v.matrices[name] = m

		case ast.StmtHamiltonian:
			m, err := v.evalToMatrix(name, stmt.Expr)
			if err != nil {
				return nil, err
			}
			if err := v.checkHermitian(name, m); err != nil {
				return nil, err
			}
			results.Hermitian[name] = true
			v.matrices[name] = m

		case ast.StmtMeasurement:
			if err := v.validateMeasurement(name, stmt.Measurement, &results); err != nil {
				return nil, err
			}

		case ast.StmtExperiment:
			if err := v.validateExperiment(name, stmt.Experiment, &results); err != nil {
				return nil, err
			}
		}
	}

	return &ValidatedProgram{Typed: typed, Results: results}, nil
}

func (v *Validator) validateMeasurement(name string, spec *ast.MeasurementSpec, results *Results) error {
	switch spec.Kind {
	case ast.MeasureProjective:
		mats := make([]linalg.Matrix, 0, len(spec.Projectors))
		for i, lit := range spec.Projectors {
			label := fmt.Sprintf("%s[%d]", name, i)
			p, err := v.evalMatrixLit(label, lit)
			if err != nil {
				return err
			}
			if err := v.checkHermitian(label, p); err != nil {
				return err
			}
			if err := checkIdempotent(label, p); err != nil {
				return err
			}
			mats = append(mats, p)
		}
		return checkCompleteness(name, mats)

	case ast.MeasurePOVM:
		mats := make([]linalg.Matrix, 0, len(spec.Effects))
		for i, lit := range spec.Effects {
			label := fmt.Sprintf("%s[%d]", name, i)
			e, err := v.evalMatrixLit(label, lit)
			if err != nil {
				return err
			}
			if err := v.checkPSD(label, e, results); err != nil {
				return err
			}
			mats = append(mats, e)
		}
		return checkCompleteness(name, mats)

	case ast.MeasureObservable:
		o, err := v.evalToMatrix(name, spec.Observable)
		if err != nil {
			return err
		}
		if err := v.checkHermitian(name, o); err != nil {
			return err
		}
		results.Hermitian[name] = true
		v.matrices[name] = o
		return nil

	default:
		return &Error{Code: CodeUnevaluable, Name: name,
			Message: fmt.Sprintf("unknown measurement kind %q", spec.Kind)}
	}
}

func (v *Validator) validateExperiment(name string, body *ast.ExperimentBody, results *Results) error {
	if body.Init == nil {
		return nil // shape checker rejects this already
	}
	switch {
	case body.Init.Ket != nil:
		ket, err := v.evalVectorLit(name, body.Init.Ket)
		if err != nil {
			return err
		}
		norm2 := ket.Norm2()
		if math.Abs(norm2-1) > Tolerance {
			return &Error{Code: CodeNotNormalized, Name: name,
				Message: "initial ket is not normalized", Deviation: norm2}
		}
	case body.Init.Rho != nil:
		rho, err := v.evalMatrixLit(name, body.Init.Rho)
		if err != nil {
			return err
		}
		if err := v.checkHermitian(name, rho); err != nil {
			return err
		}
		if err := v.checkPSD(name, rho, results); err != nil {
			return err
		}
		tr, err := linalg.Trace(rho)
		if err != nil {
			return wrapLinalg(name, err)
		}
		if math.Abs(real(tr)-1) > Tolerance {
			return &Error{Code: CodeTrace, Name: name,
				Message: "density matrix trace must be 1", Deviation: real(tr)}
		}
		results.Hermitian[name] = true
		results.Traces[name] = real(tr)
	}
	return nil
}

// checkHermitian verifies max |M[i,j] - conj(M[j,i])| <= Tolerance.
func (v *Validator) checkHermitian(name string, m linalg.Matrix) error {
	dev := linalg.HermitianDeviation(m)
	if dev > Tolerance {
		return &Error{Code: CodeNotHermitian, Name: name,
			Message: "matrix is not Hermitian", Deviation: dev}
	}
	return nil
}

// checkPSD verifies all eigenvalues >= -Tolerance. Hermiticity is a
// precondition: the Hermitian eigensolver is meaningless otherwise, so a
// non-Hermitian input fails the Hermiticity check first.
func (v *Validator) checkPSD(name string, m linalg.Matrix, results *Results) error {
	if err := v.checkHermitian(name, m); err != nil {
		return err
	}
	eigs, _, err := linalg.EigH(m)
	if err != nil {
		return wrapLinalg(name, err)
	}
	min := math.Inf(1)
	for _, l := range eigs {
		if l < min {
			min = l
		}
	}
	if min < -Tolerance {
		return &Error{Code: CodeNotPSD, Name: name,
			Message: "matrix is not positive semi-definite", Deviation: min}
	}
	results.PSD[name] = true
	return nil
}

// checkIdempotent verifies ||P² - P||∞ <= Tolerance.
func checkIdempotent(name string, p linalg.Matrix) error {
	p2, err := p.Mul(p)
	if err != nil {
		return wrapLinalg(name, err)
	}
	diff, err := p2.Sub(p)
	if err != nil {
		return wrapLinalg(name, err)
	}
	if dev := diff.MaxAbs(); dev > Tolerance {
		return &Error{Code: CodeNotIdempotent, Name: name,
			Message: "projector is not idempotent", Deviation: dev}
	}
	return nil
}

// checkCompleteness verifies the operator set sums to the identity of its
// dimension.
func checkCompleteness(name string, mats []linalg.Matrix) error {
	if len(mats) == 0 {
		return nil
	}
	sum := linalg.NewMatrix(mats[0].Rows, mats[0].Cols)
	for _, m := range mats {
		var err error
		sum, err = sum.Add(m)
		if err != nil {
			return wrapLinalg(name, err)
		}
	}
	diff, err := sum.Sub(linalg.Identity(sum.Rows))
	if err != nil {
		return wrapLinalg(name, err)
	}
	if dev := diff.MaxAbs(); dev > Tolerance {
		return &Error{Code: CodeIncomplete, Name: name,
			Message: "operator set does not sum to identity", Deviation: dev}
	}
	return nil
}

func wrapLinalg(name string, err error) error {
	var de *linalg.DecompositionError
	if ok := asErr(err, &de); ok {
		return &Error{Code: CodeDecomposition, Name: name, Message: de.Error()}
	}
	return fmt.Errorf("%s: %w", name, err)
}
