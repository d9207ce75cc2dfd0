package cli

import (
	"errors"

	"github.com/spinor-lang/spinor/internal/ast"
	"github.com/spinor-lang/spinor/internal/compiler"
	"github.com/spinor-lang/spinor/internal/executor"
	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/lowering"
	"github.com/spinor-lang/spinor/internal/optimizer"
	"github.com/spinor-lang/spinor/internal/shape"
	"github.com/spinor-lang/spinor/internal/validator"
)

// Generic error code for failures outside the staged pipeline.
const errCodeGeneric = "GENERIC"

// compileProgram parses a CUE document into the surface AST and folds
// constants.
func compileProgram(path string) (*ast.Program, error) {
	prog, err := compiler.CompileFile(path)
	if err != nil {
		return nil, err
	}
	return optimizer.New().Optimize(prog), nil
}

// checkProgram runs shape checking and physical validation.
func checkProgram(prog *ast.Program) (*validator.ValidatedProgram, error) {
	typed, err := shape.NewChecker().Check(prog)
	if err != nil {
		return nil, err
	}
	return validator.New().Validate(typed)
}

// buildIR takes a CUE document all the way to a verified node arena.
func buildIR(path string) (*ir.Program, error) {
	prog, err := compileProgram(path)
	if err != nil {
		return nil, err
	}
	validated, err := checkProgram(prog)
	if err != nil {
		return nil, err
	}
	return lowering.New().Lower(validated)
}

// errorCode maps a pipeline error to the code reported in CLI output.
// Each stage carries its own typed error; anything else is generic.
func errorCode(err error) string {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return "COMPILE"
	}
	var shapeErr *shape.Error
	if errors.As(err, &shapeErr) {
		return shapeErr.Code
	}
	var valErr *validator.Error
	if errors.As(err, &valErr) {
		return string(valErr.Code)
	}
	var lowErr *lowering.Error
	if errors.As(err, &lowErr) {
		return string(lowErr.Code)
	}
	var execErr *executor.Error
	if errors.As(err, &execErr) {
		return string(execErr.Code)
	}
	return errCodeGeneric
}
