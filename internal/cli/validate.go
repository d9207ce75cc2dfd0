package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spinor-lang/spinor/internal/ast"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationResult is the validate command's success payload.
type ValidationResult struct {
	Valid        bool `json:"valid"`
	Hamiltonians int  `json:"hamiltonians"`
	Measurements int  `json:"measurements"`
	Experiments  int  `json:"experiments"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <program.cue>",
		Short: "Check a CUE program against physical constraints",
		Long: `Parse and shape-check a CUE experiment document, then verify the
physical constraints: Hermitian Hamiltonians and observables, normalized
initial states, projector idempotence and completeness, PSD effects.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateCmd(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidateCmd(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("validating %s", path)

	prog, err := compileProgram(path)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	if _, err := checkProgram(prog); err != nil {
		return outputPipelineError(formatter, err)
	}

	result := &ValidationResult{Valid: true}
	for _, stmt := range prog.Statements {
		switch stmt.Kind {
		case ast.StmtHamiltonian:
			result.Hamiltonians++
		case ast.StmtMeasurement:
			result.Measurements++
		case ast.StmtExperiment:
			result.Experiments++
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Valid: %d hamiltonian(s), %d measurement(s), %d experiment(s)\n",
		result.Hamiltonians, result.Measurements, result.Experiments)
	return nil
}
