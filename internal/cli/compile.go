package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Database string // optional SQLite path for persistence
}

// CompilationResult is the compile command's success payload.
type CompilationResult struct {
	Hash        string      `json:"hash"`
	Nodes       int         `json:"nodes"`
	Experiments int         `json:"experiments"`
	Program     *ir.Program `json:"program"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program.cue>",
		Short: "Compile a CUE program to the node arena",
		Long: `Compile a CUE experiment document through the full front half of the
pipeline: parse, constant folding, shape checking, physical validation and
lowering. The result is the verified node arena in JSON form.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for persistence")

	return cmd
}

func runCompileCmd(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("compiling %s", path)

	prog, err := buildIR(path)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	hash, err := ir.ProgramHash(prog)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	result := &CompilationResult{
		Hash:        hash,
		Nodes:       len(prog.Nodes),
		Experiments: len(prog.Experiments),
		Program:     prog,
	}

	if opts.Output != "" {
		if err := writeIRToFile(prog, opts.Output); err != nil {
			_ = formatter.Error(errCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	if opts.Database != "" {
		if err := saveProgram(opts.Database, path, prog); err != nil {
			_ = formatter.Error(errCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "persisting program", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d node(s), %d experiment(s)\n", result.Nodes, result.Experiments)
	fmt.Fprintf(formatter.Writer, "  hash: %s\n", result.Hash)
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "  wrote arena to %s\n", outputFile)
	}
	return nil
}

// outputPipelineError reports a staged pipeline failure and maps it to an
// exit code: compile/shape/validation failures are data errors (exit 1).
func outputPipelineError(formatter *OutputFormatter, err error) error {
	code := errorCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, err.Error()), nil)
}

// saveProgram persists the lowered program to the store.
func saveProgram(dbPath, name string, prog *ir.Program) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	_, err = st.SaveProgram(context.Background(), name, prog)
	return err
}

// writeIRToFile writes the arena to a file as indented JSON.
func writeIRToFile(prog *ir.Program, filename string) error {
	data, err := json.MarshalIndent(prog, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling arena: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
