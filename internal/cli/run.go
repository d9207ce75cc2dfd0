package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spinor-lang/spinor/internal/executor"
	"github.com/spinor-lang/spinor/internal/ir"
	"github.com/spinor-lang/spinor/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config   string // YAML run configuration
	Database string // optional SQLite path for persistence
}

// RunOutput is the run command's success payload.
type RunOutput struct {
	Hash   string                    `json:"hash"`
	RunID  string                    `json:"run_id,omitempty"`
	Result *executor.ExecutionResult `json:"result"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program.cue>",
		Short: "Compile and execute a CUE program",
		Long: `Compile a CUE experiment document to the node arena and execute it on
the configured backend, evolving each experiment's state and evaluating its
scheduled measurements.

With --db, the lowered program and the run results are persisted to a
SQLite database (created if it doesn't exist).

Example:
  spinor run rabi.cue
  spinor run rabi.cue --config backend.yaml --db ./spinor.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "YAML run configuration file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for persistence")

	return cmd
}

func runRunCmd(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Configure logging based on verbose flag. Logs go to stderr so JSON
	// output stays parseable.
	logLevel := slog.LevelInfo
	if !opts.Verbose {
		logLevel = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	config, err := loadRunConfig(opts.Config)
	if err != nil {
		_ = formatter.Error(errCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading run configuration", err)
	}

	prog, err := buildIR(path)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	hash, err := ir.ProgramHash(prog)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	exec, err := executor.New(config)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	result, err := exec.Execute(prog)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	output := &RunOutput{Hash: hash, Result: result}

	if opts.Database != "" {
		runID, err := persistRun(opts.Database, path, prog, config, result)
		if err != nil {
			_ = formatter.Error(errCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "persisting run", err)
		}
		output.RunID = runID
	}

	return outputRunSuccess(formatter, output)
}

// persistRun saves the program and its run to the store, returning the run ID.
func persistRun(dbPath, name string, prog *ir.Program, config executor.BackendConfig, result *executor.ExecutionResult) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := context.Background()
	hash, err := st.SaveProgram(ctx, name, prog)
	if err != nil {
		return "", err
	}
	return st.SaveRun(ctx, hash, config, result)
}

func outputRunSuccess(formatter *OutputFormatter, output *RunOutput) error {
	if formatter.Format == "json" {
		return formatter.Success(output)
	}

	for _, exp := range output.Result.Experiments {
		fmt.Fprintf(formatter.Writer, "experiment %s (%s, %d time point(s))\n",
			exp.Name, exp.StateType, len(exp.Times))
		for _, m := range exp.Measurements {
			switch {
			case m.Expectation != nil:
				fmt.Fprintf(formatter.Writer, "  t=%-8g expectation = %g\n", m.Time, m.Expectation.Re)
			default:
				fmt.Fprintf(formatter.Writer, "  t=%-8g %s probabilities = %v\n", m.Time, m.Kind, m.Probabilities)
			}
		}
	}
	fmt.Fprintf(formatter.Writer, "hash: %s\n", output.Hash)
	if output.RunID != "" {
		fmt.Fprintf(formatter.Writer, "run:  %s\n", output.RunID)
	}
	return nil
}
