package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/quill/internal/harness"
	"github.com/roach88/quill/internal/model"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// SeqIDs switches from UUIDv7 ids to id-1, id-2, ...
	SeqIDs bool

	// IDGenerator allows overriding the id generator (for testing).
	IDGenerator model.IDGenerator
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Trace    []harness.TraceEntry `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario and print its trace",
		Long: `Execute one YAML scenario against the configured store and print
every step result and every event delivered to its subscriptions.

The database, log and bus settings come from --config. Without a config
file the store is in-memory.

Exit codes:
  0 - Scenario passed
  1 - An expectation or assertion failed
  2 - Command error (unreadable scenario, bad config, etc.)

Examples:
  quill run ./scenarios/lifecycle.yaml
  quill run ./scenarios/lifecycle.yaml --seq-ids --format json
  quill run --config ./quill.yaml ./scenarios/lifecycle.yaml -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutputFormatter(opts.RootOptions, cmd)
			return out.Fail(runScenarioFile(opts, args[0], cmd, out))
		},
	}

	cmd.Flags().BoolVar(&opts.SeqIDs, "seq-ids", false, "use sequential ids (id-1, id-2, ...) instead of UUIDv7")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command, out *OutputFormatter) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr(), opts.Verbose)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, CodeScenarioInvalid, "failed to load scenario", err)
	}

	ids := opts.IDGenerator
	if ids == nil {
		if opts.SeqIDs {
			ids = model.NewSequenceGenerator("id")
		} else {
			ids = model.UUIDGenerator{}
		}
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running scenario", "scenario", scenario.Name, "db", cfg.Database)
	result, err := harness.Run(ctx, scenario,
		harness.WithDSN(cfg.Database),
		harness.WithIDGenerator(ids),
		harness.WithLogger(logger),
		harness.WithBusOptions(cfg.BusOptions()...),
	)
	if err != nil {
		return executionError("scenario execution failed", err)
	}
	logger.Info("scenario finished", "scenario", scenario.Name, "pass", result.Pass)

	output := RunOutput{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Trace:    result.Trace,
		Errors:   result.Errors,
	}
	switch {
	case opts.Format != "json":
		writeRunText(out, scenario.Name, result)
	case result.Pass:
		return out.Success(output)
	}
	if result.Pass {
		return nil
	}

	// JSON mode reports the run output as the error details.
	return &ExitError{
		Code:    ExitFailure,
		Reason:  CodeScenarioFailed,
		Message: fmt.Sprintf("scenario %s failed: %d check(s) failed", scenario.Name, len(result.Errors)),
		Details: output,
	}
}

func writeRunText(out *OutputFormatter, name string, result *harness.Result) {
	w := out.Writer
	fmt.Fprint(w, result.Render())
	fmt.Fprintln(w)

	if !result.Pass {
		fmt.Fprintf(w, "✗ %s\n", name)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	fmt.Fprintf(w, "✓ %s\n", name)
}
