package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/quill/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure (expectation, assertion or golden mismatch)
	ExitCommandError = 2 // Command error (invalid paths, bad config, unreadable scenario)
)

// Error codes reported in CLIError.Code. A domain error surfacing from a
// command (CONFLICT, NOT_FOUND, INVALID_REFERENCE) is reported under its own
// code instead.
const (
	CodeConfig          = "E_CONFIG"
	CodeUsage           = "E_USAGE"
	CodeScenarioInvalid = "E_SCENARIO_INVALID"
	CodeScenarioFailed  = "E_SCENARIO_FAILED"
	CodeTestFailed      = "E_TEST_FAILED"
	CodeExecution       = "E_EXECUTION"
)

// ExitError carries the process exit code and the CLIError code of a failed
// command.
type ExitError struct {
	Code    int    // Exit code (ExitFailure or ExitCommandError)
	Reason  string // CLIError code, e.g. CodeConfig
	Message string
	Details any   // Payload reported with the error in JSON mode
	Err     error // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without an underlying cause.
func NewExitError(code int, reason, message string) *ExitError {
	return &ExitError{Code: code, Reason: reason, Message: message}
}

// WrapExitError wraps err with an exit code and reason.
func WrapExitError(code int, reason, message string, err error) *ExitError {
	return &ExitError{Code: code, Reason: reason, Message: message, Err: err}
}

// executionError wraps a failure of the store, bus or harness. A domain
// error keeps its own code.
func executionError(message string, err error) *ExitError {
	reason := CodeExecution
	if code := model.CodeOf(err); code != "" {
		reason = string(code)
	}
	return WrapExitError(ExitCommandError, reason, message, err)
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// reportedError marks an error an OutputFormatter already wrote.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// IsReported reports whether err was already written by the command, so
// main must not print it again.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// OutputFormatter writes command results and failures as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostics and text-mode errors (defaults to Writer)
	Verbose   bool
}

// newOutputFormatter builds a formatter on the command's streams.
func newOutputFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`              // CodeConfig, CodeScenarioFailed, CONFLICT, ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // run output, test summary, ...
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format. Text goes to ErrWriter so
// it never interleaves with a trace on Writer.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// Fail reports a command error and returns it marked as reported, keeping
// its exit code. A nil err is returned unchanged.
func (f *OutputFormatter) Fail(err error) error {
	if err == nil {
		return nil
	}

	reason, details := CodeExecution, any(nil)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		reason, details = exitErr.Reason, exitErr.Details
	}
	// Text mode already printed the details (trace, summary) on Writer.
	if f.Format != "json" {
		details = nil
	}

	if werr := f.Error(reason, err.Error(), details); werr != nil {
		return errors.Join(err, werr)
	}
	return reportedError{err}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// It writes to ErrWriter so JSON output on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
