package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failed, scenarios failed, input invalid
	ExitCommandError = 2 // Command error (missing files, unreachable store, etc.)
)

// Error codes for command-level failures. Query failures use the engine's
// error codes instead (LEX_ERROR, INVALID_QUERY_TYPE, ...).
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path not found
	ErrCodeLoadFailed   = "E003" // Store, fixture or scenario could not be loaded
	ErrCodeWriteFailed  = "E004" // Store or golden file write error
	ErrCodeBadArgument  = "E005" // Flag or argument combination is invalid
	ErrCodeExpression   = "E101" // Logical expression is malformed
	ErrCodePattern      = "E102" // Pattern cannot be decoded
	ErrCodeCompile      = "E103" // Pattern decodes but cannot be compiled
	ErrCodeScenario     = "E104" // Scenario file is invalid
	ErrCodeFixture      = "E105" // Fixture file is invalid
	ErrCodeTestFailed   = "E201" // One or more scenarios failed
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "LEX_ERROR", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Result renders a query result. A failed result is written as an error
// and returned as an ExitError so the process exits non-zero.
func (f *OutputFormatter) Result(result engine.MatchResult) error {
	if f.Verbose {
		if digest, err := ir.ResultDigest(result.Canonical()); err == nil {
			f.VerboseLog("result digest: %s", digest)
		}
	}

	if qe := result.Err; qe != nil {
		var details any
		if qe.Position != nil {
			details = map[string]int{"error_index": *qe.Position}
		}
		if err := f.Error(string(qe.Code), qe.Message, details); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "query failed", qe)
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintln(f.Writer, describeIDs(result))
	return nil
}

func describeIDs(result engine.MatchResult) string {
	if len(result.IDs) == 0 {
		return "no matching variants"
	}
	parts := make([]string, len(result.IDs))
	for i, id := range result.IDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	noun := "variants"
	if len(parts) == 1 {
		noun = "variant"
	}
	return fmt.Sprintf("%d matching %s: %s", len(parts), noun, strings.Join(parts, ", "))
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting
// JSON output.
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
