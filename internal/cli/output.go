package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/ir"
	"github.com/roach88/lineage/internal/project"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query answered "no" (a path is not an output)
	ExitCommandError = 2 // Command error (invalid path, unknown revision, unreadable history)
)

// Error codes reported in JSON error responses.
const (
	CodeInvalidPath      = "INVALID_PATH"
	CodeRevisionNotFound = "REVISION_NOT_FOUND"
	CodeHistory          = "HISTORY_UNAVAILABLE"
	CodeDescriptor       = "INVALID_DESCRIPTOR"
	CodeCanceled         = "CANCELED"
	CodeInternal         = "INTERNAL"
)

// ExitError represents an error with a specific exit code.
// An empty Message with no Err exits silently.
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
// Returns ExitSuccess for nil and ExitCommandError for errors that are not
// an ExitError (flag parsing, unknown commands).
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// ErrorCode classifies err for JSON error responses.
func ErrorCode(err error) string {
	var ipe *project.InvalidPathError
	var de *ir.DescriptorError
	switch {
	case errors.As(err, &ipe):
		return CodeInvalidPath
	case history.IsRevisionNotFound(err):
		return CodeRevisionNotFound
	case history.IsUnavailable(err):
		return CodeHistory
	case errors.As(err, &de):
		return CodeDescriptor
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	default:
		return CodeInternal
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success outputs a result. Text output prints lines one per line; JSON
// output wraps data in a CLIResponse.
func (f *OutputFormatter) Success(data any, lines []string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(f.Writer, line); err != nil {
			return err
		}
	}
	return nil
}

// Fail reports err and returns it. In JSON mode the error is also written
// as a CLIResponse so consumers always receive one document; text mode
// leaves reporting to the caller of Execute.
func (f *OutputFormatter) Fail(err *ExitError) error {
	if f.Format == "json" && err.Message != "" {
		resp := CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: ErrorCode(err), Message: err.Error()},
		}
		if encErr := json.NewEncoder(f.Writer).Encode(resp); encErr != nil {
			return encErr
		}
	}
	return err
}
