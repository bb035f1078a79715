package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/acme/bookkeeper/internal/engine"
	"github.com/acme/bookkeeper/internal/entity"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitOperationErr = 1 // Operation failure (validation, not found, conflict)
	ExitCommandError = 2 // Command error (bad flags, unreadable paths, broken database)
)

// ExitError carries a specific exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitOperationErr for errors that are not ExitErrors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitOperationErr
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON envelope for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"` // engine error code: VALIDATION, NOT_FOUND, ...
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
	Key     string `json:"key,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Record outputs a single record in the configured format.
func (f *OutputFormatter) Record(rec entity.Record) error {
	if f.Format == "json" {
		return f.Success(rec.Plain())
	}
	out, err := entity.MarshalCanonical(rec)
	if err != nil {
		return err
	}
	fmt.Fprintln(f.Writer, string(out))
	return nil
}

// Records outputs a list of records in the configured format.
func (f *OutputFormatter) Records(records []entity.Record) error {
	if f.Format == "json" {
		plain := make([]map[string]any, len(records))
		for i, rec := range records {
			plain[i] = rec.Plain()
		}
		return f.Success(plain)
	}
	for _, rec := range records {
		out, err := entity.MarshalCanonical(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(f.Writer, string(out))
	}
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(e *CLIError) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "error", Error: e})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", e.Code, e.Message)
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Goes to ErrWriter so JSON output stays uncorrupted.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// operationError renders an engine failure and maps it to exit code 1.
// Non-operation errors (broken database, bad paths) get exit code 2.
func operationError(f *OutputFormatter, err error) error {
	var oe *engine.OperationError
	if errors.As(err, &oe) {
		_ = f.Error(&CLIError{
			Code:    string(oe.Code),
			Message: oe.Message,
			Entity:  oe.Entity,
			Key:     oe.Key,
		})
		code := ExitOperationErr
		if oe.Code == engine.CodeConnection || oe.Code == engine.CodeSchema || oe.Code == engine.CodeStorage {
			code = ExitCommandError
		}
		return WrapExitError(code, string(oe.Code), err)
	}
	_ = f.Error(&CLIError{Code: "ERROR", Message: err.Error()})
	return WrapExitError(ExitCommandError, "command failed", err)
}
