package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/config"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/oracle"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation or failed scenario (unauthorized, already initialized)
	ExitCommandError = 2 // Command error (bad config, unreachable backend, not initialized)
)

// Error codes carried in CLIResponse.Error.Code.
const (
	ErrCodeUnauthorized       = "E_UNAUTHORIZED"
	ErrCodeNotInitialized     = "E_NOT_INITIALIZED"
	ErrCodeAlreadyInitialized = "E_ALREADY_INITIALIZED"
	ErrCodeInvalidIdentity    = "E_INVALID_IDENTITY"
	ErrCodeStore              = "E_STORE"
	ErrCodeConfig             = "E_CONFIG"
	ErrCodeScenario           = "E_SCENARIO"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written through an
	// OutputFormatter, so main does not print it a second time.
	Reported bool
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

// IsReported reports whether err was already written to the user.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// Classify maps an error to its response code and exit code.
func Classify(err error) (string, int) {
	var cfgErr *config.Error
	switch {
	case oracle.IsUnauthorized(err):
		return ErrCodeUnauthorized, ExitFailure
	case oracle.IsAlreadyInitialized(err):
		return ErrCodeAlreadyInitialized, ExitFailure
	case oracle.IsNotInitialized(err):
		return ErrCodeNotInitialized, ExitCommandError
	case oracle.IsInvalidIdentity(err):
		return ErrCodeInvalidIdentity, ExitCommandError
	case errors.As(err, &cfgErr):
		return ErrCodeConfig, ExitCommandError
	default:
		return ErrCodeStore, ExitCommandError
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // optional trace correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E_UNAUTHORIZED", "E_STORE", etc.
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

// Fail classifies err, writes it through the formatter and returns the
// matching ExitError.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := Classify(err)
	_ = f.Error(code, err.Error(), nil)
	e := WrapExitError(exit, message, err)
	e.Reported = true
	return e
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
