// Package cli implements the specd command line: running contract
// scenarios, compiling the specification document, and linting emitted
// documents.
//
// Exit codes: 0 when every scenario passed and compilation succeeded, 1
// when any scenario failed, 2 on a fatal compile-time error (duplicate
// registrations, unresolved or cyclic references, malformed contract
// files).
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getspecd/specd/pkg/logging"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitFail  = 1
	ExitFatal = 2
)

// ExitError carries an explicit process exit code up to Execute.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// fatal wraps a compile-time error with exit code 2.
func fatal(err error) error {
	return &ExitError{Code: ExitFatal, Err: err}
}

// NewRoot builds the specd command tree.
func NewRoot(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "specd",
		Short:         "Contract-test an HTTP API and compile its OpenAPI document",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newCompileCmd())
	root.AddCommand(newLintCmd())
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(version string) int {
	root := NewRoot(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return ExitFatal
	}
	return ExitOK
}

// loggerFrom builds the logger configured by the persistent flags.
func loggerFrom(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(level),
		Format: logging.ParseFormat(format),
	})
}
