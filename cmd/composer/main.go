package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitRenderError     = 2
	ExitValidationError = 3
	ExitOutputError     = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	var cErr *CommandError
	if errors.As(err, &cErr) {
		if a.logger != nil {
			a.logger.Error("command failed",
				"error", cErr.Err,
				"operation", cErr.Op,
			)
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", cErr.Op, cErr.Err)
		}
		return cErr.ExitCode
	}

	// Usage errors: unknown flags, wrong argument counts.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitConfigError
}

// =============================================================================
// Errors
// =============================================================================

// CommandError represents a failed command step and the exit code it maps to.
type CommandError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
