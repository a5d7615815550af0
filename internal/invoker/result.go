// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status in the range 0-255.
	ExitCode int

	// InvalidExitCodeError is returned for statuses outside 0-255, such as
	// the -1 reported for a child killed by a signal.
	InvalidExitCodeError struct {
		Value ExitCode
	}

	// Result is the outcome of one process run. A non-zero ExitCode is a
	// normal result; Error is set only when the status could not be
	// determined.
	Result struct {
		ExitCode ExitCode
		// Output and ErrOutput are set when the invocation captured output.
		Output    string
		ErrOutput string
		Error     error
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the code is outside 0-255.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports whether the code is zero.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal form of the code.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// resultFromWait converts the error returned by exec.Cmd.Wait.
func resultFromWait(err error) *Result {
	if err == nil {
		return &Result{}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := ExitCode(exitErr.ExitCode())
		if verr := code.Validate(); verr != nil {
			return &Result{ExitCode: 1, Error: fmt.Errorf("%w: %w", verr, err)}
		}
		return &Result{ExitCode: code}
	}
	return &Result{ExitCode: 1, Error: err}
}
