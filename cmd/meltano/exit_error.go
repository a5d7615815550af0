// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// ExitInvocationFailed is the status of `meltano invoke` when it fails before
// a plugin was launched. Like env(1), it stays clear of the codes a shell
// uses for commands it could not run.
const ExitInvocationFailed = 125

// ExitError carries a non-zero exit code out of a RunE handler. A nil Err
// means the status came from the plugin, which already reported on its own
// streams.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
