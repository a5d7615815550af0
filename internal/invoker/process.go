// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"meltano-cli/pkg/platform"
)

// ErrLaunch is the sentinel error wrapped by LaunchError.
var ErrLaunch = errors.New("failed to launch plugin")

type (
	// Launcher starts processes. The invoker never calls os/exec directly,
	// so tests can observe launches without spawning anything.
	Launcher interface {
		Launch(ctx context.Context, spec LaunchSpec) (Process, error)
	}

	// LaunchSpec describes one process.
	LaunchSpec struct {
		Argv []string
		// Env is the complete environment in "KEY=VALUE" form.
		Env    []string
		Dir    string
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Process is a started child.
	Process interface {
		Pid() int
		// Wait blocks until the child exits. It is safe to call more than
		// once; later calls return the first result.
		Wait() *Result
		Kill() error
	}

	// LaunchError reports a spawn failure such as a missing executable or a
	// permission error. Nothing ran.
	LaunchError struct {
		Argv0 string
		Err   error
	}

	// ExecLauncher launches processes with os/exec.
	ExecLauncher struct {
		// Sandbox wraps the argv so the child runs on the host when the CLI
		// itself runs inside Flatpak or Snap.
		Sandbox platform.SandboxType
	}

	execProcess struct {
		cmd      *exec.Cmd
		captured *capturedOutput
		once     sync.Once
		result   *Result
	}

	capturedOutput struct {
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Argv0, e.Err)
}

// Unwrap returns ErrLaunch so callers can use errors.Is for programmatic detection.
func (e *LaunchError) Unwrap() error { return ErrLaunch }

// Cause returns the underlying OS error.
func (e *LaunchError) Cause() error { return e.Err }

// NewExecLauncher returns a launcher for the current sandbox.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{Sandbox: platform.DetectSandbox()}
}

// Launch implements Launcher. A nil Stdout or Stderr captures that stream
// into the Result.
func (l *ExecLauncher) Launch(ctx context.Context, spec LaunchSpec) (Process, error) {
	if len(spec.Argv) == 0 {
		return nil, &LaunchError{Err: errors.New("empty argv")}
	}
	argv := platform.HostArgv(l.Sandbox, spec.Argv)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir
	cmd.Stdin = spec.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}

	p := &execProcess{cmd: cmd}
	if spec.Stdout == nil || spec.Stderr == nil {
		p.captured = &capturedOutput{}
	}
	cmd.Stdout = spec.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = &p.captured.stdout
	}
	cmd.Stderr = spec.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = &p.captured.stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Argv0: spec.Argv[0], Err: err}
	}
	return p, nil
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Wait() *Result {
	p.once.Do(func() {
		p.result = resultFromWait(p.cmd.Wait())
		if p.captured != nil {
			p.result.Output = p.captured.stdout.String()
			p.result.ErrOutput = p.captured.stderr.String()
		}
	})
	return p.result
}

func (p *execProcess) Kill() error { return p.cmd.Process.Kill() }
