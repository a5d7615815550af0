// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"meltano-cli/pkg/platform"
)

func TestExecLauncher(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	l := &ExecLauncher{Sandbox: platform.SandboxNone}

	t.Run("exit code and captured output", func(t *testing.T) {
		t.Parallel()

		proc, err := l.Launch(context.Background(), LaunchSpec{
			Argv: []string{"sh", "-c", `echo "$GREETING"; echo oops >&2; exit 2`},
			Env:  []string{"GREETING=hello"},
			Dir:  t.TempDir(),
		})
		if err != nil {
			t.Fatalf("Launch: %v", err)
		}
		res := proc.Wait()
		if res.ExitCode != 2 || res.Error != nil {
			t.Errorf("result = %+v, want exit 2", res)
		}
		if strings.TrimSpace(res.Output) != "hello" || strings.TrimSpace(res.ErrOutput) != "oops" {
			t.Errorf("output = %q / %q", res.Output, res.ErrOutput)
		}
		if again := proc.Wait(); again != res {
			t.Error("Wait must return the same result on repeated calls")
		}
	})

	t.Run("missing executable", func(t *testing.T) {
		t.Parallel()

		_, err := l.Launch(context.Background(), LaunchSpec{Argv: []string{"/nonexistent/tap-missing"}})
		var launchErr *LaunchError
		if !errors.As(err, &launchErr) || launchErr.Argv0 != "/nonexistent/tap-missing" {
			t.Fatalf("error = %v, want *LaunchError", err)
		}
		if !errors.Is(err, ErrLaunch) {
			t.Error("error does not wrap ErrLaunch")
		}
	})
}

func TestResultFromWait(t *testing.T) {
	t.Parallel()

	if res := resultFromWait(nil); res.ExitCode != 0 || res.Error != nil {
		t.Errorf("nil error = %+v", res)
	}
	other := errors.New("io failure")
	if res := resultFromWait(other); res.ExitCode != 1 || !errors.Is(res.Error, other) {
		t.Errorf("non-exit error = %+v", res)
	}
}

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	for _, c := range []ExitCode{0, 2, 255} {
		if err := c.Validate(); err != nil {
			t.Errorf("%d: %v", c, err)
		}
	}
	for _, c := range []ExitCode{-1, 256} {
		if err := c.Validate(); !errors.Is(err, ErrInvalidExitCode) {
			t.Errorf("%d: %v", c, err)
		}
	}
}
