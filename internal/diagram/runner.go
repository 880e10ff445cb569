package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-mdlive/internal/process"
)

// ErrLaunch indicates the compiler process could not be started.
var ErrLaunch = errors.New("cannot start compiler")

// waitDelay bounds how long Wait blocks on output pipes held open by
// orphaned grandchildren after the compiler itself exited.
const waitDelay = 2 * time.Second

// Command describes one compiler invocation.
type Command struct {
	Name  string
	Args  []string
	Stdin string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds what a finished compiler process produced.
// A non-zero exit status is reported in ExitCode, not as an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner abstracts process execution so compilers can be tested
// without the real tools installed.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec. The process runs in its own
// process group, killed as a whole when ctx is done.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	cmd := exec.Command(c.Name, c.Args...) // #nosec G204 -- compiler paths come from local config
	process.Isolate(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(c.Stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrLaunch, c.Name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		process.KillProcessGroup(cmd.Process.Pid)
		<-done
		return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: -1}, ctx.Err()
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, fmt.Errorf("waiting for %s: %w", c.Name, waitErr)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}
