// Package remote wraps process execution behind the narrow interface the
// sweep needs: fire-and-forget launches, synchronous captured runs, and
// asynchronous captured runs. Callers compose the full argv themselves,
// including any ssh prefix, so "remote" execution is just execution of an
// argv whose first element happens to be ssh.
package remote

import (
	"bytes"
	"fmt"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// Executor is the process-execution primitive. The sweep composes argument
// vectors and passes them through; it never inspects how they run.
type Executor interface {
	// Run executes argv synchronously, discarding output. A non-zero exit
	// is not an error: remote pkill exits non-zero when nothing matched,
	// and that must not fail the caller.
	Run(argv []string) error

	// Output executes argv synchronously and returns captured stdout.
	// A non-zero exit is an error.
	Output(argv []string) ([]byte, error)

	// Detach launches argv with both output streams discarded and does not
	// wait for it.
	Detach(argv []string) (Proc, error)

	// Capture launches argv and drains its stdout in the background. The
	// returned Capture yields the accumulated output once the process
	// exits.
	Capture(argv []string) (Capture, error)
}

// Proc is a handle to a detached process.
type Proc interface {
	// Release abandons the process without waiting for it.
	Release() error
}

// Capture is a handle to a process whose stdout is being drained.
type Capture interface {
	// Wait blocks until the process exits and returns everything it wrote
	// to stdout.
	Wait() ([]byte, error)
}

type localProc struct {
	cmd *exec.Cmd
}

func (p *localProc) Release() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Release()
}

type localCapture struct {
	cmd *exec.Cmd
	buf bytes.Buffer
	eg  errgroup.Group
}

// Wait blocks until stdout is drained. The process is expected to be
// ended externally (an interrupt delivered remotely), so its exit status
// is not treated as an error.
func (c *localCapture) Wait() ([]byte, error) {
	if err := c.eg.Wait(); err != nil {
		return nil, fmt.Errorf("draining capture: %w", err)
	}
	_ = c.cmd.Wait()
	return c.buf.Bytes(), nil
}

// Local runs argv as local child processes via os/exec.
type Local struct{}

var _ Executor = Local{}

func (Local) Run(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return fmt.Errorf("running %s: %w", argv[0], err)
	}
	return nil
}

func (Local) Output(argv []string) ([]byte, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", argv[0], err)
	}
	return out, nil
}

func (Local) Detach(argv []string) (Proc, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", argv[0], err)
	}
	return &localProc{cmd: cmd}, nil
}

func (Local) Capture(argv []string) (Capture, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piping %s: %w", argv[0], err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	c := &localCapture{cmd: cmd}
	c.eg.Go(func() error {
		_, err := c.buf.ReadFrom(stdout)
		return err
	})
	return c, nil
}
