// Package server owns the lifecycle of the remote server-under-test and,
// for the memaslap backend, the remote sar resource probe that samples the
// host while the client runs.
package server

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"membench/internal/config"
	"membench/internal/remote"
)

// ProcessError reports a remote process that failed to launch or terminate
// as expected. It aborts the run: later samples are meaningless without a
// healthy server.
type ProcessError struct {
	Op  string
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process: %s: %v", e.Op, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// ServerHandle is returned by Start and consumed by Stop. Holding the
// handle is what entitles a caller to stop the server; the controller
// keeps at most one alive at a time.
type ServerHandle struct {
	proc remote.Proc
}

// ProbeHandle is the resource-probe equivalent of ServerHandle; consuming
// it yields the probe's accumulated output.
type ProbeHandle struct {
	capture remote.Capture
}

// Controller starts and stops the server and probe processes on the
// remote host. All remote reach happens through ssh argv prefixes handed
// to the Executor; in dry-run mode commands are echoed and nothing runs.
type Controller struct {
	cfg  *config.RunConfig
	exec remote.Executor
	log  *zap.SugaredLogger

	// sleep is swapped out in tests so the startup wait never blocks them.
	sleep func(time.Duration)
}

func NewController(cfg *config.RunConfig, exec remote.Executor, log *zap.SugaredLogger) *Controller {
	return &Controller{
		cfg:   cfg,
		exec:  exec,
		log:   log,
		sleep: time.Sleep,
	}
}

// sshArgv prefixes argv with the ssh invocation for the server host.
func (c *Controller) sshArgv(argv ...string) []string {
	return append([]string{"ssh", c.cfg.ServerHost}, argv...)
}

// serverArgv builds the full remote launch command: ssh prefix, optional
// taskset wrapper, the server binary and its flags. The flag set differs
// per backend: memaslap's server takes an explicit listen address, the
// mutilate one takes an optional CPU isolation list.
func (c *Controller) serverArgv() []string {
	var argv []string
	if c.cfg.ServerCPUAffinity != "" {
		argv = append(argv, "taskset", "--cpu-list", c.cfg.ServerCPUAffinity)
	}
	argv = append(argv, c.cfg.ServerCmd)
	if c.cfg.Backend == config.Memaslap {
		argv = append(argv, "-l", c.cfg.ServerHost)
	}
	argv = append(argv,
		"-p", strconv.Itoa(c.cfg.ServerTCPPort),
		"-t", strconv.Itoa(c.cfg.ServerThreads),
		"-m", strconv.Itoa(c.cfg.ServerMemoryMB),
	)
	if c.cfg.Backend == config.Mutilate && c.cfg.ServerCPUIsolate != "" {
		argv = append(argv, "-i", c.cfg.ServerCPUIsolate)
	}
	return c.sshArgv(argv...)
}

func (c *Controller) pkillArgv() []string {
	return c.sshArgv("pkill", c.cfg.ServerPattern())
}

func (c *Controller) sarStartArgv() []string {
	return c.sshArgv("sar", strconv.Itoa(c.cfg.SarIntervalSec))
}

func (c *Controller) sarKillArgv() []string {
	return c.sshArgv("pkill", "--signal", "INT", "sar")
}

// Start launches the server detached, streams discarded, then waits the
// configured startup interval for it to reach readiness. The returned
// handle must eventually be passed to Stop.
func (c *Controller) Start() (*ServerHandle, error) {
	argv := c.serverArgv()
	remote.Echo("server command", argv)
	if c.cfg.DryRun {
		return &ServerHandle{}, nil
	}

	proc, err := c.exec.Detach(argv)
	if err != nil {
		return nil, &ProcessError{Op: "start server", Err: err}
	}
	c.log.Debugw("server launched, waiting for readiness",
		"host", c.cfg.ServerHost, "wait_s", c.cfg.ServerStartupWait)
	c.sleep(time.Duration(c.cfg.ServerStartupWait) * time.Second)
	return &ServerHandle{proc: proc}, nil
}

// Stop kills the server by process name on the remote host and consumes
// the handle. It is idempotent: a nil handle, or a pkill that matches
// nothing, is not an error.
func (c *Controller) Stop(h *ServerHandle) error {
	argv := c.pkillArgv()
	remote.Echo("pkill command", argv)
	if c.cfg.DryRun {
		return nil
	}

	if err := c.exec.Run(argv); err != nil {
		return &ProcessError{Op: "stop server", Err: err}
	}
	if h != nil && h.proc != nil {
		// The local ssh child is abandoned, not waited on; the remote kill
		// is what actually ends the server.
		_ = h.proc.Release()
		h.proc = nil
	}
	return nil
}

// StartProbe launches sar on the remote host with its output captured for
// retrieval after StopProbe. Memaslap backend only.
func (c *Controller) StartProbe() (*ProbeHandle, error) {
	argv := c.sarStartArgv()
	remote.Echo("sar start command", argv)
	if c.cfg.DryRun {
		return &ProbeHandle{}, nil
	}

	capture, err := c.exec.Capture(argv)
	if err != nil {
		return nil, &ProcessError{Op: "start probe", Err: err}
	}
	return &ProbeHandle{capture: capture}, nil
}

// StopProbe interrupts the remote sar so it prints its trailing averages,
// then returns everything the probe wrote.
func (c *Controller) StopProbe(h *ProbeHandle) ([]byte, error) {
	argv := c.sarKillArgv()
	remote.Echo("sar kill command", argv)
	if c.cfg.DryRun {
		return nil, nil
	}

	if err := c.exec.Run(argv); err != nil {
		return nil, &ProcessError{Op: "stop probe", Err: err}
	}
	if h == nil || h.capture == nil {
		return nil, nil
	}
	out, err := h.capture.Wait()
	if err != nil {
		return nil, &ProcessError{Op: "read probe output", Err: err}
	}
	h.capture = nil
	return out, nil
}
