// Package client invokes the load-generation tool once per sample and
// hands back its raw output for extraction.
package client

import (
	"fmt"
	"strconv"

	"membench/internal/config"
	"membench/internal/remote"
)

// Prober builds and runs one client invocation. The argv is assembled in a
// fixed flag order so dry-run transcripts are reproducible and diffable.
type Prober struct {
	cfg  *config.RunConfig
	exec remote.Executor
}

func NewProber(cfg *config.RunConfig, exec remote.Executor) *Prober {
	return &Prober{cfg: cfg, exec: exec}
}

// Concurrency derives the effective client concurrency for a given sweep
// value. Memaslap scales the connection count by the client thread count;
// mutilate uses the connection count as-is.
func (p *Prober) Concurrency(conn int) int {
	if p.cfg.Backend == config.Memaslap {
		return p.cfg.ClientThreads * conn
	}
	return conn
}

// Argv builds the client command line for one sweep value.
func (p *Prober) Argv(conn int) []string {
	c := p.cfg
	switch c.Backend {
	case config.Memaslap:
		return []string{
			c.ClientCmd,
			"-s", c.ServerAddr(),
			"--threads", strconv.Itoa(c.ClientThreads),
			"--time", fmt.Sprintf("%ds", c.DurationSec),
			"--concurrency", strconv.Itoa(p.Concurrency(conn)),
			"--fixed_size", "200",
		}
	default:
		return []string{
			c.ClientCmd,
			"-s", c.ServerAddr(),
			"-T", strconv.Itoa(c.ClientThreads),
			"-u", strconv.FormatFloat(c.Scenario.UpdateRatio(), 'f', 1, 64),
			"-t", strconv.Itoa(c.DurationSec),
			"-c", strconv.Itoa(conn),
		}
	}
}

// Run executes the client synchronously and returns its captured output.
// It blocks for the full run duration. In dry-run mode it only echoes the
// command and returns an empty capture.
func (p *Prober) Run(conn int) ([]byte, error) {
	argv := p.Argv(conn)
	remote.Echo("client command", argv)
	if p.cfg.DryRun {
		return nil, nil
	}
	return p.exec.Output(argv)
}
