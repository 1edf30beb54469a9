package config

import (
	"fmt"
	"path/filepath"
)

// Backend selects which load-generation tool the run drives and therefore
// which output shape the extractor and sink use.
type Backend int

const (
	// Memaslap is the throughput-oriented backend: TPS + network rate from
	// the client, CPU utilization from a concurrent sar probe.
	Memaslap Backend = iota
	// Mutilate is the latency-oriented backend: percentile spread, QPS and
	// RX/TX rates, all from the client output.
	Mutilate
)

func (b Backend) String() string {
	switch b {
	case Memaslap:
		return "memaslap"
	case Mutilate:
		return "mutilate"
	}
	return "unknown"
}

// Scenario is the mutilate workload selector.
type Scenario string

const (
	ScenarioRead   Scenario = "read"
	ScenarioUpdate Scenario = "update"
)

// UpdateRatio maps the scenario onto mutilate's -u flag.
func (s Scenario) UpdateRatio() float64 {
	if s == ScenarioUpdate {
		return 1.0
	}
	return 0.0
}

// ParseScenario validates the scenario selector.
func ParseScenario(raw string) (Scenario, error) {
	switch Scenario(raw) {
	case ScenarioRead, ScenarioUpdate:
		return Scenario(raw), nil
	}
	return "", &ConfigError{Field: "scenario", Value: raw,
		Reason: "must be 'read' or 'update'"}
}

// RunConfig holds everything one invocation needs. It is built once from
// flags in cmd/ and never mutated afterwards.
type RunConfig struct {
	Backend Backend

	ServerHost        string
	ServerCmd         string
	ServerTCPPort     int
	ServerThreads     int
	ServerMemoryMB    int
	ServerCPUAffinity string // taskset --cpu-list argument, empty = disabled
	ServerCPUIsolate  string // mutilate backend only, empty = disabled
	ServerStartupWait int    // seconds to wait after launching the server

	ClientCmd         string
	ClientThreads     int
	ClientConnections string // compact range expression, expanded by ExpandRange
	Scenario          Scenario

	Samples     int
	DurationSec int
	DryRun      bool
	OutputPath  string

	SarIntervalSec int // sampling interval of the resource probe
}

// ServerPattern is the process name the remote pkill targets.
func (c *RunConfig) ServerPattern() string {
	return filepath.Base(c.ServerCmd)
}

// ServerAddr is the host:port the client connects to.
func (c *RunConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerTCPPort)
}

// Validate rejects configurations that would fail mid-sweep.
func (c *RunConfig) Validate() error {
	if c.ServerHost == "" {
		return &ConfigError{Field: "server-host", Reason: "required"}
	}
	if c.ServerCmd == "" {
		return &ConfigError{Field: "server-cmd", Reason: "required"}
	}
	if c.ClientCmd == "" {
		return &ConfigError{Field: "client-cmd", Reason: "required"}
	}
	if c.ServerTCPPort <= 0 || c.ServerTCPPort > 65535 {
		return &ConfigError{Field: "server-tcp-port",
			Value:  fmt.Sprintf("%d", c.ServerTCPPort),
			Reason: "not a valid TCP port"}
	}
	if c.ServerThreads <= 0 {
		return &ConfigError{Field: "server-threads", Reason: "must be positive"}
	}
	if c.ServerMemoryMB <= 0 {
		return &ConfigError{Field: "server-memory", Reason: "must be positive"}
	}
	if c.ClientThreads <= 0 {
		return &ConfigError{Field: "client-threads", Reason: "must be positive"}
	}
	if c.Samples <= 0 {
		return &ConfigError{Field: "samples", Reason: "must be positive"}
	}
	if c.DurationSec <= 0 {
		return &ConfigError{Field: "duration", Reason: "must be positive"}
	}
	if c.OutputPath == "" {
		return &ConfigError{Field: "output", Reason: "required"}
	}
	if _, err := ExpandRange(c.ClientConnections); err != nil {
		return err
	}
	return nil
}
