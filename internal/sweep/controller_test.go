package sweep

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"membench/internal/client"
	"membench/internal/config"
	"membench/internal/extract"
	"membench/internal/remote"
	"membench/internal/server"
	"membench/internal/sink"
)

const goodClientOutput = "Run time: 30.0s Ops: 1858709 TPS: 1234 Net_rate: 56.78M/s\n"
const goodSarOutput = "Average:        all      1.00      0.00      2.50      0.10      0.00     96.40\n"

const goodMutilateOutput = `read 0.50 0.10 0.01 0.02 0.03 0.04 0.05 0.40 0.80 0.90 0.95 0.99
Total QPS = 9999.0 (299970 / 30.0s)
RX 100 bytes : 12.3 MB/s
TX 100 bytes : 4.5 MB/s
`

type fakeProc struct{}

func (fakeProc) Release() error { return nil }

type fakeCapture struct{ out []byte }

func (c fakeCapture) Wait() ([]byte, error) { return c.out, nil }

// fakeExec plays both the remote host and the local client tool. Output
// results are served per call so individual samples can be made to fail.
type fakeExec struct {
	serverKills int
	sarKills    int
	detaches    int
	captures    int

	clientRuns int
	clientOut  func(run int) ([]byte, error)
	sarOut     []byte
}

func (f *fakeExec) Run(argv []string) error {
	if argv[len(argv)-1] == "sar" {
		f.sarKills++
	} else {
		f.serverKills++
	}
	return nil
}

func (f *fakeExec) Output(argv []string) ([]byte, error) {
	f.clientRuns++
	return f.clientOut(f.clientRuns)
}

func (f *fakeExec) Detach(argv []string) (remote.Proc, error) {
	f.detaches++
	return fakeProc{}, nil
}

func (f *fakeExec) Capture(argv []string) (remote.Capture, error) {
	f.captures++
	return fakeCapture{out: f.sarOut}, nil
}

func sweepConfig(b config.Backend) *config.RunConfig {
	return &config.RunConfig{
		Backend:           b,
		ServerHost:        "bench-host",
		ServerCmd:         "/opt/sphinxd/sphinxd",
		ServerTCPPort:     11211,
		ServerThreads:     4,
		ServerMemoryMB:    1024,
		ServerStartupWait: 0,
		ClientCmd:         "./loadtool",
		ClientThreads:     8,
		ClientConnections: "1,3",
		Scenario:          config.ScenarioRead,
		Samples:           2,
		DurationSec:       30,
		SarIntervalSec:    5,
	}
}

func newTestSweep(cfg *config.RunConfig, exec *fakeExec, out *bytes.Buffer) *Controller {
	log := zap.NewNop().Sugar()
	return NewController(
		cfg,
		server.NewController(cfg, exec, log),
		client.NewProber(cfg, exec),
		extract.ForBackend(cfg),
		sink.New(out),
		log,
	)
}

func rows(out *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestSweepEmitsOneRowPerSample(t *testing.T) {
	exec := &fakeExec{
		clientOut: func(int) ([]byte, error) { return []byte(goodClientOutput), nil },
		sarOut:    []byte(goodSarOutput),
	}
	var out bytes.Buffer
	cfg := sweepConfig(config.Memaslap)

	require.NoError(t, newTestSweep(cfg, exec, &out).Run())

	lines := rows(&out)
	// One header plus 2 sweep values x 2 samples.
	require.Len(t, lines, 5)
	assert.Equal(t, "Sample\tConcurrency\tTPS\tNet_rate\tCPU_user\tCPU_nice\tCPU_system\tCPU_iowait\tCPU_steal\tCPU_idle", lines[0])
	assert.Equal(t, "1\t8\t1234\t56.78\t1.00\t0.00\t2.50\t0.10\t0.00\t96.40", lines[1])
	assert.Equal(t, "2\t8\t1234\t56.78\t1.00\t0.00\t2.50\t0.10\t0.00\t96.40", lines[2])
	assert.Equal(t, "1\t16\t1234\t56.78\t1.00\t0.00\t2.50\t0.10\t0.00\t96.40", lines[3])

	// Every row carries exactly the header's column count.
	for _, line := range lines {
		assert.Len(t, strings.Split(line, "\t"), 10)
	}

	// The server is restarted once per sample and stopped on both sides
	// of every measurement; the probe brackets each client run.
	assert.Equal(t, 4, exec.detaches)
	assert.Equal(t, 8, exec.serverKills)
	assert.Equal(t, 4, exec.captures)
	assert.Equal(t, 4, exec.sarKills)
	assert.Equal(t, 4, exec.clientRuns)
}

func TestSweepMutilate(t *testing.T) {
	exec := &fakeExec{
		clientOut: func(int) ([]byte, error) { return []byte(goodMutilateOutput), nil },
	}
	var out bytes.Buffer
	cfg := sweepConfig(config.Mutilate)

	require.NoError(t, newTestSweep(cfg, exec, &out).Run())

	lines := rows(&out)
	require.Len(t, lines, 5)
	assert.Equal(t, "1\t1\t0.50\t0.10\t0.01\t0.02\t0.03\t0.04\t0.05\t0.40\t0.80\t0.90\t0.95\t0.99\t9999.0\t12.3\t4.5", lines[1])

	// No resource probe on the latency backend.
	assert.Zero(t, exec.captures)
	assert.Zero(t, exec.sarKills)
}

func TestSweepSkipsFailedSample(t *testing.T) {
	exec := &fakeExec{
		clientOut: func(run int) ([]byte, error) {
			if run == 2 {
				return []byte("garbled output"), nil
			}
			return []byte(goodClientOutput), nil
		},
		sarOut: []byte(goodSarOutput),
	}
	var out bytes.Buffer
	cfg := sweepConfig(config.Memaslap)

	err := newTestSweep(cfg, exec, &out).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 samples skipped")

	// Three rows made it; the failed sample emitted nothing.
	require.Len(t, rows(&out), 4)

	// The server was still restarted and stopped around the bad sample.
	assert.Equal(t, 4, exec.detaches)
	assert.Equal(t, 8, exec.serverKills)
}

func TestSweepSkipsFailedClientRun(t *testing.T) {
	exec := &fakeExec{
		clientOut: func(run int) ([]byte, error) {
			if run == 1 {
				return nil, errors.New("exit status 1")
			}
			return []byte(goodClientOutput), nil
		},
		sarOut: []byte(goodSarOutput),
	}
	var out bytes.Buffer
	cfg := sweepConfig(config.Memaslap)

	err := newTestSweep(cfg, exec, &out).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 samples skipped")

	require.Len(t, rows(&out), 4)
	// The probe was stopped even though the client failed.
	assert.Equal(t, 4, exec.sarKills)
}

func TestDryRunEmitsHeaderOnly(t *testing.T) {
	exec := &fakeExec{
		clientOut: func(int) ([]byte, error) {
			t.Fatal("dry run must not execute the client")
			return nil, nil
		},
	}
	var out bytes.Buffer
	cfg := sweepConfig(config.Memaslap)
	cfg.DryRun = true

	require.NoError(t, newTestSweep(cfg, exec, &out).Run())

	require.Len(t, rows(&out), 1)
	assert.Zero(t, exec.detaches)
	assert.Zero(t, exec.serverKills)
	assert.Zero(t, exec.captures)
	assert.Zero(t, exec.clientRuns)
}
