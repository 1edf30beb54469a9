package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membench/internal/config"
)

const mutilateOutput = `#type       avg     std     min     1st     5th    10th    20th    50th    80th    90th    95th    99th
read 0.50 0.10 0.01 0.02 0.03 0.04 0.05 0.40 0.80 0.90 0.95 0.99
update 1.50 0.20 0.02 0.03 0.04 0.05 0.06 1.40 1.80 1.90 1.95 1.99

Total QPS = 9999.0 (299970 / 30.0s)

Misses = 0 (0.0%)

RX 100 bytes : 12.3 MB/s
TX 100 bytes : 4.5 MB/s
`

func TestLatencyExtractRead(t *testing.T) {
	ex := &Latency{Scenario: config.ScenarioRead}
	rec, err := ex.Extract([]byte(mutilateOutput), nil)
	require.NoError(t, err)

	lr, ok := rec.(*LatencyRecord)
	require.True(t, ok)
	assert.Equal(t, [12]string{
		"0.50", "0.10", "0.01", "0.02", "0.03", "0.04",
		"0.05", "0.40", "0.80", "0.90", "0.95", "0.99",
	}, lr.Latency)
	assert.Equal(t, "9999.0", lr.QPS)
	assert.Equal(t, "12.3", lr.RX)
	assert.Equal(t, "4.5", lr.TX)

	assert.Equal(t, 9999.0, lr.Primary())
	assert.Len(t, rec.Columns(), 15)
}

func TestLatencyExtractUpdate(t *testing.T) {
	ex := &Latency{Scenario: config.ScenarioUpdate}
	rec, err := ex.Extract([]byte(mutilateOutput), nil)
	require.NoError(t, err)

	lr := rec.(*LatencyRecord)
	assert.Equal(t, "1.50", lr.Latency[0])
	assert.Equal(t, "1.99", lr.Latency[11])
}

func TestLatencyHeaderMatchesColumns(t *testing.T) {
	ex := &Latency{Scenario: config.ScenarioRead}
	header := ex.Header()
	assert.Equal(t, []string{"Sample", "Concurrency", "avg", "std", "min",
		"p1", "p5", "p10", "p20", "p50", "p80", "p90", "p95", "p99",
		"QPS", "RX", "TX"}, header)

	rec, err := ex.Extract([]byte(mutilateOutput), nil)
	require.NoError(t, err)
	assert.Equal(t, len(header), len(rec.Columns())+2)
}

func TestLatencyExtractAllOrNothing(t *testing.T) {
	ex := &Latency{Scenario: config.ScenarioRead}
	var xerr *ExtractionError

	// Missing scenario line.
	_, err := ex.Extract([]byte("Total QPS = 9999.0\nRX 1 bytes : 1.0 MB/s\nTX 1 bytes : 1.0 MB/s\n"), nil)
	require.Error(t, err)
	assert.True(t, errors.As(err, &xerr))

	// Latency line present but QPS missing: the whole record fails.
	noQPS := strings.Replace(mutilateOutput, "Total QPS = 9999.0", "", 1)
	_, err = ex.Extract([]byte(noQPS), nil)
	require.Error(t, err)

	// TX line missing.
	noTX := strings.Replace(mutilateOutput, "TX 100 bytes : 4.5 MB/s", "", 1)
	_, err = ex.Extract([]byte(noTX), nil)
	require.Error(t, err)
}

func TestForBackend(t *testing.T) {
	cfg := &config.RunConfig{Backend: config.Memaslap}
	_, ok := ForBackend(cfg).(*Throughput)
	assert.True(t, ok)

	cfg = &config.RunConfig{Backend: config.Mutilate, Scenario: config.ScenarioRead}
	lat, ok := ForBackend(cfg).(*Latency)
	require.True(t, ok)
	assert.Equal(t, config.ScenarioRead, lat.Scenario)
}
