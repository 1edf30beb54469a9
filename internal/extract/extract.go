// Package extract turns the raw text produced by the benchmark tools into
// typed metric records. Each backend has its own fixed set of anchored
// patterns; a record either matches completely or fails as a unit, so a
// row with missing columns can never be emitted.
package extract

import (
	"fmt"
	"strconv"

	"membench/internal/config"
)

// ExtractionError reports tool output that did not match an expected
// pattern, or a client invocation that produced no usable output. It is
// scoped to the sample that produced it; surrounding samples proceed.
type ExtractionError struct {
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("extract: no match for %s", e.Field)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Record is one extracted measurement. Field values are kept as the exact
// decimal text the tool printed; no unit conversion happens here.
type Record interface {
	// Columns returns the data fields in header order, excluding the
	// sample and concurrency columns the sweep prepends.
	Columns() []string
	// Primary returns the record's headline metric (TPS or QPS) for the
	// end-of-run summary.
	Primary() float64
}

// Extractor is the per-backend parsing strategy, selected once at
// configuration time.
type Extractor interface {
	// Header returns the full column list, including Sample and
	// Concurrency.
	Header() []string
	// Extract parses one sample's captures. probe is nil for backends
	// without a resource probe.
	Extract(client, probe []byte) (Record, error)
}

// ForBackend returns the extractor matching the configured backend.
func ForBackend(cfg *config.RunConfig) Extractor {
	if cfg.Backend == config.Memaslap {
		return &Throughput{}
	}
	return &Latency{Scenario: cfg.Scenario}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
