package extract

import (
	"regexp"
	"strings"

	"membench/internal/config"
)

const decimal = `(\d+\.\d+)`

var (
	qpsPattern = regexp.MustCompile(`Total QPS = ` + decimal)
	rxPattern  = regexp.MustCompile(`RX\s+\d+ bytes :\s+` + decimal + ` MB/s`)
	txPattern  = regexp.MustCompile(`TX\s+\d+ bytes :\s+` + decimal + ` MB/s`)
)

// latencyPattern matches the scenario-anchored line with mutilate's twelve
// latency fields: avg, std, min and the nine percentiles.
func latencyPattern(scenario config.Scenario) *regexp.Regexp {
	fields := make([]string, 12)
	for i := range fields {
		fields[i] = decimal
	}
	return regexp.MustCompile(string(scenario) + `\s+` + strings.Join(fields, `\s+`))
}

// LatencyRecord is the mutilate-backend record: the latency spread for the
// selected scenario, total QPS and the two wire rates.
type LatencyRecord struct {
	// avg, std, min, p1, p5, p10, p20, p50, p80, p90, p95, p99
	Latency [12]string
	QPS     string
	RX      string
	TX      string
}

func (r *LatencyRecord) Columns() []string {
	cols := make([]string, 0, 15)
	cols = append(cols, r.Latency[:]...)
	return append(cols, r.QPS, r.RX, r.TX)
}

func (r *LatencyRecord) Primary() float64 { return parseFloat(r.QPS) }

// Latency extracts LatencyRecords from mutilate captures.
type Latency struct {
	Scenario config.Scenario
}

func (l *Latency) Header() []string {
	return []string{"Sample", "Concurrency", "avg", "std", "min",
		"p1", "p5", "p10", "p20", "p50", "p80", "p90", "p95", "p99",
		"QPS", "RX", "TX"}
}

func (l *Latency) Extract(client, probe []byte) (Record, error) {
	m := latencyPattern(l.Scenario).FindSubmatch(client)
	if m == nil {
		return nil, &ExtractionError{Field: string(l.Scenario) + " latency line"}
	}

	rec := &LatencyRecord{}
	for i := 0; i < 12; i++ {
		rec.Latency[i] = string(m[i+1])
	}

	if q := qpsPattern.FindSubmatch(client); q != nil {
		rec.QPS = string(q[1])
	} else {
		return nil, &ExtractionError{Field: "Total QPS"}
	}
	if rx := rxPattern.FindSubmatch(client); rx != nil {
		rec.RX = string(rx[1])
	} else {
		return nil, &ExtractionError{Field: "RX rate"}
	}
	if tx := txPattern.FindSubmatch(client); tx != nil {
		rec.TX = string(tx[1])
	} else {
		return nil, &ExtractionError{Field: "TX rate"}
	}
	return rec, nil
}
