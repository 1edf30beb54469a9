package extract

import "regexp"

// Patterns for the memaslap client and the sar probe. The sar line of
// interest is the trailing "Average: ... all ..." row with the six CPU
// utilization percentages in fixed order.
var (
	tpsPattern = regexp.MustCompile(` TPS: (\d+) Net_rate: (\d+\.\d+)M/s`)
	sarPattern = regexp.MustCompile(`Average:.*all\s+(\d+\.\d+)\s+(\d+\.\d+)\s+(\d+\.\d+)\s+(\d+\.\d+)\s+(\d+\.\d+)\s+(\d+\.\d+)`)
)

// ThroughputRecord is the memaslap-backend record: transactions per
// second and network rate from the client, CPU split from the probe.
type ThroughputRecord struct {
	TPS     string
	NetRate string
	// user, nice, system, iowait, steal, idle
	CPU [6]string
}

func (r *ThroughputRecord) Columns() []string {
	return []string{r.TPS, r.NetRate,
		r.CPU[0], r.CPU[1], r.CPU[2], r.CPU[3], r.CPU[4], r.CPU[5]}
}

func (r *ThroughputRecord) Primary() float64 { return parseFloat(r.TPS) }

// Throughput extracts ThroughputRecords from memaslap + sar captures.
type Throughput struct{}

func (Throughput) Header() []string {
	return []string{"Sample", "Concurrency", "TPS", "Net_rate",
		"CPU_user", "CPU_nice", "CPU_system", "CPU_iowait", "CPU_steal", "CPU_idle"}
}

func (Throughput) Extract(client, probe []byte) (Record, error) {
	m := tpsPattern.FindSubmatch(client)
	if m == nil {
		return nil, &ExtractionError{Field: "TPS/Net_rate"}
	}

	s := sarPattern.FindSubmatch(probe)
	if s == nil {
		return nil, &ExtractionError{Field: "CPU averages"}
	}

	rec := &ThroughputRecord{
		TPS:     string(m[1]),
		NetRate: string(m[2]),
	}
	for i := 0; i < 6; i++ {
		rec.CPU[i] = string(s[i+1])
	}
	return rec, nil
}
