package sweep

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"membench/internal/config"
)

// summary aggregates the primary metric across samples at each
// concurrency level. It is printed to the console only, never to the
// output file, so the file keeps its fixed row schema.
type summary struct {
	metric string
	order  []int
	values map[int][]float64
}

func newSummary(b config.Backend) *summary {
	metric := "QPS"
	if b == config.Memaslap {
		metric = "TPS"
	}
	return &summary{
		metric: metric,
		values: make(map[int][]float64),
	}
}

func (s *summary) add(concurrency int, v float64) {
	if _, ok := s.values[concurrency]; !ok {
		s.order = append(s.order, concurrency)
	}
	s.values[concurrency] = append(s.values[concurrency], v)
}

func (s *summary) print() {
	if len(s.order) == 0 {
		return
	}
	fmt.Printf("# %s per concurrency level\n", s.metric)
	for _, c := range s.order {
		vals := s.values[c]
		mean, _ := stats.Mean(vals)
		sd, _ := stats.StandardDeviation(vals)
		lo, _ := stats.Min(vals)
		hi, _ := stats.Max(vals)
		fmt.Printf("# concurrency=%d samples=%d mean=%.2f std=%.2f min=%.2f max=%.2f\n",
			c, len(vals), mean, sd, lo, hi)
	}
}
