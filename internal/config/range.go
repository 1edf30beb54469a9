package config

import (
	"strconv"
	"strings"
)

// ExpandRange parses a compact connection-range expression into the
// concrete sweep sequence. One component means [0, a), two mean [a, b),
// three mean [a, b) stepping by the third. The range is half-open, like
// a conventional numeric range.
//
//	"5"     -> [0 1 2 3 4]
//	"2,5"   -> [2 3 4]
//	"2,8,3" -> [2 5]
func ExpandRange(expr string) ([]int, error) {
	parts := strings.Split(expr, ",")

	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &ConfigError{Field: "client-connections", Value: expr,
				Reason: "components must be integers"}
		}
		nums = append(nums, n)
	}

	start, stop, step := 0, 0, 1
	switch len(nums) {
	case 1:
		stop = nums[0]
	case 2:
		start, stop = nums[0], nums[1]
	case 3:
		start, stop, step = nums[0], nums[1], nums[2]
		if step == 0 {
			return nil, &ConfigError{Field: "client-connections", Value: expr,
				Reason: "step must not be zero"}
		}
	default:
		return nil, &ConfigError{Field: "client-connections", Value: expr,
			Reason: "expected 1 to 3 comma-separated integers"}
	}

	var seq []int
	if step > 0 {
		for v := start; v < stop; v += step {
			seq = append(seq, v)
		}
	} else {
		for v := start; v > stop; v += step {
			seq = append(seq, v)
		}
	}
	return seq, nil
}
