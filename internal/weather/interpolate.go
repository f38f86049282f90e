package weather

import "fmt"

// NullPolicy decides what an entirely null series becomes.
type NullPolicy string

const (
	// ZeroFill turns an all-null series into zeros so a trend line can
	// still be drawn.
	ZeroFill NullPolicy = "zero"
	// LeaveNull keeps an all-null series null and lets the renderer skip it.
	LeaveNull NullPolicy = "null"
)

// ParseNullPolicy validates a configured policy name. Empty means ZeroFill.
func ParseNullPolicy(s string) (NullPolicy, error) {
	switch p := NullPolicy(s); p {
	case "":
		return ZeroFill, nil
	case ZeroFill, LeaveNull:
		return p, nil
	default:
		return "", fmt.Errorf("unknown null policy %q", s)
	}
}

// Interpolate fills nulls lying between two known values linearly over the
// index. Nulls before the first or after the last known value stay null.
// The input is not modified.
func Interpolate(series []*float64, policy NullPolicy) []*float64 {
	out := make([]*float64, len(series))

	prev := -1
	for i, v := range series {
		if v == nil {
			continue
		}
		out[i] = floatPtr(*v)
		if prev >= 0 && i-prev > 1 {
			from, to := *series[prev], *v
			step := (to - from) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				out[j] = floatPtr(from + step*float64(j-prev))
			}
		}
		prev = i
	}

	if prev < 0 && policy != LeaveNull {
		for i := range out {
			out[i] = floatPtr(0)
		}
	}
	return out
}
