package weather

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Coerce converts a raw provider value to a number. Anything that is not a
// finite number (nil, "", "n/a", NaN) yields nil.
func Coerce(v any) *float64 {
	var f float64

	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return nil
		}
		f = n
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// maxTimestamp is 9999-12-31T23:59:59Z, the last instant a four-digit year
// label can show.
const maxTimestamp = 253402300799

// parseTimestamp reads UNIX seconds from a raw value and returns the
// instant in zone. Values before the epoch or past maxTimestamp are
// rejected.
func parseTimestamp(v any, zone *time.Location) (time.Time, bool) {
	f := Coerce(v)
	if f == nil || *f < 0 || *f > maxTimestamp {
		return time.Time{}, false
	}
	return time.Unix(int64(*f), 0).In(zone), true
}

func floatPtr(v float64) *float64 {
	return &v
}
