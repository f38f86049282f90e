package weather

import (
	"time"
)

// ResolveHour picks the hour label to show for now. The current hour wins
// when present; otherwise the earliest available label is used.
func ResolveHour(available []string, now time.Time) (string, error) {
	if len(available) == 0 {
		return "", ErrEmptySchedule
	}

	// Truncate on the wall clock; time.Truncate works on absolute time and
	// would misplace zones with non-hour offsets.
	nowLabel := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).Format(hourLayout)
	earliest := available[0]
	for _, h := range available {
		if h == nowLabel {
			return h, nil
		}
		if h < earliest {
			earliest = h
		}
	}
	return earliest, nil
}

// SelectHour keeps the requested hour while it is still available and
// resolves a fresh one otherwise.
func SelectHour(available []string, requested string, now time.Time) (string, error) {
	if requested != "" {
		for _, h := range available {
			if h == requested {
				return h, nil
			}
		}
	}
	return ResolveHour(available, now)
}
