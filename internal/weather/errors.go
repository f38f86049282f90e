package weather

import "errors"

var (
	// ErrLocationUnavailable marks a location whose fetch failed. It never
	// leaves Fetch; the location is logged and left out of the result.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrEmptySchedule is returned by ResolveHour when there is no hour to
	// show. Callers render an empty state and do not retry.
	ErrEmptySchedule = errors.New("no forecast hours available")

	// ErrUnknownLocation is returned for locations outside the configured set.
	ErrUnknownLocation = errors.New("unknown location")
)
