package weather

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregate computes the daily temperature summary per location and date.
// Null temperatures are ignored; a group without any temperature produces
// no entry at all.
func Aggregate(table Table) []DailyAggregate {
	type dayKey struct {
		location LocationID
		date     string
	}

	temps := make(map[dayKey][]float64)
	var keys []dayKey

	for _, r := range table.Rows {
		k := dayKey{location: r.Location, date: r.Date}
		if _, ok := temps[k]; !ok {
			temps[k] = nil
			keys = append(keys, k)
		}
		if r.Temperature != nil {
			temps[k] = append(temps[k], *r.Temperature)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].location != keys[j].location {
			return keys[i].location < keys[j].location
		}
		return keys[i].date < keys[j].date
	})

	out := make([]DailyAggregate, 0, len(keys))
	for _, k := range keys {
		values := temps[k]
		if len(values) == 0 {
			continue
		}
		out = append(out, DailyAggregate{
			Location: k.location,
			Date:     k.date,
			Max:      floats.Max(values),
			Min:      floats.Min(values),
			Mean:     stat.Mean(values, nil),
			Samples:  len(values),
		})
	}
	return out
}

// AggregateFor returns the aggregate of location on date, if one exists.
func AggregateFor(daily []DailyAggregate, location LocationID, date string) (DailyAggregate, bool) {
	for _, d := range daily {
		if d.Location == location && d.Date == date {
			return d, true
		}
	}
	return DailyAggregate{}, false
}
