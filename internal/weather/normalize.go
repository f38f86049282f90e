package weather

import (
	"sort"
	"time"
)

// Weerlive field names used by the hourly and live forecast records.
const (
	FieldTimestamp     = "timestamp"
	FieldTemperature   = "temp"
	FieldPrecipitation = "neersl"
	FieldIrradiance    = "gr"
	FieldCondition     = "image"
	FieldSummary       = "samenv"
	FieldMaxTemp       = "tmax"
	FieldMinTemp       = "tmin"
)

const (
	dateLayout = "2006-01-02"
	hourLayout = "15:04"
)

// Coordinate is a latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lon float64
}

// NormalizeStats counts what normalization kept, replaced and degraded.
type NormalizeStats struct {
	Records            int            `json:"records"`
	Rows               int            `json:"rows"`
	Duplicates         int            `json:"duplicates"`
	InvalidTimestamps  int            `json:"invalidTimestamps"`
	CoercionFailures   map[string]int `json:"coercionFailures"`
	MissingCoordinates int            `json:"missingCoordinates"`
}

// Normalizer turns raw hourly records into the canonical hour table.
type Normalizer struct {
	zone   *time.Location
	coords map[LocationID]Coordinate
	icons  IconSet
}

// NewNormalizer builds a Normalizer. A nil zone means UTC.
func NewNormalizer(zone *time.Location, coords map[LocationID]Coordinate, icons IconSet) *Normalizer {
	if zone == nil {
		zone = time.UTC
	}
	return &Normalizer{zone: zone, coords: coords, icons: icons}
}

// Zone returns the provider wall-clock zone labels are derived in.
func (n *Normalizer) Zone() *time.Location {
	return n.zone
}

// Coordinate looks up the static coordinate of a location.
func (n *Normalizer) Coordinate(loc LocationID) (Coordinate, bool) {
	c, ok := n.coords[loc]
	return c, ok
}

type rowKey struct {
	location LocationID
	date     string
	hour     string
}

// Normalize builds a new Table from raw hourly records. Records sharing a
// (location, date, hour) key collapse into one row holding the values of
// the last record seen.
func (n *Normalizer) Normalize(records []RawRecord) Table {
	stats := NormalizeStats{
		Records:          len(records),
		CoercionFailures: make(map[string]int),
	}

	rows := make([]HourRow, 0, len(records))
	index := make(map[rowKey]int, len(records))

	for _, rec := range records {
		ts, ok := parseTimestamp(rec.Field(FieldTimestamp), n.zone)
		if !ok {
			stats.InvalidTimestamps++
			continue
		}

		row := HourRow{
			Location:      rec.Location,
			Date:          ts.Format(dateLayout),
			Hour:          ts.Format(hourLayout),
			Timestamp:     ts,
			Temperature:   n.coerceField(rec, FieldTemperature, &stats),
			Precipitation: n.coerceField(rec, FieldPrecipitation, &stats),
			Irradiance:    n.coerceField(rec, FieldIrradiance, &stats),
		}

		if s, ok := rec.Field(FieldCondition).(string); ok {
			row.Condition = normalizeCondition(s)
		}
		row.Icon = n.icons.Icon(row.Condition)
		row.Category = Classify(row.Condition)

		if c, ok := n.coords[rec.Location]; ok {
			row.Lat = floatPtr(c.Lat)
			row.Lon = floatPtr(c.Lon)
		}

		key := rowKey{location: row.Location, date: row.Date, hour: row.Hour}
		if i, dup := index[key]; dup {
			rows[i] = row
			stats.Duplicates++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}

	for _, r := range rows {
		if !r.Placeable() {
			stats.MissingCoordinates++
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Location != rows[j].Location {
			return rows[i].Location < rows[j].Location
		}
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	stats.Rows = len(rows)
	return Table{Rows: rows, Stats: stats}
}

// coerceField coerces one numeric field, counting values that were present
// but not numeric.
func (n *Normalizer) coerceField(rec RawRecord, field string, stats *NormalizeStats) *float64 {
	raw := rec.Field(field)
	v := Coerce(raw)
	if v == nil && raw != nil {
		stats.CoercionFailures[field]++
	}
	return v
}

// Observation converts a liveweer record into its typed view.
func (n *Normalizer) Observation(rec RawRecord) LiveObservation {
	obs := LiveObservation{
		Location:    rec.Location,
		Temperature: Coerce(rec.Field(FieldTemperature)),
	}
	if s, ok := rec.Field(FieldSummary).(string); ok {
		obs.Summary = s
	}
	if s, ok := rec.Field(FieldCondition).(string); ok {
		obs.Condition = normalizeCondition(s)
	}
	obs.Icon = n.icons.Icon(obs.Condition)
	return obs
}
