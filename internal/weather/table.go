package weather

import (
	"fmt"
	"sort"
)

// Table is the normalized hour table, sorted by location and timestamp.
type Table struct {
	Rows  []HourRow
	Stats NormalizeStats
}

// Field selects a numeric column of the hour table.
type Field string

const (
	FieldTemperatureSeries   Field = "temperature"
	FieldPrecipitationSeries Field = "precipitation"
	FieldIrradianceSeries    Field = "irradiance"
)

// ParseField validates a series name.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldTemperatureSeries, FieldPrecipitationSeries, FieldIrradianceSeries:
		return f, nil
	default:
		return "", fmt.Errorf("unknown field %q", s)
	}
}

func (f Field) value(r HourRow) *float64 {
	switch f {
	case FieldTemperatureSeries:
		return r.Temperature
	case FieldPrecipitationSeries:
		return r.Precipitation
	case FieldIrradianceSeries:
		return r.Irradiance
	default:
		return nil
	}
}

// Filter returns the rows belonging to locations. No locations means all rows.
func (t Table) Filter(locations []LocationID) []HourRow {
	if len(locations) == 0 {
		return t.Rows
	}
	want := make(map[LocationID]struct{}, len(locations))
	for _, l := range locations {
		want[l] = struct{}{}
	}
	var out []HourRow
	for _, r := range t.Rows {
		if _, ok := want[r.Location]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Hours returns the sorted distinct hour labels present for locations.
func (t Table) Hours(locations []LocationID) []string {
	seen := make(map[string]struct{})
	var hours []string
	for _, r := range t.Filter(locations) {
		if _, ok := seen[r.Hour]; ok {
			continue
		}
		seen[r.Hour] = struct{}{}
		hours = append(hours, r.Hour)
	}
	sort.Strings(hours)
	return hours
}

// At returns every row of locations labelled hour, across all dates.
func (t Table) At(hour string, locations []LocationID) []HourRow {
	var out []HourRow
	for _, r := range t.Filter(locations) {
		if r.Hour == hour {
			out = append(out, r)
		}
	}
	return out
}

// TrendPoint is one value of a trend series.
type TrendPoint struct {
	Date  string   `json:"date"`
	Hour  string   `json:"hour"`
	Value *float64 `json:"value"`
}

// TrendSeries is a chronologically ordered, gap-filled series for one location.
type TrendSeries struct {
	Location LocationID   `json:"location"`
	Field    Field        `json:"field"`
	Points   []TrendPoint `json:"points"`
}

// Trend builds the interpolated series of field for one location. An empty
// date selects every date.
func (t Table) Trend(location LocationID, date string, field Field, policy NullPolicy) TrendSeries {
	series := TrendSeries{Location: location, Field: field}

	var values []*float64
	for _, r := range t.Filter([]LocationID{location}) {
		if date != "" && r.Date != date {
			continue
		}
		series.Points = append(series.Points, TrendPoint{Date: r.Date, Hour: r.Hour})
		values = append(values, field.value(r))
	}

	for i, v := range Interpolate(values, policy) {
		series.Points[i].Value = v
	}
	return series
}
