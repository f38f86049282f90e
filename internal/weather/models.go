package weather

import (
	"time"

	"github.com/google/uuid"
)

// LocationID names a configured place (a city). Weerlive identifies
// locations by name only.
type LocationID string

// RawRecord is one provider record before normalization, tagged with the
// location it was fetched for. The provider does not echo the location in
// every nested record, so the tag is the authoritative source.
type RawRecord struct {
	Location LocationID
	Fields   map[string]any
}

// Field returns the raw value for key, or nil if absent.
func (r RawRecord) Field(key string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[key]
}

// FetchResult holds the four record collections of one fetch cycle.
// It is never modified after Fetch returns.
type FetchResult struct {
	Live   []RawRecord `json:"live"`
	Daily  []RawRecord `json:"daily"`
	Hourly []RawRecord `json:"hourly"`
	Meta   []RawRecord `json:"meta"`

	// Unavailable lists the locations that contributed nothing.
	Unavailable []LocationID `json:"unavailable,omitempty"`
}

// HourRow is the canonical, per-location, per-hour forecast row.
// Nil numeric fields mean "no data", which is distinct from zero.
type HourRow struct {
	Location      LocationID `json:"location"`
	Date          string     `json:"date"`
	Hour          string     `json:"hour"`
	Timestamp     time.Time  `json:"timestamp"`
	Temperature   *float64   `json:"temperature"`
	Precipitation *float64   `json:"precipitation"`
	Irradiance    *float64   `json:"irradiance"`
	Condition     string     `json:"condition"`
	Icon          string     `json:"icon"`
	Category      Condition  `json:"category"`
	Lat           *float64   `json:"lat"`
	Lon           *float64   `json:"lon"`
}

// Placeable reports whether the row has coordinates.
func (r HourRow) Placeable() bool {
	return r.Lat != nil && r.Lon != nil
}

// DailyAggregate summarizes the non-null temperatures of one location on one date.
type DailyAggregate struct {
	Location LocationID `json:"location"`
	Date     string     `json:"date"`
	Max      float64    `json:"maxTemperature"`
	Min      float64    `json:"minTemperature"`
	Mean     float64    `json:"meanTemperature"`
	Samples  int        `json:"samples"`
}

// Dataset is the immutable outcome of one session. A new session always
// produces a new Dataset; rows are never edited in place.
type Dataset struct {
	SessionID uuid.UUID        `json:"sessionId"`
	FetchedAt time.Time        `json:"fetchedAt"`
	Locations []LocationID     `json:"locations"`
	Raw       FetchResult      `json:"-"`
	Table     Table            `json:"-"`
	Daily     []DailyAggregate `json:"-"`
}

// Selection carries the caller's view state: which locations are selected,
// which hour was last requested and the wall clock to resolve against.
type Selection struct {
	Locations []LocationID
	Hour      string
	Now       time.Time
}

// HourView is the slice of the table used for point-in-time displays.
type HourView struct {
	Hour      string    `json:"hour"`
	Requested string    `json:"requested,omitempty"`
	Available []string  `json:"available"`
	Rows      []HourRow `json:"rows"`
}

// LiveObservation is the typed view of a liveweer record.
type LiveObservation struct {
	Location    LocationID `json:"location"`
	Temperature *float64   `json:"temperature"`
	Summary     string     `json:"summary"`
	Condition   string     `json:"condition"`
	Icon        string     `json:"icon"`
}

// DaySummary backs the "today" panel of one location.
type DaySummary struct {
	Location LocationID      `json:"location"`
	Date     string          `json:"date"`
	Max      *float64        `json:"maxTemperature"`
	Min      *float64        `json:"minTemperature"`
	Mean     *float64        `json:"meanTemperature"`
	Summary  string          `json:"summary"`
	Hourly   *DailyAggregate `json:"hourly,omitempty"`
}
