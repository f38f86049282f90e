package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weerlive-forecast/internal/logger"
)

// Service runs forecast sessions and answers queries against the latest one.
type Service struct {
	store      Store
	provider   Provider
	normalizer *Normalizer
	locations  []LocationID
	policy     NullPolicy
	log        logger.Logger
	recorder   Recorder
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithNullPolicy sets how all-null trend series are rendered.
func WithNullPolicy(p NullPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, normalizer *Normalizer, locations []LocationID, opts ...Option) *Service {
	s := &Service{
		store:      store,
		provider:   provider,
		normalizer: normalizer,
		locations:  locations,
		policy:     ZeroFill,
		log:        logger.Discard(),
		recorder:   nopRecorder{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh runs one session: fetch every location, normalize the hourly
// records, aggregate per day and store the resulting dataset.
func (s *Service) Refresh(ctx context.Context) (*Dataset, error) {
	if len(s.locations) == 0 {
		return nil, fmt.Errorf("no locations configured")
	}
	if s.provider == nil {
		return nil, fmt.Errorf("no weather provider configured")
	}

	started := s.now()
	raw := Fetch(ctx, s.provider, s.locations, s.log, s.recorder)
	table := s.normalizer.Normalize(raw.Hourly)

	ds := &Dataset{
		SessionID: uuid.New(),
		FetchedAt: started.In(s.normalizer.Zone()),
		Locations: append([]LocationID(nil), s.locations...),
		Raw:       raw,
		Table:     table,
		Daily:     Aggregate(table),
	}

	s.store.SaveDataset(ds)
	elapsed := s.now().Sub(started)
	s.recorder.ObserveSession(ds, elapsed)

	s.log.WithFields(map[string]interface{}{
		"session":     ds.SessionID.String(),
		"rows":        table.Stats.Rows,
		"duplicates":  table.Stats.Duplicates,
		"unavailable": len(raw.Unavailable),
	}).Infof("session completed in %s", elapsed)

	if table.Stats.InvalidTimestamps > 0 {
		s.log.Warnf("dropped %d hourly records without a valid timestamp", table.Stats.InvalidTimestamps)
	}
	if table.Stats.MissingCoordinates > 0 {
		s.log.Debugf("%d rows have no coordinates and cannot be placed on a map", table.Stats.MissingCoordinates)
	}
	return ds, nil
}

// Latest returns the most recent dataset.
func (s *Service) Latest() (*Dataset, error) {
	return s.store.GetLatest()
}

// Sessions returns the datasets fetched between from and to.
func (s *Service) Sessions(from, to time.Time) ([]*Dataset, error) {
	return s.store.GetRange(from, to)
}

// LocationInfo describes a configured location and where it sits on a map.
type LocationInfo struct {
	Name LocationID `json:"name"`
	Lat  *float64   `json:"lat"`
	Lon  *float64   `json:"lon"`
}

// Locations lists the configured locations in configuration order.
func (s *Service) Locations() []LocationInfo {
	out := make([]LocationInfo, 0, len(s.locations))
	for _, l := range s.locations {
		info := LocationInfo{Name: l}
		if c, ok := s.normalizer.Coordinate(l); ok {
			info.Lat = floatPtr(c.Lat)
			info.Lon = floatPtr(c.Lon)
		}
		out = append(out, info)
	}
	return out
}

// SelectHour resolves the hour slice for sel against the latest dataset.
// When nothing is available the returned view is empty and the error is
// ErrEmptySchedule.
func (s *Service) SelectHour(sel Selection) (HourView, error) {
	ds, err := s.Latest()
	if err != nil {
		return HourView{}, err
	}

	now := sel.Now
	if now.IsZero() {
		now = s.now()
	}
	now = now.In(s.normalizer.Zone())

	view := HourView{
		Requested: sel.Hour,
		Available: ds.Table.Hours(sel.Locations),
		Rows:      []HourRow{},
	}
	if view.Available == nil {
		view.Available = []string{}
	}

	hour, err := SelectHour(view.Available, sel.Hour, now)
	if err != nil {
		return view, err
	}
	view.Hour = hour
	if rows := ds.Table.At(hour, sel.Locations); rows != nil {
		view.Rows = rows
	}
	return view, nil
}

// Daily returns the daily aggregates, optionally for a single location.
func (s *Service) Daily(location LocationID) ([]DailyAggregate, error) {
	ds, err := s.Latest()
	if err != nil {
		return nil, err
	}
	out := []DailyAggregate{}
	for _, d := range ds.Daily {
		if location == "" || d.Location == location {
			out = append(out, d)
		}
	}
	return out, nil
}

// Trend returns one interpolated series per location. No locations means
// every configured location.
func (s *Service) Trend(locations []LocationID, date string, field Field) ([]TrendSeries, error) {
	ds, err := s.Latest()
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		locations = ds.Locations
	}
	out := make([]TrendSeries, 0, len(locations))
	for _, l := range locations {
		out = append(out, ds.Table.Trend(l, date, field, s.policy))
	}
	return out, nil
}

// Live returns the live observations, optionally for a single location.
func (s *Service) Live(location LocationID) ([]LiveObservation, error) {
	ds, err := s.Latest()
	if err != nil {
		return nil, err
	}
	out := []LiveObservation{}
	for _, rec := range ds.Raw.Live {
		if location == "" || rec.Location == location {
			out = append(out, s.normalizer.Observation(rec))
		}
	}
	return out, nil
}

// Summary builds the "today" panel for one location. Max and min come from
// the daily forecast record for today, or the first daily record when none
// is labelled as today.
func (s *Service) Summary(location LocationID, now time.Time) (DaySummary, error) {
	ds, err := s.Latest()
	if err != nil {
		return DaySummary{}, err
	}
	if !s.known(location) {
		return DaySummary{}, fmt.Errorf("%w: %s", ErrUnknownLocation, location)
	}
	if now.IsZero() {
		now = s.now()
	}
	now = now.In(s.normalizer.Zone())

	sum := DaySummary{Location: location, Date: now.Format(dateLayout)}

	if rec, ok := todayRecord(ds.Raw.Daily, location, now); ok {
		sum.Max = Coerce(rec.Field(FieldMaxTemp))
		sum.Min = Coerce(rec.Field(FieldMinTemp))
		if sum.Max != nil && sum.Min != nil {
			sum.Mean = floatPtr((*sum.Max + *sum.Min) / 2)
		}
		if text, ok := rec.Field(FieldSummary).(string); ok {
			sum.Summary = text
		}
	}

	if obs, ok := s.liveFor(ds, location); ok {
		if obs.Summary != "" {
			sum.Summary = obs.Summary
		} else if sum.Summary == "" {
			sum.Summary = obs.Condition
		}
	}

	if agg, ok := AggregateFor(ds.Daily, location, sum.Date); ok {
		sum.Hourly = &agg
	}
	return sum, nil
}

func (s *Service) liveFor(ds *Dataset, location LocationID) (LiveObservation, bool) {
	for _, rec := range ds.Raw.Live {
		if rec.Location == location {
			return s.normalizer.Observation(rec), true
		}
	}
	return LiveObservation{}, false
}

// ValidateLocations reports ErrUnknownLocation for the first location that
// is not configured.
func (s *Service) ValidateLocations(locations []LocationID) error {
	for _, l := range locations {
		if !s.known(l) {
			return fmt.Errorf("%w: %s", ErrUnknownLocation, l)
		}
	}
	return nil
}

func (s *Service) known(location LocationID) bool {
	for _, l := range s.locations {
		if l == location {
			return true
		}
	}
	return false
}

const fieldDay = "dag"

// todayRecord finds the daily forecast of location for now. Weerlive labels
// days either as "Vandaag" or as a dd-mm-yyyy date.
func todayRecord(daily []RawRecord, location LocationID, now time.Time) (RawRecord, bool) {
	var first *RawRecord
	today := now.Format("02-01-2006")
	for i := range daily {
		rec := daily[i]
		if rec.Location != location {
			continue
		}
		if first == nil {
			first = &daily[i]
		}
		if day, ok := rec.Field(fieldDay).(string); ok {
			day = strings.TrimSpace(day)
			if strings.EqualFold(day, "vandaag") || day == today {
				return rec, true
			}
		}
	}
	if first == nil {
		return RawRecord{}, false
	}
	return *first, true
}
