package weather

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionClock = time.Date(2025, 1, 19, 10, 20, 0, 0, time.UTC)

func newTestService(t *testing.T, p Provider, opts ...Option) (*Service, *memStore) {
	t.Helper()
	store := &memStore{}
	opts = append([]Option{WithClock(func() time.Time { return sessionClock })}, opts...)
	svc := NewService(store, p, testNormalizer(), []LocationID{"Amsterdam", "Assen", "Zwolle"}, opts...)
	return svc, store
}

func seededProvider() *fakeProvider {
	return &fakeProvider{results: map[LocationID]FetchResult{
		"Amsterdam": {
			Live: []RawRecord{record("Amsterdam", map[string]any{"temp": "6.1", "samenv": "Zwaar bewolkt", "image": "bewolkt"})},
			Daily: []RawRecord{
				record("Amsterdam", map[string]any{"dag": "Vandaag", "tmax": "9", "tmin": "3", "samenv": "Regen"}),
				record("Amsterdam", map[string]any{"dag": "Morgen", "tmax": "11", "tmin": "5"}),
			},
			Hourly: []RawRecord{
				record("Amsterdam", map[string]any{"timestamp": ts(9, 0), "temp": 5.0, "image": "regen"}),
				record("Amsterdam", map[string]any{"timestamp": ts(10, 0), "temp": nil}),
				record("Amsterdam", map[string]any{"timestamp": ts(11, 0), "temp": 9.0}),
			},
		},
		"Zwolle": {
			Daily: []RawRecord{
				record("Zwolle", map[string]any{"dag": "20-01-2025", "tmax": "4", "tmin": "0", "samenv": "Sneeuw"}),
			},
			Hourly: []RawRecord{
				record("Zwolle", map[string]any{"timestamp": ts(12, 0), "temp": 1.0}),
			},
		},
	}}
}

func TestService_Refresh(t *testing.T) {
	rec := &countingRecorder{}
	svc, store := newTestService(t, seededProvider(), WithRecorder(rec))

	ds, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, store.datasets, 1)
	assert.Same(t, ds, store.datasets[0])
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", ds.SessionID.String())
	assert.Equal(t, sessionClock, ds.FetchedAt)
	assert.Equal(t, []LocationID{"Assen"}, ds.Raw.Unavailable)
	assert.Len(t, ds.Table.Rows, 4)
	require.Len(t, ds.Daily, 2)
	assert.Equal(t, 1, rec.sessions)

	next, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, ds.SessionID, next.SessionID)
	assert.Len(t, ds.Table.Rows, 4, "earlier dataset is not touched")
}

func TestService_RefreshWithoutLocations(t *testing.T) {
	svc := NewService(&memStore{}, seededProvider(), testNormalizer(), nil)

	_, err := svc.Refresh(context.Background())
	assert.Error(t, err)
}

func TestService_SelectHour(t *testing.T) {
	svc, _ := newTestService(t, seededProvider())

	_, err := svc.SelectHour(Selection{})
	assert.ErrorIs(t, err, errNoData)

	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)

	view, err := svc.SelectHour(Selection{})
	require.NoError(t, err)
	assert.Equal(t, "10:00", view.Hour)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00"}, view.Available)
	require.Len(t, view.Rows, 1)
	assert.Nil(t, view.Rows[0].Temperature)

	view, err = svc.SelectHour(Selection{Locations: []LocationID{"Zwolle"}, Hour: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "12:00", view.Hour, "requested hour is not available for Zwolle")
	assert.Equal(t, "09:00", view.Requested)

	view, err = svc.SelectHour(Selection{Locations: []LocationID{"Amsterdam"}, Hour: "11:00", Now: sessionClock.Add(5 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "11:00", view.Hour)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, 9.0, *view.Rows[0].Temperature)
}

func TestService_SelectHourEmptySchedule(t *testing.T) {
	svc, _ := newTestService(t, seededProvider())
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	view, err := svc.SelectHour(Selection{Locations: []LocationID{"Assen"}})

	assert.ErrorIs(t, err, ErrEmptySchedule)
	assert.Empty(t, view.Hour)
	assert.NotNil(t, view.Available)
	assert.NotNil(t, view.Rows)
}

func TestService_DailyTrendLive(t *testing.T) {
	svc, _ := newTestService(t, seededProvider())
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	daily, err := svc.Daily("Amsterdam")
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 9.0, daily[0].Max)
	assert.Equal(t, 7.0, daily[0].Mean)

	trend, err := svc.Trend(nil, "", FieldTemperatureSeries)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, []any{5.0, 7.0, 9.0}, values([]*float64{
		trend[0].Points[0].Value, trend[0].Points[1].Value, trend[0].Points[2].Value,
	}))
	assert.Empty(t, trend[1].Points)

	live, err := svc.Live("")
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, 6.1, *live[0].Temperature)
	assert.Equal(t, "bewolkt.png", live[0].Icon)
}

func TestService_Summary(t *testing.T) {
	svc, _ := newTestService(t, seededProvider())
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	t.Run("today record with live override", func(t *testing.T) {
		sum, err := svc.Summary("Amsterdam", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, "2025-01-19", sum.Date)
		assert.Equal(t, 9.0, *sum.Max)
		assert.Equal(t, 3.0, *sum.Min)
		assert.Equal(t, 6.0, *sum.Mean)
		assert.Equal(t, "Zwaar bewolkt", sum.Summary)
		require.NotNil(t, sum.Hourly)
		assert.Equal(t, 2, sum.Hourly.Samples)
	})

	t.Run("falls back to first daily record", func(t *testing.T) {
		sum, err := svc.Summary("Zwolle", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 4.0, *sum.Max)
		assert.Equal(t, 0.0, *sum.Min)
		assert.Equal(t, "Sneeuw", sum.Summary)
	})

	t.Run("location without data", func(t *testing.T) {
		sum, err := svc.Summary("Assen", time.Time{})
		require.NoError(t, err)
		assert.Nil(t, sum.Max)
		assert.Nil(t, sum.Hourly)
	})

	t.Run("unknown location", func(t *testing.T) {
		_, err := svc.Summary("Parijs", time.Time{})
		assert.ErrorIs(t, err, ErrUnknownLocation)
	})
}

func TestService_Locations(t *testing.T) {
	svc := NewService(&memStore{}, nil, testNormalizer(), []LocationID{"Zwolle", "Vlieland"})

	locs := svc.Locations()

	require.Len(t, locs, 2)
	assert.Equal(t, LocationID("Zwolle"), locs[0].Name)
	assert.Equal(t, 52.5167, *locs[0].Lat)
	assert.Nil(t, locs[1].Lat)
}

func TestService_ValidateLocations(t *testing.T) {
	svc, _ := newTestService(t, seededProvider())

	assert.NoError(t, svc.ValidateLocations(nil))
	assert.NoError(t, svc.ValidateLocations([]LocationID{"Zwolle", "Assen"}))
	err := svc.ValidateLocations([]LocationID{"Zwolle", "Parijs"})
	assert.ErrorIs(t, err, ErrUnknownLocation)
	assert.ErrorContains(t, err, "Parijs")
}
