package weather

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ts returns UNIX seconds for a UTC wall clock time on 2025-01-19.
func ts(hour, minute int) int64 {
	return time.Date(2025, 1, 19, hour, minute, 0, 0, time.UTC).Unix()
}

func record(loc LocationID, fields map[string]any) RawRecord {
	return RawRecord{Location: loc, Fields: fields}
}

func ptr(v float64) *float64 {
	return &v
}

func values(series []*float64) []any {
	out := make([]any, len(series))
	for i, v := range series {
		if v == nil {
			out[i] = nil
			continue
		}
		out[i] = *v
	}
	return out
}

func testNormalizer() *Normalizer {
	return NewNormalizer(time.UTC, map[LocationID]Coordinate{
		"Amsterdam": {Lat: 52.3676, Lon: 4.9041},
		"Assen":     {Lat: 52.9929, Lon: 6.5642},
		"Zwolle":    {Lat: 52.5167, Lon: 6.0833},
	}, NewIconSet(DefaultIcons(), DefaultFallbackIcon))
}

// fakeProvider serves canned results per location and fails the rest.
type fakeProvider struct {
	results map[LocationID]FetchResult
	delay   map[LocationID]time.Duration

	mu    sync.Mutex
	calls []LocationID
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Fetch(ctx context.Context, loc LocationID) (FetchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, loc)
	f.mu.Unlock()

	if d := f.delay[loc]; d > 0 {
		time.Sleep(d)
	}
	res, ok := f.results[loc]
	if !ok {
		return FetchResult{}, fmt.Errorf("status 500")
	}
	return res, nil
}

type memStore struct {
	mu       sync.Mutex
	datasets []*Dataset
}

func (m *memStore) SaveDataset(ds *Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets = append(m.datasets, ds)
}

var errNoData = fmt.Errorf("no data")

func (m *memStore) GetLatest() (*Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.datasets) == 0 {
		return nil, errNoData
	}
	return m.datasets[len(m.datasets)-1], nil
}

func (m *memStore) GetRange(from, to time.Time) ([]*Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Dataset
	for _, ds := range m.datasets {
		if !ds.FetchedAt.Before(from) && !ds.FetchedAt.After(to) {
			out = append(out, ds)
		}
	}
	return out, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	failed   []LocationID
	ok       []LocationID
	sessions int
}

func (c *countingRecorder) ObserveFetch(loc LocationID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failed = append(c.failed, loc)
		return
	}
	c.ok = append(c.ok, loc)
}

func (c *countingRecorder) ObserveSession(*Dataset, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions++
}
