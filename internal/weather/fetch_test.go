package weather

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weerlive-forecast/internal/logger"
)

func cityResult(loc LocationID, temp float64) FetchResult {
	return FetchResult{
		Live:   []RawRecord{record(loc, map[string]any{"temp": temp})},
		Daily:  []RawRecord{record(loc, map[string]any{"dag": "Vandaag", "tmax": temp + 2})},
		Hourly: []RawRecord{record(loc, map[string]any{"timestamp": ts(10, 0), "temp": temp})},
		Meta:   []RawRecord{record(loc, map[string]any{"bron": "weerlive"})},
	}
}

func TestFetch_OneLocationFails(t *testing.T) {
	p := &fakeProvider{results: map[LocationID]FetchResult{
		"Amsterdam": cityResult("Amsterdam", 6),
		"Zwolle":    cityResult("Zwolle", 4),
	}}
	var buf bytes.Buffer
	rec := &countingRecorder{}

	res := Fetch(context.Background(), p, []LocationID{"Amsterdam", "Assen", "Zwolle"}, logger.NewWithWriter("debug", &buf), rec)

	assert.Equal(t, []LocationID{"Assen"}, res.Unavailable)
	require.Len(t, res.Hourly, 2)
	assert.Equal(t, LocationID("Amsterdam"), res.Hourly[0].Location)
	assert.Equal(t, 6.0, res.Hourly[0].Field("temp"))
	assert.Equal(t, LocationID("Zwolle"), res.Hourly[1].Location)
	assert.Equal(t, 4.0, res.Hourly[1].Field("temp"))
	assert.Len(t, res.Live, 2)
	assert.Len(t, res.Daily, 2)
	assert.Len(t, res.Meta, 2)

	assert.Equal(t, []LocationID{"Assen"}, rec.failed)
	assert.Equal(t, []LocationID{"Amsterdam", "Zwolle"}, rec.ok)
	assert.Contains(t, buf.String(), "fetched 2 of 3 locations")
	assert.Contains(t, buf.String(), `"location":"Assen"`)
}

func TestFetch_MergeOrderIgnoresCompletionOrder(t *testing.T) {
	p := &fakeProvider{
		results: map[LocationID]FetchResult{
			"Amsterdam": cityResult("Amsterdam", 1),
			"Assen":     cityResult("Assen", 2),
			"Zwolle":    cityResult("Zwolle", 3),
		},
		delay: map[LocationID]time.Duration{
			"Amsterdam": 30 * time.Millisecond,
			"Assen":     15 * time.Millisecond,
		},
	}

	res := Fetch(context.Background(), p, []LocationID{"Zwolle", "Assen", "Amsterdam"}, nil, nil)

	require.Len(t, res.Hourly, 3)
	got := []LocationID{res.Hourly[0].Location, res.Hourly[1].Location, res.Hourly[2].Location}
	assert.Equal(t, []LocationID{"Amsterdam", "Assen", "Zwolle"}, got)
	assert.Empty(t, res.Unavailable)
	assert.Len(t, p.calls, 3)
}

func TestFetch_AllFail(t *testing.T) {
	p := &fakeProvider{}

	res := Fetch(context.Background(), p, []LocationID{"Assen", "Amsterdam"}, nil, nil)

	assert.Empty(t, res.Hourly)
	assert.Empty(t, res.Live)
	assert.Equal(t, []LocationID{"Amsterdam", "Assen"}, res.Unavailable)
}
