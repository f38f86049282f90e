package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weerlive-forecast/internal/weather"
)

func scrape(t *testing.T, r *PrometheusRecorder) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestPrometheusRecorder(t *testing.T) {
	r := NewPrometheusRecorder()

	r.ObserveFetch("Amsterdam", nil)
	r.ObserveFetch("Amsterdam", nil)
	r.ObserveFetch("Assen", errors.New("status 500"))
	r.ObserveSession(&weather.Dataset{
		FetchedAt: time.Unix(1737280800, 0),
		Raw:       weather.FetchResult{Unavailable: []weather.LocationID{"Assen"}},
		Table: weather.Table{Stats: weather.NormalizeStats{
			Rows:               40,
			Duplicates:         2,
			InvalidTimestamps:  1,
			CoercionFailures:   map[string]int{"temp": 3},
			MissingCoordinates: 5,
		}},
	}, 1500*time.Millisecond)

	body := scrape(t, r)

	assert.Contains(t, body, `weerlive_fetch_total{location="Amsterdam",outcome="ok"} 2`)
	assert.Contains(t, body, `weerlive_fetch_total{location="Assen",outcome="unavailable"} 1`)
	assert.Contains(t, body, `weerlive_coercion_failures_total{field="temp"} 3`)
	assert.Contains(t, body, "weerlive_invalid_timestamps_total 1")
	assert.Contains(t, body, "weerlive_duplicate_rows_total 2")
	assert.Contains(t, body, "weerlive_rows 40")
	assert.Contains(t, body, "weerlive_rows_without_coordinates 5")
	assert.Contains(t, body, "weerlive_unavailable_locations 1")
	assert.Contains(t, body, "weerlive_session_duration_seconds_count 1")
	assert.Contains(t, body, "weerlive_last_session_timestamp_seconds 1.7372808e+09")
	assert.Contains(t, body, "go_goroutines")
}

func TestPrometheusRecorder_NilDataset(t *testing.T) {
	r := NewPrometheusRecorder()

	r.ObserveSession(nil, time.Second)

	assert.Contains(t, scrape(t, r), "weerlive_session_duration_seconds_count 1")
}
