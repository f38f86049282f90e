package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/i474232898/weerlive-forecast/internal/weather"
)

// DefaultWeerliveURL is the Weerlive v2 endpoint.
const DefaultWeerliveURL = "https://weerlive.nl/api/weerlive_api_v2.php"

// WeerliveProvider implements the weather.Provider interface for weerlive.nl.
type WeerliveProvider struct {
	name     string
	apiKey   string
	baseURL  string
	client   *http.Client
	breakers *breakerSet
	limiter  *rate.Limiter
}

func NewWeerliveProvider(client *http.Client, baseURL, apiKey string, breaker BreakerConfig) *WeerliveProvider {
	if baseURL == "" {
		baseURL = DefaultWeerliveURL
	}
	return &WeerliveProvider{
		name:     "weerlive",
		apiKey:   apiKey,
		baseURL:  baseURL,
		client:   client,
		breakers: newBreakerSet("weerlive", breaker),
	}
}

// WithRateLimit caps outbound requests across all locations. Weerlive keys
// carry a daily quota; a non-positive rps removes the cap.
func (p *WeerliveProvider) WithRateLimit(rps float64, burst int) *WeerliveProvider {
	if rps <= 0 {
		p.limiter = nil
		return p
	}
	if burst < 1 {
		burst = 1
	}
	p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return p
}

func (p *WeerliveProvider) Name() string {
	return p.name
}

// weerlivePayload mirrors the top-level keys of a Weerlive response. Every
// record is kept as a flat map; typing happens in the normalizer.
type weerlivePayload struct {
	Live   []map[string]any `json:"liveweer"`
	Daily  []map[string]any `json:"wk_verw"`
	Hourly []map[string]any `json:"uur_verw"`
	API    []map[string]any `json:"api"`
}

// Fetch retrieves the forecast of one location. Transport errors, non-2xx
// responses and malformed bodies are all reported as
// weather.ErrLocationUnavailable.
func (p *WeerliveProvider) Fetch(ctx context.Context, loc weather.LocationID) (weather.FetchResult, error) {
	if p.apiKey == "" {
		return weather.FetchResult{}, fmt.Errorf("%w: weerlive api key is not configured", weather.ErrLocationUnavailable)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return weather.FetchResult{}, fmt.Errorf("%w: %s: rate limit wait: %v", weather.ErrLocationUnavailable, loc, err)
		}
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("locatie", string(loc))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	var payload weerlivePayload
	decode := func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(&payload); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		// Weerlive reports bad keys and unknown places with a 200 and a "fout"
		// field in the live record.
		for _, live := range payload.Live {
			if msg, ok := live["fout"]; ok {
				return fmt.Errorf("provider error: %v", msg)
			}
		}
		return nil
	}

	if err := doRequest(ctx, p.client, p.breakers.get(string(loc)), buildRequest, decode); err != nil {
		return weather.FetchResult{}, fmt.Errorf("%w: %s: %v", weather.ErrLocationUnavailable, loc, err)
	}

	return weather.FetchResult{
		Live:   tag(loc, payload.Live),
		Daily:  tag(loc, payload.Daily),
		Hourly: tag(loc, payload.Hourly),
		Meta:   tag(loc, payload.API),
	}, nil
}

// tag attaches the requested location to every record. The provider only
// names the location in some of them.
func tag(loc weather.LocationID, records []map[string]any) []weather.RawRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]weather.RawRecord, 0, len(records))
	for _, r := range records {
		out = append(out, weather.RawRecord{Location: loc, Fields: r})
	}
	return out
}
