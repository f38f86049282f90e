package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig controls the per-location circuit breakers.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Zero disables tripping.
	ConsecutiveFailures uint32
	// OpenTimeout is how long a tripped breaker rejects requests.
	OpenTimeout time.Duration
}

// DefaultBreakerConfig trips after three consecutive failures of the same
// location and probes again after two minutes.
var DefaultBreakerConfig = BreakerConfig{
	ConsecutiveFailures: 3,
	OpenTimeout:         2 * time.Minute,
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// breakerSet lazily creates one circuit breaker per key so that a failing
// location never blocks requests for the others.
type breakerSet struct {
	mu       sync.Mutex
	name     string
	cfg      BreakerConfig
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerSet(name string, cfg BreakerConfig) *breakerSet {
	return &breakerSet{
		name:     name,
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (b *breakerSet) get(key string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[key]; ok {
		return cb
	}

	threshold := b.cfg.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        b.name + ":" + key,
		MaxRequests: 1,
		Timeout:     b.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
	})
	b.breakers[key] = cb
	return cb
}

// doRequest executes a single request through the circuit breaker and hands
// a 2xx body to decode inside it, so a body the provider cannot parse counts
// as a breaker failure too. There is no retry: a failed request is reported
// to the caller as is.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
	decode func(body io.Reader) error,
) error {
	if client == nil {
		return errNoHTTPClient
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return err
	}

	_, err = cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, decode(resp.Body)
		}

		snippet := readSnippet(resp.Body)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errRateLimited
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %d %s", errServerError, resp.StatusCode, snippet)
		default:
			return nil, fmt.Errorf("%w: %d %s", errUnexpected, resp.StatusCode, snippet)
		}
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	return err
}

func readSnippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(body))
}
