package weather

import (
	"context"
	"time"
)

// Provider abstracts the forecast source. Fetch returns the records of a
// single location, each already tagged with that location.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc LocationID) (FetchResult, error)
}

// Store is the contract the in-memory dataset store satisfies.
type Store interface {
	SaveDataset(ds *Dataset)
	GetLatest() (*Dataset, error)
	GetRange(from, to time.Time) ([]*Dataset, error)
}

// Recorder receives pipeline observations, typically for metrics.
type Recorder interface {
	ObserveFetch(loc LocationID, err error)
	ObserveSession(ds *Dataset, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(LocationID, error) {}

func (nopRecorder) ObserveSession(*Dataset, time.Duration) {}
