package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weerlive-forecast/internal/weather"
)

var (
	// ErrNotFound is returned when no dataset has been stored yet, or none
	// falls in the requested window.
	ErrNotFound = errors.New("no forecast dataset available")
)

// MemoryStore is a concurrency-safe in-memory history of forecast datasets.
// Datasets are kept in fetch order and are never modified once saved.
type MemoryStore struct {
	mu sync.RWMutex

	datasets []*weather.Dataset

	// retention configuration
	maxHistory int           // max number of datasets kept
	maxAge     time.Duration // optional max age of datasets

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveDataset appends a dataset and enforces retention. The newest dataset
// always survives retention, even when it is older than maxAge.
func (s *MemoryStore) SaveDataset(ds *weather.Dataset) {
	if ds == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets = append(s.datasets, ds)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.datasets) > s.maxHistory {
		over := len(s.datasets) - s.maxHistory
		s.datasets = append([]*weather.Dataset(nil), s.datasets[over:]...)
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.datasets)-1; i++ {
			if !s.datasets[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.datasets = append([]*weather.Dataset(nil), s.datasets[i:]...)
		}
	}
}

// GetLatest returns the most recent dataset.
func (s *MemoryStore) GetLatest() (*weather.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.datasets) == 0 {
		return nil, ErrNotFound
	}
	return s.datasets[len(s.datasets)-1], nil
}

// GetRange returns all datasets fetched between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]*weather.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*weather.Dataset
	for _, ds := range s.datasets {
		if !ds.FetchedAt.Before(from) && !ds.FetchedAt.After(to) {
			result = append(result, ds)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Len reports how many datasets are retained.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
