package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weerlive-forecast/internal/logger"
	"github.com/i474232898/weerlive-forecast/internal/weather"
)

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*weather.Dataset, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("missing deadline")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &weather.Dataset{SessionID: uuid.New()}, nil
}

// lockedBuffer guards log output written from the scheduler goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Contains(s string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Contains(b.buf.Bytes(), []byte(s))
}

func TestScheduler_SingleSession(t *testing.T) {
	r := &fakeRefresher{}
	var buf lockedBuffer
	s := New(r, 0, time.Second, time.UTC, logger.NewWithWriter("info", &buf))

	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Eventually(t, func() bool {
		return buf.Contains("completed forecast session")
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_Interval(t *testing.T) {
	r := &fakeRefresher{}
	s := New(r, time.Second, time.Second, nil, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)
}

func TestScheduler_FailedSessionIsLogged(t *testing.T) {
	r := &fakeRefresher{err: errors.New("no locations configured")}
	var buf lockedBuffer
	s := New(r, 0, time.Second, time.UTC, logger.NewWithWriter("info", &buf))

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return buf.Contains("session failed")
	}, time.Second, 10*time.Millisecond)
}
