package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weerlive-forecast/internal/logger"
	"github.com/i474232898/weerlive-forecast/internal/weather"
)

// Refresher runs one forecast session.
type Refresher interface {
	Refresh(ctx context.Context) (*weather.Dataset, error)
}

// Scheduler triggers forecast sessions. With a zero interval a single session
// runs at start; otherwise a new session starts on every tick.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	timeout   time.Duration
	log       logger.Logger
}

// New creates a new Scheduler running sessions in zone.
func New(service Refresher, interval, timeout time.Duration, zone *time.Location, log logger.Logger) *Scheduler {
	if zone == nil {
		zone = time.UTC
	}
	if log == nil {
		log = logger.Discard()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(zone),
		service:   service,
		interval:  interval,
		timeout:   timeout,
		log:       log,
	}
}

// Start schedules the session job and starts the underlying scheduler.
// The first session runs immediately.
func (s *Scheduler) Start() error {
	var job *gocron.Scheduler
	if s.interval > 0 {
		job = s.scheduler.Every(s.interval).SingletonMode()
	} else {
		job = s.scheduler.Every(1).Day().LimitRunsTo(1)
	}

	if _, err := job.Do(s.run); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	s.log.Infof("scheduler: running forecast session")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ds, err := s.service.Refresh(ctx)
	if err != nil {
		s.log.Errorf("scheduler: session failed: %v", err)
		return
	}
	s.log.WithField("session", ds.SessionID.String()).Infof("scheduler: completed forecast session")
}

// Stop stops the scheduler and cancels any future sessions.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
