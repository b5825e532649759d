// Package scheduler triggers season refreshes on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/truerecord/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ErrNoSchedule is returned by Start when the spec is empty.
var ErrNoSchedule = errors.New("no refresh schedule configured")

// Trigger starts one refresh. It should enqueue work and return quickly.
type Trigger func(ctx context.Context) error

// Scheduler wraps a cron runner with a single refresh entry.
type Scheduler struct {
	spec     string
	location *time.Location
	trigger  Trigger
	timeout  time.Duration
	log      logger.Logger

	cron    *cron.Cron
	entryID cron.EntryID
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithLocation sets the cron time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithTriggerTimeout bounds each trigger call.
func WithTriggerTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// New validates spec (standard five-field cron syntax or a descriptor such
// as "@every 1h") and builds a scheduler. An empty spec is allowed and
// makes Start return ErrNoSchedule.
func New(spec string, trigger Trigger, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		spec:     spec,
		location: time.Local,
		trigger:  trigger,
		timeout:  30 * time.Second,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
		}
	}
	return s, nil
}

// Start registers the entry and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.spec == "" {
		return ErrNoSchedule
	}
	s.cron = cron.New(cron.WithLocation(s.location))
	id, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("add refresh entry: %w", err)
	}
	s.entryID = id
	s.cron.Start()
	s.log.Info(ctx, "refresh scheduler started",
		logger.String("schedule", s.spec),
		logger.String("location", s.location.String()),
		logger.Any("next", s.Next()))
	return nil
}

// RunNow fires the trigger immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.run(ctx)
}

func (s *Scheduler) run(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	if err := s.trigger(ctx); err != nil {
		s.log.Warn(ctx, "scheduled refresh not started", logger.Error(err))
		return
	}
	s.log.Info(ctx, "scheduled refresh triggered")
}

// Next returns the next activation, or the zero time when not running.
func (s *Scheduler) Next() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Stop halts the runner and waits for a running trigger up to ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
