package core

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

// SchedulerConfig configures the cooperative scheduler's defaults.
type SchedulerConfig struct {
	Priority  int
	TimeSlice time.Duration
}

// Scheduler is the cooperative time-sliced runner on top of the processor.
// It also supports an alternate cron-driven mode via
// `github.com/robfig/cron/v3`.
type Scheduler struct {
	FacetBase

	sub *BaseSubsystem

	mu          sync.Mutex
	priority    int
	paused      bool
	processing  bool
	defaultSlice time.Duration

	cronRunner *cron.Cron
	cronEntry  cron.EntryID
}

// NewSchedulerFacet constructs a Scheduler facet bound to sub.
func NewSchedulerFacet(sub *BaseSubsystem, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		FacetBase:    NewFacetBase("scheduler"),
		sub:          sub,
		priority:     cfg.Priority,
		defaultSlice: cfg.TimeSlice,
	}
	s.SetProperty("scheduler", s)
	s.OnDispose(func(ctx context.Context) error {
		s.mu.Lock()
		runner := s.cronRunner
		s.cronRunner = nil
		s.mu.Unlock()
		if runner != nil {
			runner.Stop()
		}
		return nil
	})
	return s
}

func (s *Scheduler) processor() (*MessageProcessor, bool) {
	f, ok := s.sub.API().Facets.Find("processor")
	if !ok {
		return nil, false
	}
	p, ok := f.(*MessageProcessor)
	return p, ok
}

// Process runs the cooperative loop: while not paused and the queue is
// non-empty and elapsed < timeSlice, dequeue and dispatch. A concurrent call
// returns Busy immediately without side effects.
func (s *Scheduler) Process(ctx context.Context, timeSlice time.Duration) (ProcessResult, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return ProcessResult{Busy: true}, nil
	}
	if s.paused {
		s.mu.Unlock()
		return ProcessResult{}, nil
	}
	s.processing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	if timeSlice <= 0 {
		timeSlice = s.defaultSlice
	}

	proc, ok := s.processor()
	if !ok {
		return ProcessResult{}, errs.New(errs.CoreMissing, "no processor facet installed")
	}

	result, err := proc.ProcessTick(ctx, timeSlice)
	if err != nil {
		return result, err
	}

	if stats, ok := s.sub.API().Facets.Find("statistics"); ok {
		if st, ok := stats.(*Statistics); ok {
			st.RecordTimeSlice()
		}
	}
	return result, nil
}

// PauseProcessing pauses the scheduler.
func (s *Scheduler) PauseProcessing() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// ResumeProcessing resumes the scheduler.
func (s *Scheduler) ResumeProcessing() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// IsPaused reports the scheduler's paused state.
func (s *Scheduler) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// IsProcessing reports whether a Process call is currently in flight.
func (s *Scheduler) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// GetPriority returns the scheduler's priority.
func (s *Scheduler) GetPriority() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priority
}

// SetPriority sets the scheduler's priority.
func (s *Scheduler) SetPriority(p int) {
	s.mu.Lock()
	s.priority = p
	s.mu.Unlock()
}

// ConfigureScheduler applies cfg's defaults.
func (s *Scheduler) ConfigureScheduler(cfg SchedulerConfig) {
	s.mu.Lock()
	s.priority = cfg.Priority
	s.defaultSlice = cfg.TimeSlice
	s.mu.Unlock()
}

// GetScheduler returns the scheduler's current configuration snapshot.
func (s *Scheduler) GetScheduler() SchedulerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerConfig{Priority: s.priority, TimeSlice: s.defaultSlice}
}

// ConfigureCron installs a cron schedule that calls Process with the full
// time-slice budget on each tick. Cron mode and manual Process calls share
// the same busy/non-overlap rule since both go through Process's processing
// flag.
func (s *Scheduler) ConfigureCron(spec string) error {
	s.mu.Lock()
	if s.cronRunner != nil {
		s.mu.Unlock()
		return errs.New(errs.InvalidArgument, "cron schedule already configured")
	}
	s.mu.Unlock()

	runner := cron.New()
	entryID, err := runner.AddFunc(spec, func() {
		_, _ = s.Process(context.Background(), s.fullBudget())
	})
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, err, "invalid cron spec %q", spec)
	}

	s.mu.Lock()
	s.cronRunner = runner
	s.cronEntry = entryID
	s.mu.Unlock()

	runner.Start()
	return nil
}

func (s *Scheduler) fullBudget() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaultSlice > 0 {
		return s.defaultSlice
	}
	return time.Hour
}

// StopCron stops and clears any configured cron schedule.
func (s *Scheduler) StopCron() {
	s.mu.Lock()
	runner := s.cronRunner
	s.cronRunner = nil
	s.mu.Unlock()
	if runner != nil {
		runner.Stop()
	}
}
