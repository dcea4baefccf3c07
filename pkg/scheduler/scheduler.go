package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ETFAdvisor/pkg/logger"
)

var (
	ErrUnknownJob = errors.New("unknown job")
	// ErrLocked is returned by RunNow when another replica holds the job lock.
	ErrLocked = errors.New("job is locked by another runner")
)

// Locker guards a job so that only one replica runs it at a time.
// pkg/cache.Service satisfies it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Job is a named unit of scheduled work.
type Job struct {
	Name string
	// Spec is a standard five-field cron expression.
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules in a fixed timezone.
type Scheduler struct {
	cron     *cron.Cron
	log      *logger.Logger
	locker   Locker
	lockTTL  time.Duration
	timeout  time.Duration
	location *time.Location

	mu      sync.Mutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	running bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a scheduler. The timezone defaults to UTC.
func New(log *logger.Logger, opts ...Option) (*Scheduler, error) {
	cfg := &config{lockTTL: 10 * time.Minute, timeout: 5 * time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	if log == nil {
		log = logger.Nop()
	}
	loc := time.UTC
	if cfg.timezone != "" {
		l, err := time.LoadLocation(cfg.timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.timezone, err)
		}
		loc = l
	}

	log = log.With(logger.String("component", "scheduler"))
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:      log,
		locker:   cfg.locker,
		lockTTL:  cfg.lockTTL,
		timeout:  cfg.timeout,
		location: loc,
		jobs:     make(map[string]Job),
		entries:  make(map[string]cron.EntryID),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Add registers a job. Names are unique and the spec must parse.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job needs a name and a run function")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	id, err := s.cron.AddFunc(job.Spec, func() {
		if err := s.execute(s.ctx, job); err != nil && !errors.Is(err, ErrLocked) {
			s.log.Error("scheduled job failed", logger.String("job", job.Name), logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	s.entries[job.Name] = id
	s.log.Info("job scheduled", logger.String("job", job.Name), logger.String("spec", job.Spec))
	return nil
}

// RunNow runs a registered job immediately, honouring the lock.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, job)
}

// Next returns the next activation of a job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	spec := s.jobs[name].Spec
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	next := s.cron.Entry(id).Next
	if next.IsZero() {
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return time.Time{}, false
		}
		next = sched.Next(time.Now().In(s.location))
	}
	return next, true
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		names = append(names, n)
	}
	return names
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started", logger.Int("jobs", len(s.jobs)), logger.String("timezone", s.location.String()))
}

// Stop cancels running jobs and waits for them until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.locker != nil {
		key := lockKey(job.Name)
		ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			s.log.Debug("job skipped, lock held elsewhere", logger.String("job", job.Name))
			return ErrLocked
		}
		defer func() {
			// the job context may already be done
			unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.locker.Unlock(unlockCtx, key); err != nil {
				s.log.Warn("release job lock failed", logger.String("job", job.Name), logger.Error(err))
			}
		}()
	}

	start := time.Now()
	err := job.Run(ctx)
	s.log.Info("job finished",
		logger.String("job", job.Name),
		logger.Duration("duration_ms", time.Since(start)),
		logger.Bool("ok", err == nil))
	return err
}

func lockKey(name string) string { return "scheduler:" + name }

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
