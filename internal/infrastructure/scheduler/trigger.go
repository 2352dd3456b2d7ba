package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider lists the tenants maintenance jobs run for
type TenantProvider interface {
	FindOperationalIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TriggerConfig holds configuration for the trigger
type TriggerConfig struct {
	// CheckInterval is how often due jobs are looked for
	CheckInterval time.Duration

	// Intervals sets how often each job type runs. Types missing or <= 0 never run.
	Intervals map[JobType]time.Duration
}

// Trigger fans due job types out to every operational tenant
type Trigger struct {
	config    TriggerConfig
	scheduler *Scheduler
	tenants   TenantProvider
	logger    *zap.Logger
	now       func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[JobType]time.Time
}

// NewTrigger creates a trigger
func NewTrigger(config TriggerConfig, scheduler *Scheduler, tenants TenantProvider, logger *zap.Logger) *Trigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &Trigger{
		config:    config,
		scheduler: scheduler,
		tenants:   tenants,
		logger:    logger,
		now:       time.Now,
		lastRun:   make(map[JobType]time.Time),
	}
}

// Start starts the check loop
func (c *Trigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Maintenance trigger started",
		zap.Duration("check_interval", c.config.CheckInterval),
		zap.Strings("job_types", c.enabledTypes()),
	)
	return nil
}

// Stop stops the check loop
func (c *Trigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Maintenance trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Trigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger schedules every job type whose interval has elapsed.
// A type that never ran is due on the first check.
func (c *Trigger) checkAndTrigger(ctx context.Context) {
	now := c.now()

	c.mu.Lock()
	var due []JobType
	for _, t := range c.sortedTypes() {
		if last, ok := c.lastRun[t]; !ok || now.Sub(last) >= c.config.Intervals[t] {
			due = append(due, t)
			c.lastRun[t] = now
		}
	}
	c.mu.Unlock()

	if len(due) == 0 {
		return
	}
	tenantIDs, err := c.tenants.FindOperationalIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list tenants for maintenance jobs", zap.Error(err))
		return
	}
	for _, t := range due {
		c.schedule(t, tenantIDs)
	}
}

// TriggerNow schedules jobType for every operational tenant immediately
func (c *Trigger) TriggerNow(ctx context.Context, jobType JobType) (int, error) {
	if !jobType.IsValid() {
		return 0, ErrInvalidJobType
	}
	tenantIDs, err := c.tenants.FindOperationalIDs(ctx)
	if err != nil {
		return 0, err
	}
	return c.scheduler.Schedule(jobType, tenantIDs)
}

func (c *Trigger) schedule(jobType JobType, tenantIDs []uuid.UUID) {
	queued, err := c.scheduler.Schedule(jobType, tenantIDs)
	if err != nil {
		c.logger.Error("Failed to schedule maintenance jobs",
			zap.String("job_type", string(jobType)),
			zap.Int("queued", queued),
			zap.Int("tenant_count", len(tenantIDs)),
			zap.Error(err),
		)
		return
	}
	c.logger.Info("Maintenance jobs scheduled",
		zap.String("job_type", string(jobType)),
		zap.Int("tenant_count", queued),
	)
}

// sortedTypes returns the enabled job types in a stable order
func (c *Trigger) sortedTypes() []JobType {
	types := make([]JobType, 0, len(c.config.Intervals))
	for t, every := range c.config.Intervals {
		if every > 0 && t.IsValid() {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (c *Trigger) enabledTypes() []string {
	types := c.sortedTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
