package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsPrioritizer/internal/ports"
)

var errAlreadyStarted = errors.New("scheduler already started")

// CronScheduler fires ranking passes on a standard five-field cron expression.
type CronScheduler struct {
	expr     string
	location *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	done    chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for expr evaluated in loc (UTC when nil).
func NewCronScheduler(expr string, loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{expr: expr, location: loc, logger: log}
}

// Validate reports whether expr parses as a cron expression.
func Validate(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Start registers job and begins ticking. The job receives the trigger time
// in the scheduler location. The schedule also stops when ctx is done.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return errAlreadyStarted
	}

	runner := cron.New(cron.WithLocation(c.location))
	id, err := runner.AddFunc(c.expr, func() {
		job(time.Now().In(c.location))
	})
	if err != nil {
		return fmt.Errorf("add cron entry %q: %w", c.expr, err)
	}

	done := make(chan struct{})
	c.cron = runner
	c.entryID = id
	c.done = done
	runner.Start()

	if next := runner.Entry(id).Next; !next.IsZero() {
		c.info("ranking scheduled", "cron", c.expr, "timezone", c.location.String(), "next", next.Format(time.RFC3339))
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop(context.Background())
		case <-done:
		}
	}()

	return nil
}

// Stop halts the schedule and waits for a running job to finish or ctx to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	if c.done != nil {
		close(c.done)
	}
	c.cron = nil
	c.entryID = 0
	c.done = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	done := runner.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running job: %w", ctx.Err())
	}
}

// Next returns the upcoming trigger time, zero when not started.
func (c *CronScheduler) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron == nil {
		return time.Time{}
	}
	return c.cron.Entry(c.entryID).Next
}

func (c *CronScheduler) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
