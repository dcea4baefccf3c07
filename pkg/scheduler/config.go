package scheduler

import "time"

type config struct {
	timezone string
	locker   Locker
	lockTTL  time.Duration
	timeout  time.Duration
}

// Option configures Scheduler.
type Option func(*config)

// WithTimezone sets the IANA zone cron expressions are evaluated in.
func WithTimezone(name string) Option {
	return func(c *config) { c.timezone = name }
}

// WithLocker enables the per-job lock. ttl bounds how long a crashed runner
// can hold it.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(c *config) {
		c.locker = l
		if ttl > 0 {
			c.lockTTL = ttl
		}
	}
}

// WithJobTimeout sets the default run timeout for jobs without their own.
func WithJobTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}
