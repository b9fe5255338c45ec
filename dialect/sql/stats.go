package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// LoggedQuery is an entry of the in-memory query log.
type LoggedQuery struct {
	Query    string
	Bindings []any
	Time     time.Duration
}

// observer records statistics and the query log for a Driver and every
// transaction started from it.
type observer struct {
	stats  *QueryStats
	logger *slog.Logger

	mu            sync.RWMutex
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	logging       bool
	entries       []LoggedQuery
}

func newObserver() *observer {
	return &observer{
		stats:         &QueryStats{},
		logger:        slog.Default(),
		slowThreshold: 100 * time.Millisecond,
	}
}

// record is a no-op on a nil observer, as held by a Conn built outside
// this package.
func (o *observer) record(ctx context.Context, query string, args []any, duration time.Duration, err error, isQuery bool) {
	if o == nil {
		return
	}
	if isQuery {
		o.stats.TotalQueries.Add(1)
	} else {
		o.stats.TotalExecs.Add(1)
	}
	o.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		o.stats.Errors.Add(1)
	}

	o.mu.Lock()
	threshold := o.slowThreshold
	hook := o.slowHook
	if o.logging {
		o.entries = append(o.entries, LoggedQuery{Query: query, Bindings: args, Time: duration})
	}
	o.mu.Unlock()

	o.logger.DebugContext(ctx, "query executed", "query", query, "args", args, "duration", duration)
	if threshold > 0 && duration > threshold {
		o.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, args, duration)
		}
	}
}

func (o *observer) setLogging(on bool) {
	o.mu.Lock()
	o.logging = on
	o.mu.Unlock()
}

func (o *observer) isLogging() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.logging
}

func (o *observer) queryLog() []LoggedQuery {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]LoggedQuery(nil), o.entries...)
}

func (o *observer) flush() {
	o.mu.Lock()
	o.entries = nil
	o.mu.Unlock()
}

// Option configures a Driver.
type Option func(*Driver)

// WithSlowThreshold sets the threshold for slow query detection.
// Queries taking longer than this duration will be counted as slow queries.
// Default is 100ms. Zero disables detection.
func WithSlowThreshold(d time.Duration) Option {
	return func(drv *Driver) {
		drv.obs.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
func WithSlowQueryHook(hook SlowQueryHook) Option {
	return func(drv *Driver) {
		drv.obs.slowHook = hook
	}
}

// WithSlowQueryLog logs slow queries to the driver logger.
// This is a convenience wrapper around WithSlowQueryHook.
func WithSlowQueryLog() Option {
	return func(drv *Driver) {
		o := drv.obs
		o.slowHook = func(ctx context.Context, query string, args []any, duration time.Duration) {
			o.logger.WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "args", args)
		}
	}
}

// WithLogger sets the structured logger used for query tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(drv *Driver) {
		if logger != nil {
			drv.obs.logger = logger
		}
	}
}

// WithPrefix sets the table prefix applied by the grammars.
func WithPrefix(prefix string) Option {
	return func(drv *Driver) {
		drv.prefix = prefix
	}
}

// WithQueryLog enables the in-memory query log from the start.
func WithQueryLog() Option {
	return func(drv *Driver) {
		drv.obs.logging = true
	}
}
