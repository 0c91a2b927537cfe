package orchestrator

import (
	"context"
	"time"
)

// Global rescheduler thresholds. The next full-run time stretches when
// the fleet is erroring and tightens when it is quiet and productive.
const (
	highErrorRate   = 0.20
	lowErrorRate    = 0.05
	yieldThreshold  = 10.0
	errorSlowdown   = 1.5
	quietSpeedup    = 0.75
	defaultMinGap   = 30 * time.Minute
	defaultMaxGap   = 48 * time.Hour
	defaultInterval = time.Hour
)

// reschedule computes the next global run time from the rolling
// metrics window around the configured base cadence.
func (o *Orchestrator) reschedule(ctx context.Context) time.Time {
	base := o.cfg.BaseInterval
	if base <= 0 {
		base = defaultInterval
	}
	window := o.cfg.MetricsWindow
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}

	interval := base
	stats, err := o.metrics.Window(ctx, o.now().Add(-window))
	if err != nil {
		o.log.Error("failed to read metrics window", "error", err)
	} else {
		interval = adjustInterval(base, stats.ErrorRate(), stats.AvgItemYield)
	}

	interval = o.clampRunGap(interval)
	return o.now().Add(interval)
}

func adjustInterval(base time.Duration, errorRate, avgYield float64) time.Duration {
	switch {
	case errorRate > highErrorRate:
		return time.Duration(float64(base) * errorSlowdown)
	case errorRate < lowErrorRate && avgYield > yieldThreshold:
		return time.Duration(float64(base) * quietSpeedup)
	default:
		return base
	}
}

func (o *Orchestrator) clampRunGap(interval time.Duration) time.Duration {
	minGap := o.cfg.MinRunGap
	if minGap <= 0 {
		minGap = defaultMinGap
	}
	maxGap := o.cfg.MaxRunGap
	if maxGap <= 0 {
		maxGap = defaultMaxGap
	}

	if interval < minGap {
		return minGap
	}
	if interval > maxGap {
		return maxGap
	}
	return interval
}
