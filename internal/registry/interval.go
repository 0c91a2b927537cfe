package registry

import (
	"time"

	"github.com/jonesrussell/goharvest/internal/domain"
)

// Adaptive interval controller factors. A crawl outcome nudges the
// per-source fetch interval one step: failures and dry crawls back
// off, productive crawls speed up.
const (
	failureFactor  = 1.5
	speedupFactor  = 0.8
	idleFactor     = 1.2
	speedupMinimum = 5
)

// NextInterval computes the source's next fetch interval from a single
// crawl outcome. The result is always inside the source's
// [MinInterval, MaxInterval] range.
func NextInterval(source *domain.Source, success bool, newItems int) time.Duration {
	interval := source.FetchInterval

	switch {
	case !success:
		interval = scale(interval, failureFactor)
	case newItems > speedupMinimum:
		interval = scale(interval, speedupFactor)
	case newItems == 0:
		interval = scale(interval, idleFactor)
	}

	return source.ClampInterval(interval)
}

func scale(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}
