package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/goharvest/internal/domain"
)

func testSource(current time.Duration) *domain.Source {
	return &domain.Source{
		FetchInterval: current,
		MinInterval:   30 * time.Minute,
		MaxInterval:   24 * time.Hour,
	}
}

func TestNextInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		current  time.Duration
		success  bool
		newItems int
		want     time.Duration
	}{
		{
			name:    "failure backs off",
			current: time.Hour,
			success: false,
			want:    90 * time.Minute,
		},
		{
			name:     "productive crawl speeds up",
			current:  time.Hour,
			success:  true,
			newItems: 6,
			want:     48 * time.Minute,
		},
		{
			name:     "dry crawl slows down",
			current:  time.Hour,
			success:  true,
			newItems: 0,
			want:     72 * time.Minute,
		},
		{
			name:     "moderate yield leaves interval unchanged",
			current:  time.Hour,
			success:  true,
			newItems: 3,
			want:     time.Hour,
		},
		{
			name:     "exactly threshold items is not a speedup",
			current:  time.Hour,
			success:  true,
			newItems: 5,
			want:     time.Hour,
		},
		{
			name:    "backoff clamps at max",
			current: 24 * time.Hour,
			success: false,
			want:    24 * time.Hour,
		},
		{
			name:     "speedup clamps at min",
			current:  30 * time.Minute,
			success:  true,
			newItems: 20,
			want:     30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NextInterval(testSource(tt.current), tt.success, tt.newItems)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextInterval_AlwaysWithinBounds(t *testing.T) {
	t.Parallel()

	source := testSource(time.Hour)

	// Drive the controller through many consecutive outcomes; the
	// interval must never escape the configured range.
	outcomes := []struct {
		success  bool
		newItems int
	}{
		{false, 0}, {false, 0}, {false, 0}, {false, 0}, {false, 0},
		{false, 0}, {false, 0}, {false, 0}, {false, 0}, {false, 0},
		{true, 50}, {true, 50}, {true, 50}, {true, 50}, {true, 50},
		{true, 50}, {true, 50}, {true, 50}, {true, 50}, {true, 50},
		{true, 0}, {false, 0}, {true, 12}, {true, 1},
	}

	for _, o := range outcomes {
		next := NextInterval(source, o.success, o.newItems)
		assert.GreaterOrEqual(t, next, source.MinInterval)
		assert.LessOrEqual(t, next, source.MaxInterval)
		source.FetchInterval = next
	}
}
