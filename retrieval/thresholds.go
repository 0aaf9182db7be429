package retrieval

import (
	"fmt"

	"github.com/poiesic/anirag/core"
)

// Thresholds define when local retrieval counts as good enough.
// They are read per call, never stored: two callers can query the same
// engine under different thresholds concurrently.
type Thresholds struct {
	// MinResultCount is the minimum number of local results.
	MinResultCount int

	// MaxDistance is the largest acceptable best-result distance.
	MaxDistance float64
}

// Validate rejects out-of-range thresholds before any work starts.
func (t Thresholds) Validate() error {
	if t.MinResultCount < 1 {
		return fmt.Errorf("%w: min result count %d", ErrInvalidThresholds, t.MinResultCount)
	}
	if t.MaxDistance < 0 {
		return fmt.Errorf("%w: max distance %v", ErrInvalidThresholds, t.MaxDistance)
	}
	return nil
}

// Satisfied reports whether a local result set passes both gates:
// enough results, and the best one close enough. Results without a
// comparable distance do not count toward either gate.
func (t Thresholds) Satisfied(results []core.RetrievalResult) bool {
	count := 0
	best := -1.0
	for _, result := range results {
		if !result.HasDistance() {
			continue
		}
		count++
		if best < 0 || result.Distance < best {
			best = result.Distance
		}
	}

	if count < t.MinResultCount {
		return false
	}
	return best <= t.MaxDistance
}
