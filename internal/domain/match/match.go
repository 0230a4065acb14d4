// Package match holds the match result value object and the threshold policy.
package match

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
)

// DefaultThreshold is the minimum similarity a match must exceed.
const DefaultThreshold = 0.60

// Threshold is a strict lower bound on similarity: a score equal to it does not match.
type Threshold float64

// NewThreshold validates a configured threshold.
func NewThreshold(v float64) (Threshold, error) {
	if math.IsNaN(v) || v < -1 || v > 1 {
		return 0, fmt.Errorf("threshold must be within [-1, 1], got %v", v)
	}
	return Threshold(v), nil
}

// Qualifies reports whether score strictly exceeds the threshold.
func (t Threshold) Qualifies(score float64) bool {
	return score > float64(t)
}

// Result pairs an alert with the found item it matched. Exists only within one evaluation pass.
type Result struct {
	alert alert.Alert
	found item.Found
	score float64
}

// NewResult creates a match result.
func NewResult(a alert.Alert, f item.Found, score float64) Result {
	return Result{alert: a, found: f, score: score}
}

// Alert returns the matched alert.
func (r *Result) Alert() alert.Alert { return r.alert }

// Found returns the found item.
func (r *Result) Found() item.Found { return r.found }

// Score returns the cosine similarity.
func (r *Result) Score() float64 { return r.score }

// Percent returns the score as a whole percentage, rounded half away from zero.
func (r *Result) Percent() int {
	return int(math.Round(r.score * 100))
}
