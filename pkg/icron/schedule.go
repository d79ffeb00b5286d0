// Package icron inspects cron expressions without running them, for surfacing
// schedule state in status endpoints.
package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule reports where a cron expression stands relative to a reference
// time. Prev is zero when no firing happened within the last year.
type Schedule struct {
	Expression string        `json:"expression"`
	Prev       time.Time     `json:"prev,omitempty"`
	Next       time.Time     `json:"next"`
	SincePrev  time.Duration `json:"since_prev,omitempty"`
	UntilNext  time.Duration `json:"until_next"`
}

// Describe parses expr with the standard five-field syntax plus descriptors
// (e.g. "@every 5m") and computes the surrounding firing times.
func Describe(expr string, ref time.Time) (*Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour |
		cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	next := schedule.Next(ref)

	// Cron schedules only look forward; probe backwards in one-hour steps
	// until a candidate fires at or before the reference time.
	var prev time.Time
	searchStart := ref.Add(-time.Minute)
	for i := 0; i < 366*24; i++ {
		candidate := schedule.Next(searchStart.Add(-time.Duration(i) * time.Hour))
		if !candidate.After(ref) {
			prev = candidate
			break
		}
	}

	info := &Schedule{
		Expression: expr,
		Prev:       prev,
		Next:       next,
		UntilNext:  next.Sub(ref),
	}
	if !prev.IsZero() {
		info.SincePrev = ref.Sub(prev)
	}
	return info, nil
}
