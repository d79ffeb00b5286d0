package segment

import (
	"fmt"
	"math"
)

// DefaultMinLength is the minimum segment length, in seconds, enforced when a
// range collapses after clamping.
const DefaultMinLength = 1.0

// Range is a time window in seconds relative to the start of a video.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result reports the outcome of validating a single range. Start and End hold
// the clamped values regardless of validity; Errors records every adjustment
// in human-readable form.
type Result struct {
	Valid  bool     `json:"valid"`
	Start  float64  `json:"start"`
	End    float64  `json:"end"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateRange clamps and sanity-checks a time range against a video
// duration. A duration <= 0 means the duration is unknown and only the
// ordering rules apply. minLen <= 0 falls back to DefaultMinLength.
//
// ValidateRange never fails; callers inspect Valid and decide whether to keep
// or drop the result.
func ValidateRange(start, end, duration, minLen float64) Result {
	if minLen <= 0 {
		minLen = DefaultMinLength
	}

	var errs []string

	if start < 0 {
		errs = append(errs, fmt.Sprintf("start %.2fs is negative, clamped to 0", start))
		start = 0
	}

	if duration > 0 {
		if start > duration {
			errs = append(errs, fmt.Sprintf("start %.2fs exceeds duration %.2fs, clamped", start, duration))
			start = duration
		}
		if end > duration {
			errs = append(errs, fmt.Sprintf("end %.2fs exceeds duration %.2fs, clamped", end, duration))
			end = duration
		}
		if end < 0 {
			errs = append(errs, fmt.Sprintf("end %.2fs is negative, clamped to 0", end))
			end = 0
		}
	}

	if end <= start {
		errs = append(errs, fmt.Sprintf("end %.2fs is not after start %.2fs, extended by %.2fs", end, start, minLen))
		end = start + minLen
		if duration > 0 && end > duration {
			end = duration
			start = math.Max(0, duration-minLen)
			errs = append(errs, fmt.Sprintf("minimum-length segment overflows duration, moved to [%.2fs, %.2fs]", start, end))
		}
	}

	valid := start < end
	if duration > 0 && start >= duration {
		valid = false
	}

	return Result{
		Valid:  valid,
		Start:  start,
		End:    end,
		Errors: errs,
	}
}

// ValidateAll validates every range against the same duration.
func ValidateAll(ranges []Range, duration, minLen float64) []Result {
	results := make([]Result, len(ranges))
	for i, r := range ranges {
		results[i] = ValidateRange(r.Start, r.End, duration, minLen)
	}
	return results
}

// FilterValid returns the ranges that are valid after clamping, with the
// clamped bounds applied. Ranges that remain invalid are dropped.
func FilterValid(ranges []Range, duration, minLen float64) []Range {
	kept := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		res := ValidateRange(r.Start, r.End, duration, minLen)
		if !res.Valid {
			continue
		}
		kept = append(kept, Range{Start: res.Start, End: res.End})
	}
	return kept
}

// Clamp restricts a timestamp to [0, duration]. A duration <= 0 only clamps
// the lower bound.
func Clamp(sec, duration float64) float64 {
	if sec < 0 {
		return 0
	}
	if duration > 0 && sec > duration {
		return duration
	}
	return sec
}

// InRange reports whether a timestamp lies inside [0, duration].
func InRange(sec, duration float64) bool {
	if sec < 0 {
		return false
	}
	if duration > 0 && sec > duration {
		return false
	}
	return true
}
