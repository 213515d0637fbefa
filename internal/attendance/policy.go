package attendance

import "time"

// Window is the valid marking window for a course session. Captures inside
// [Start, Start+Grace] are on time, captures in (Start+Grace, End] are late,
// anything else is rejected.
type Window struct {
	Start time.Time
	End   time.Time
	Grace time.Duration
}

// Contains reports whether a capture time falls inside the window at all.
func (w Window) Contains(at time.Time) bool {
	return !at.Before(w.Start) && !at.After(w.End)
}

// Decide maps a resolution and capture time to an attendance status.
//
// The boundary at Start+Grace is inclusive: a capture exactly at the end of
// the grace period is still present. Ambiguous resolutions are never
// auto-committed to present or absent.
func Decide(res Resolution, at time.Time, w Window) (Status, string) {
	switch res.Outcome {
	case ResolvedNoMatch:
		reason := res.Reason
		if reason == "" {
			reason = ReasonNoMatch
		}
		return StatusRejected, reason
	case ResolvedUnknownStudent:
		return StatusRejected, ReasonUnknownStudent
	case ResolvedAmbiguous:
		return StatusPendingReview, ReasonAmbiguousMatch
	}

	// Confirmed identity: decide from the session window.
	if !w.Contains(at) {
		return StatusRejected, ReasonOutsideWindow
	}
	if at.After(w.Start.Add(w.Grace)) {
		return StatusLate, ""
	}
	return StatusPresent, ""
}
