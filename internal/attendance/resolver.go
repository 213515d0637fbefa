package attendance

// ResolutionOutcome classifies what identity resolution concluded.
type ResolutionOutcome int

const (
	// ResolvedConfirmed means the identity is treated as certain for this attempt.
	ResolvedConfirmed ResolutionOutcome = iota
	// ResolvedAmbiguous means the top candidate needs human review.
	ResolvedAmbiguous
	// ResolvedNoMatch means no candidate cleared the low threshold.
	ResolvedNoMatch
	// ResolvedUnknownStudent means an explicit id is not in the enrolled set.
	ResolvedUnknownStudent
)

// Resolution is the outcome of resolving a capture against the enrolled set.
type Resolution struct {
	Outcome   ResolutionOutcome
	StudentID string  // confirmed identity, or top-1 candidate when ambiguous
	Score     float64 // similarity of the resolved candidate, when score-based
	HasScore  bool
	Reason    string // reason code carried into rejection audit entries
}

// EnrolledSet is the set of student ids enrolled in the course under decision.
type EnrolledSet map[string]struct{}

// Has reports whether a student id is enrolled.
func (e EnrolledSet) Has(id string) bool {
	_, ok := e[id]
	return ok
}

// Resolver maps a capture to a confirmed identity, an ambiguity, or a
// no-match, using configured similarity thresholds. It is a pure function of
// its inputs; all side effects live in the orchestrator.
type Resolver struct {
	High float64 // score >= High resolves directly (closed on the high side)
	Low  float64 // score in [Low, High) is held for review
}

// Resolve resolves a capture against the enrolled set.
//
// An explicit student id (manual or self-authenticated entry) resolves
// directly when enrolled. Score-based resolution picks the strictly highest
// candidate; exactly equal top scores above the high threshold resolve as
// ambiguous rather than an arbitrary pick.
func (r Resolver) Resolve(capture Capture, enrolled EnrolledSet) Resolution {
	if capture.StudentID != "" {
		if !enrolled.Has(capture.StudentID) {
			return Resolution{Outcome: ResolvedUnknownStudent, StudentID: capture.StudentID, Reason: ReasonUnknownStudent}
		}
		return Resolution{Outcome: ResolvedConfirmed, StudentID: capture.StudentID}
	}

	top, tie := r.topEnrolledCandidate(capture.Candidates, enrolled)
	if top == nil {
		return Resolution{Outcome: ResolvedNoMatch, Reason: ReasonNoMatch}
	}

	switch {
	case top.Score >= r.High && tie:
		// Two candidates with exactly equal scores above the high threshold
		// should not occur with a well-formed matcher, but must never be
		// resolved by an arbitrary pick.
		return Resolution{Outcome: ResolvedAmbiguous, StudentID: top.StudentID, Score: top.Score, HasScore: true, Reason: ReasonAmbiguousMatch}
	case top.Score >= r.High:
		return Resolution{Outcome: ResolvedConfirmed, StudentID: top.StudentID, Score: top.Score, HasScore: true}
	case top.Score >= r.Low:
		return Resolution{Outcome: ResolvedAmbiguous, StudentID: top.StudentID, Score: top.Score, HasScore: true, Reason: ReasonAmbiguousMatch}
	default:
		return Resolution{Outcome: ResolvedNoMatch, Score: top.Score, HasScore: true, Reason: ReasonNoMatch}
	}
}

// topEnrolledCandidate returns the enrolled candidate with the strictly
// highest score and whether a second enrolled candidate holds exactly the
// same score. Candidates outside the enrolled set are ignored.
func (r Resolver) topEnrolledCandidate(candidates []Candidate, enrolled EnrolledSet) (*Candidate, bool) {
	var top *Candidate
	tie := false
	for i := range candidates {
		c := &candidates[i]
		if !enrolled.Has(c.StudentID) {
			continue
		}
		switch {
		case top == nil || c.Score > top.Score:
			top = c
			tie = false
		case c.Score == top.Score && c.StudentID != top.StudentID:
			tie = true
		}
	}
	return top, tie
}
