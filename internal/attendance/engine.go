package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/attendance-engine/internal/roster"
)

// Matcher is the external biometric matcher. It consumes an opaque capture
// probe (image or embedding) and returns identity candidates ordered by
// score descending, or an empty list. Implementations must return
// ErrMatchTimeout when the call exceeds its deadline.
type Matcher interface {
	Match(ctx context.Context, probe []byte) ([]Candidate, error)
}

// WindowProvider resolves the valid marking window for a course on a date.
// Returns an error when no session is scheduled.
type WindowProvider interface {
	GetWindow(ctx context.Context, courseID, date string) (*Window, error)
}

// AuditLog is the append-only attempt trail. Entries are never mutated or
// deleted; List returns them in append order.
type AuditLog interface {
	Append(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, key Key) ([]AuditEntry, error)
	Last(ctx context.Context, key Key) (*AuditEntry, error)
}

// MarkRequest is one marking attempt. Either Probe carries capture data for
// the matcher or StudentID carries an explicit identity; Absent marks the
// student absent manually, bypassing confidence logic but not the ledger.
// StudentName backs manual entry when the caller has only a name: it is
// matched against the course roster after normalization, and an ambiguous
// or empty match resolves to no student.
type MarkRequest struct {
	AttemptID   string
	CourseID    string
	StudentID   string
	StudentName string
	Method      Method
	Probe       []byte
	CapturedAt  time.Time
	Geo         *Geo
	Absent      bool
}

// MarkResult is the terminal outcome of one attempt. Every attempt ends in
// committed, duplicate, rejected, or superseded; the committed record's own
// status may still be pending_review.
type MarkResult struct {
	Outcome string  `json:"outcome"`
	Record  *Record `json:"record,omitempty"`
	Status  Status  `json:"status"`
	Reason  string  `json:"reason,omitempty"`
}

// Summary aggregates a course's records for one date.
type Summary struct {
	CourseID      string         `json:"course_id"`
	Date          string         `json:"date"`
	Total         int            `json:"total"`
	Counts        map[Status]int `json:"counts"`
	AvgConfidence float64        `json:"avg_confidence"`
}

// Engine composes the access gate, identity resolver, decision policy, and
// dedup ledger into the marking operations, and emits the audit trail.
type Engine struct {
	resolver Resolver
	ledger   *Ledger
	audit    AuditLog
	roster   roster.Provider
	windows  WindowProvider
	matcher  Matcher
	label    func(score float64) string
	now      func() time.Time
}

// NewEngine wires the verification engine from its collaborators.
func NewEngine(resolver Resolver, ledger *Ledger, audit AuditLog, rosterProvider roster.Provider, windows WindowProvider, matcher Matcher, label func(float64) string) *Engine {
	if label == nil {
		label = func(float64) string { return "" }
	}
	return &Engine{
		resolver: resolver,
		ledger:   ledger,
		audit:    audit,
		roster:   rosterProvider,
		windows:  windows,
		matcher:  matcher,
		label:    label,
		now:      time.Now,
	}
}

// MarkAttendance runs one attempt through the full pipeline:
// authorize -> resolve -> decide -> commit, with an audit entry for every
// outcome including denials and rejections. Matching and roster lookups
// complete before the ledger's critical section is entered.
func (e *Engine) MarkAttendance(ctx context.Context, actor Actor, req MarkRequest) (*MarkResult, error) {
	if req.AttemptID == "" {
		req.AttemptID = uuid.NewString()
	}
	at := req.CapturedAt
	if at.IsZero() {
		at = e.now()
	}

	subject := req.StudentID
	if actor.Role == RoleStudent && subject == "" {
		// A student marking without an explicit id claims their own identity.
		subject = actor.ID
	}

	if dec := AuthorizeMark(actor, subject, req.CourseID, req.Method); !dec.Allowed {
		key := NewKey(e.auditSubject(subject, actor), req.CourseID, at)
		if err := e.appendAudit(ctx, key, req, actor, OutcomeDenied, "", dec.Reason, nil); err != nil {
			return nil, err
		}
		return nil, &AuthorizationError{Reason: dec.Reason}
	}

	students, err := e.roster.GetEnrolled(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCourse, err)
	}
	enrolled := make(EnrolledSet, len(students))
	for id := range students {
		enrolled[id] = struct{}{}
	}

	if subject == "" && req.StudentName != "" {
		s := roster.FindByName(students, req.StudentName)
		if s == nil {
			key := NewKey(e.auditSubject(subject, actor), req.CourseID, at)
			if auditErr := e.appendAudit(ctx, key, req, actor, OutcomeRejected, StatusRejected, ReasonUnknownStudent, nil); auditErr != nil {
				return nil, auditErr
			}
			return nil, fmt.Errorf("%w: no unique roster match for name", ErrUnknownStudent)
		}
		subject = s.ID
	}

	resolution, status, reason, err := e.resolveAndDecide(ctx, req, subject, at, enrolled)
	if err != nil {
		if errors.Is(err, ErrUnknownStudent) {
			key := NewKey(e.auditSubject(subject, actor), req.CourseID, at)
			if auditErr := e.appendAudit(ctx, key, req, actor, OutcomeRejected, StatusRejected, ReasonUnknownStudent, nil); auditErr != nil {
				return nil, auditErr
			}
		}
		return nil, err
	}

	recordSubject := resolution.StudentID
	if recordSubject == "" {
		recordSubject = e.auditSubject(subject, actor)
	}
	key := NewKey(recordSubject, req.CourseID, at)

	var score *float64
	if resolution.HasScore {
		s := resolution.Score
		score = &s
	}

	if status == StatusRejected {
		// Attempt logged, no record created or altered.
		if err := e.appendAudit(ctx, key, req, actor, OutcomeRejected, StatusRejected, reason, score); err != nil {
			return nil, err
		}
		return &MarkResult{Outcome: OutcomeRejected, Status: StatusRejected, Reason: reason}, nil
	}

	rec := Record{
		Key:      key,
		Status:   status,
		Method:   req.Method,
		MarkedBy: actor.ID,
		MarkedAt: e.now(),
		Geo:      req.Geo,
	}
	if resolution.HasScore {
		conf := resolution.Score
		rec.Confidence = &conf
		rec.Label = e.label(conf)
	}

	result, err := e.commitWithRetry(ctx, rec, false)
	if err != nil {
		if errors.Is(err, ErrConcurrentConflict) {
			if auditErr := e.appendAudit(ctx, key, req, actor, OutcomeSuperseded, status, ReasonSuperseded, score); auditErr != nil {
				return nil, auditErr
			}
			return &MarkResult{Outcome: OutcomeSuperseded, Status: status, Reason: ReasonSuperseded}, nil
		}
		return nil, err
	}

	if result.Outcome == CommitDuplicate {
		if err := e.appendAudit(ctx, key, req, actor, OutcomeDuplicate, result.Record.Status, ReasonDuplicateFinal, score); err != nil {
			return nil, err
		}
		// Benign: the existing record is returned rather than an error.
		return &MarkResult{Outcome: OutcomeDuplicate, Record: result.Record, Status: result.Record.Status, Reason: ReasonDuplicateFinal}, nil
	}

	if err := e.appendAudit(ctx, key, req, actor, OutcomeCommitted, status, reason, score); err != nil {
		return nil, err
	}
	return &MarkResult{Outcome: OutcomeCommitted, Record: result.Record, Status: status}, nil
}

// resolveAndDecide produces the resolution and the attendance status for an
// authorized attempt. Runs entirely outside the ledger's critical section.
func (e *Engine) resolveAndDecide(ctx context.Context, req MarkRequest, subject string, at time.Time, enrolled EnrolledSet) (Resolution, Status, string, error) {
	if req.Absent {
		// Authorized manual mark-absent: bypasses confidence logic,
		// still passes through the dedup ledger.
		if subject == "" {
			return Resolution{}, "", "", errors.New("mark absent requires a student id")
		}
		if !enrolled.Has(subject) {
			return Resolution{}, "", "", fmt.Errorf("%w: %s", ErrUnknownStudent, subject)
		}
		return Resolution{Outcome: ResolvedConfirmed, StudentID: subject}, StatusAbsent, ReasonManualAbsent, nil
	}

	var resolution Resolution
	switch {
	case len(req.Probe) > 0:
		candidates, err := e.matcher.Match(ctx, req.Probe)
		switch {
		case errors.Is(err, ErrMatchTimeout):
			// A matcher timeout resolves to no match and proceeds through
			// normal rejection handling, never left pending.
			resolution = Resolution{Outcome: ResolvedNoMatch, Reason: ReasonMatchTimeout}
		case err != nil:
			return Resolution{}, "", "", fmt.Errorf("matching capture: %w", err)
		default:
			resolution = e.resolver.Resolve(Capture{Candidates: candidates, CapturedAt: at}, enrolled)
		}
		if subject != "" && resolution.StudentID != "" && resolution.StudentID != subject {
			// Claimed identity disagrees with the recognized one: proxy
			// suspected, rejected instead of committed under either id.
			// Applies to ambiguous resolutions too, or a pending record
			// would land under the other student's key.
			return resolution, StatusRejected, ReasonIdentityMismatch, nil
		}
	case subject != "":
		resolution = e.resolver.Resolve(Capture{StudentID: subject, CapturedAt: at}, enrolled)
		if resolution.Outcome == ResolvedUnknownStudent {
			return Resolution{}, "", "", fmt.Errorf("%w: %s", ErrUnknownStudent, subject)
		}
	default:
		return Resolution{}, "", "", errors.New("attempt carries neither a capture probe nor a student id")
	}

	window, err := e.windows.GetWindow(ctx, req.CourseID, at.Format("2006-01-02"))
	if err != nil {
		return Resolution{}, "", "", fmt.Errorf("%w: %v", ErrUnknownCourse, err)
	}

	status, reason := Decide(resolution, at, *window)
	return resolution, status, reason, nil
}

// CorrectAttendance replaces a record's status through the explicit
// correction path. The prior record is retained in the audit trail; the
// revision increments, nothing is overwritten in place.
func (e *Engine) CorrectAttendance(ctx context.Context, actor Actor, key Key, newStatus Status) (*Record, error) {
	if !newStatus.Terminal() {
		return nil, fmt.Errorf("correction target must be a terminal status, got %q", newStatus)
	}

	current, err := e.ledger.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading record: %w", err)
	}
	if current == nil {
		return nil, ErrRecordNotFound
	}

	if dec := AuthorizeCorrect(actor, key.CourseID, current.Status); !dec.Allowed {
		req := MarkRequest{AttemptID: uuid.NewString(), CourseID: key.CourseID, StudentID: key.StudentID, Method: MethodManual}
		if err := e.appendAudit(ctx, key, req, actor, OutcomeDenied, "", dec.Reason, nil); err != nil {
			return nil, err
		}
		return nil, &AuthorizationError{Reason: dec.Reason}
	}

	rec := Record{
		Key:      key,
		Status:   newStatus,
		Method:   MethodManual,
		MarkedBy: actor.ID,
		MarkedAt: e.now(),
	}
	result, err := e.commitWithRetry(ctx, rec, true)
	if err != nil {
		return nil, err
	}

	req := MarkRequest{AttemptID: uuid.NewString(), CourseID: key.CourseID, StudentID: key.StudentID, Method: MethodManual}
	if err := e.appendAudit(ctx, key, req, actor, OutcomeCorrected, newStatus, ReasonCorrection, nil); err != nil {
		return nil, err
	}
	return result.Record, nil
}

// GetRecord returns the authoritative record for a key.
func (e *Engine) GetRecord(ctx context.Context, key Key) (*Record, error) {
	rec, err := e.ledger.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// ListAudit returns the audit trail for a key in append order.
func (e *Engine) ListAudit(ctx context.Context, key Key) ([]AuditEntry, error) {
	return e.audit.List(ctx, key)
}

// CourseSummary aggregates per-status counts and average confidence for a
// course on one date.
func (e *Engine) CourseSummary(ctx context.Context, courseID, date string) (*Summary, error) {
	records, err := e.ledger.store.ListByCourseDate(ctx, courseID, date)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	summary := &Summary{
		CourseID: courseID,
		Date:     date,
		Total:    len(records),
		Counts:   make(map[Status]int),
	}
	var confSum float64
	var confCount int
	for i := range records {
		summary.Counts[records[i].Status]++
		if records[i].Confidence != nil {
			confSum += *records[i].Confidence
			confCount++
		}
	}
	if confCount > 0 {
		summary.AvgConfidence = confSum / float64(confCount)
	}
	return summary, nil
}

// commitWithRetry commits a candidate, retrying once on a revision race
// before surfacing ErrConcurrentConflict.
func (e *Engine) commitWithRetry(ctx context.Context, rec Record, override bool) (CommitResult, error) {
	result, err := e.ledger.Commit(ctx, rec, override)
	if errors.Is(err, ErrConcurrentConflict) {
		result, err = e.ledger.Commit(ctx, rec, override)
	}
	return result, err
}

// auditSubject picks the student id recorded on audit entries when the
// attempt never resolved one.
func (e *Engine) auditSubject(subject string, actor Actor) string {
	if subject != "" {
		return subject
	}
	return actor.ID
}

// appendAudit writes one chained audit entry for an attempt outcome. The
// Last read and the Append run under the key's critical section so two
// concurrent attempts cannot chain PrevID to the same predecessor.
func (e *Engine) appendAudit(ctx context.Context, key Key, req MarkRequest, actor Actor, outcome string, status Status, reason string, score *float64) error {
	unlock := e.ledger.lockKey(key)
	defer unlock()

	last, err := e.audit.Last(ctx, key)
	if err != nil {
		return fmt.Errorf("loading audit chain: %w", err)
	}
	entry := &AuditEntry{
		ID:        uuid.NewString(),
		AttemptID: req.AttemptID,
		Key:       key,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Method:    req.Method,
		Outcome:   outcome,
		Status:    status,
		Reason:    reason,
		Score:     score,
		CreatedAt: e.now(),
	}
	if last != nil {
		entry.PrevID = last.ID
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}
