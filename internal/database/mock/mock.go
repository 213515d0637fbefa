// Package mock provides in-memory implementations of the engine's storage
// and collaborator interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
)

// MockRecordStore is an in-memory attendance.RecordStore with revision
// checking that mirrors the PostgreSQL implementation.
type MockRecordStore struct {
	mu      sync.RWMutex
	records map[attendance.Key]attendance.Record

	// Error injection
	GetError  error
	PutError  error
	ListError error

	// ConflictOnce makes the next Put fail with ErrConcurrentConflict
	// regardless of revisions, to exercise the orchestrator's retry.
	ConflictOnce bool
}

// NewMockRecordStore creates an empty mock record store.
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{
		records: make(map[attendance.Key]attendance.Record),
	}
}

// Get retrieves a record by key, nil when absent.
func (m *MockRecordStore) Get(ctx context.Context, key attendance.Key) (*attendance.Record, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Put inserts or replaces a record after checking the expected revision.
func (m *MockRecordStore) Put(ctx context.Context, rec *attendance.Record, expectedRevision int) error {
	if m.PutError != nil {
		return m.PutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ConflictOnce {
		m.ConflictOnce = false
		return attendance.ErrConcurrentConflict
	}

	current, ok := m.records[rec.Key]
	if !ok {
		if expectedRevision != 0 {
			return attendance.ErrConcurrentConflict
		}
	} else if current.Revision != expectedRevision {
		return attendance.ErrConcurrentConflict
	}
	m.records[rec.Key] = *rec
	return nil
}

// ListByCourseDate returns all records for a course on a date.
func (m *MockRecordStore) ListByCourseDate(ctx context.Context, courseID, date string) ([]attendance.Record, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []attendance.Record
	for key, rec := range m.records {
		if key.CourseID == courseID && key.Date == date {
			records = append(records, rec)
		}
	}
	return records, nil
}

// MockAuditLog is an in-memory append-only attendance.AuditLog.
type MockAuditLog struct {
	mu      sync.RWMutex
	entries map[attendance.Key][]attendance.AuditEntry

	AppendError error
	ListError   error
}

// NewMockAuditLog creates an empty mock audit log.
func NewMockAuditLog() *MockAuditLog {
	return &MockAuditLog{
		entries: make(map[attendance.Key][]attendance.AuditEntry),
	}
}

// Append stores an entry at the end of the key's trail.
func (m *MockAuditLog) Append(ctx context.Context, entry *attendance.AuditEntry) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = append(m.entries[entry.Key], *entry)
	return nil
}

// List returns the trail for a key in append order.
func (m *MockAuditLog) List(ctx context.Context, key attendance.Key) ([]attendance.AuditEntry, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]attendance.AuditEntry(nil), m.entries[key]...), nil
}

// Last returns the most recent entry for a key, nil when the trail is empty.
func (m *MockAuditLog) Last(ctx context.Context, key attendance.Key) (*attendance.AuditEntry, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trail := m.entries[key]
	if len(trail) == 0 {
		return nil, nil
	}
	last := trail[len(trail)-1]
	return &last, nil
}

// MockWindowProvider serves fixed session windows per course.
type MockWindowProvider struct {
	mu      sync.RWMutex
	windows map[string]attendance.Window // course id -> window

	GetError error
}

// NewMockWindowProvider creates an empty mock window provider.
func NewMockWindowProvider() *MockWindowProvider {
	return &MockWindowProvider{
		windows: make(map[string]attendance.Window),
	}
}

// SetWindow registers the window returned for a course.
func (m *MockWindowProvider) SetWindow(courseID string, w attendance.Window) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[courseID] = w
}

// GetWindow returns the registered window for a course.
func (m *MockWindowProvider) GetWindow(ctx context.Context, courseID, date string) (*attendance.Window, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.windows[courseID]
	if !ok {
		return nil, attendance.ErrUnknownCourse
	}
	return &w, nil
}

// MockMatcher returns canned candidates or a canned error.
type MockMatcher struct {
	Candidates []attendance.Candidate
	Err        error
}

// Match returns the canned response.
func (m *MockMatcher) Match(ctx context.Context, probe []byte) ([]attendance.Candidate, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]attendance.Candidate(nil), m.Candidates...), nil
}
