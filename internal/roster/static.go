package roster

import (
	"context"
	"fmt"
	"sync"
)

// StaticProvider is an in-memory roster, used in tests and single-node
// deployments without a student information system connection.
type StaticProvider struct {
	mu       sync.RWMutex
	students map[string]Student
	courses  map[string][]string // course id -> enrolled student ids
	actors   map[string][]string // actor id -> associated course ids
}

// NewStaticProvider creates an empty static roster.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		students: make(map[string]Student),
		courses:  make(map[string][]string),
		actors:   make(map[string][]string),
	}
}

// AddStudent registers a student.
func (p *StaticProvider) AddStudent(s Student) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.students[s.ID] = s
}

// Enroll adds a student to a course.
func (p *StaticProvider) Enroll(courseID, studentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.courses[courseID] = append(p.courses[courseID], studentID)
}

// Associate links an actor (faculty) with a course.
func (p *StaticProvider) Associate(actorID, courseID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actors[actorID] = append(p.actors[actorID], courseID)
}

func (p *StaticProvider) GetEnrolled(ctx context.Context, courseID string) (map[string]Student, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids, ok := p.courses[courseID]
	if !ok {
		return nil, fmt.Errorf("course %q not found", courseID)
	}
	enrolled := make(map[string]Student, len(ids))
	for _, id := range ids {
		if s, ok := p.students[id]; ok {
			enrolled[id] = s
		}
	}
	return enrolled, nil
}

func (p *StaticProvider) GetStudent(ctx context.Context, id string) (*Student, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (p *StaticProvider) CoursesForActor(ctx context.Context, actorID string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.actors[actorID]...), nil
}
