// Package jobs keeps conversions suspended at the scanned-pages decision
// until a client resumes them.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/pdf2docx/internal/convert"
)

// DefaultCapacity is used for non-positive capacities.
const DefaultCapacity = 32

// ErrNotFound is returned for unknown or evicted job ids.
var ErrNotFound = errors.New("job not found")

// Job is one suspended conversion.
type Job struct {
	ID        string
	Source    string
	Pending   *convert.Pending
	CreatedAt time.Time
}

// Store is a bounded, thread-safe set of suspended jobs. When full, the
// least recently touched job is evicted.
type Store struct {
	mu       sync.Mutex
	capacity int
	jobs     map[string]*entry
	head     *entry // most recently used
	tail     *entry // least recently used
	evicted  int64
	now      func() time.Time
}

type entry struct {
	job        Job
	prev, next *entry
}

// NewStore creates a store holding at most capacity jobs.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{
		capacity: capacity,
		jobs:     make(map[string]*entry),
		head:     &entry{},
		tail:     &entry{},
		now:      time.Now,
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Add stores pending under a new id and returns the job.
func (s *Store) Add(source string, pending *convert.Pending) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := Job{
		ID:        uuid.NewString(),
		Source:    source,
		Pending:   pending,
		CreatedAt: s.now(),
	}
	e := &entry{job: job}
	s.pushFront(e)
	s.jobs[job.ID] = e

	if len(s.jobs) > s.capacity {
		s.evictOldest()
	}
	return job
}

// Get returns the job and marks it recently used.
func (s *Store) Get(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	s.unlink(e)
	s.pushFront(e)
	return e.job, nil
}

// Remove deletes a job. It reports whether the job existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[id]
	if !ok {
		return false
	}
	s.unlink(e)
	delete(s.jobs, id)
	return true
}

// Len returns the number of suspended jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stats describes store occupancy.
type Stats struct {
	Pending  int   `json:"pending"`
	Capacity int   `json:"capacity"`
	Evicted  int64 `json:"evicted"`
}

// Stats returns the current occupancy.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Pending: len(s.jobs), Capacity: s.capacity, Evicted: s.evicted}
}

// IDs lists job ids, most recently used first.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.jobs))
	for e := s.head.next; e != s.tail; e = e.next {
		ids = append(ids, e.job.ID)
	}
	return ids
}

// List returns the jobs, most recently used first, without touching them.
func (s *Store) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Job, 0, len(s.jobs))
	for e := s.head.next; e != s.tail; e = e.next {
		list = append(list, e.job)
	}
	return list
}

func (s *Store) pushFront(e *entry) {
	e.prev = s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
}

func (s *Store) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (s *Store) evictOldest() {
	oldest := s.tail.prev
	if oldest == s.head {
		return
	}
	s.unlink(oldest)
	delete(s.jobs, oldest.job.ID)
	s.evicted++
}
