package session

import (
	"sync"
	"time"

	"github.com/igorsilveira/ticktock/pkg/a2a"
)

type Session struct {
	key     Key
	created time.Time

	mu    sync.Mutex
	tasks map[string]*Task
	order []string
	state map[string]any
}

func newSession(key Key, now time.Time) *Session {
	return &Session{
		key:     key,
		created: now,
		tasks:   make(map[string]*Task),
		state:   make(map[string]any),
	}
}

func (s *Session) ID() string           { return s.key.SessionID }
func (s *Session) UserID() string       { return s.key.UserID }
func (s *Session) AppName() string      { return s.key.AppName }
func (s *Session) CreatedAt() time.Time { return s.created }

// Get reads a value from the session state bag.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[key]
	return v, ok
}

// Set writes a value to the session state bag.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
}

// GetOrCreateTask returns the task with the given id. An existing task is
// returned untouched; otherwise a new submitted task seeded with initial is
// stored. The bool reports whether this call created the task.
func (s *Session) GetOrCreateTask(taskID string, initial a2a.Message) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[taskID]; ok {
		return t, false
	}
	t := newTask(taskID, s.key.SessionID, initial)
	s.tasks[taskID] = t
	s.order = append(s.order, taskID)
	return t, true
}

func (s *Session) Task(id string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

func (s *Session) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// History returns the transcripts of the session's completed tasks in the
// order the tasks were created.
func (s *Session) History() []a2a.Message {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id])
	}
	s.mu.Unlock()

	var history []a2a.Message
	for _, t := range tasks {
		snap := t.Snapshot()
		if snap.Status.State != a2a.TaskStateCompleted {
			continue
		}
		history = append(history, snap.Messages...)
	}
	return history
}
