package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/igorsilveira/ticktock/pkg/a2a"
)

var (
	ErrInvalidTaskState = errors.New("invalid task state")
	ErrStaleAttempt     = errors.New("stale task attempt")
)

// Task is the stored form of an a2a.Task. Its transcript is append-only and
// it never changes once terminal.
type Task struct {
	id        string
	sessionID string

	// slot holds a token while an attempt is running.
	slot chan struct{}

	mu       sync.Mutex
	state    a2a.TaskState
	messages []a2a.Message
	attempt  uint64
	held     uint64
	reason   string
}

// Attempt is the right to finish one execution of a task. Only the current
// attempt may complete, fail or abandon the task.
type Attempt struct {
	n uint64
}

func newTask(id, sessionID string, initial a2a.Message) *Task {
	return &Task{
		id:        id,
		sessionID: sessionID,
		slot:      make(chan struct{}, 1),
		state:     a2a.TaskStateSubmitted,
		messages:  []a2a.Message{cloneMessage(initial)},
	}
}

func (t *Task) ID() string { return t.id }

func (t *Task) State() a2a.TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// FailureReason returns why the task failed, if it did.
func (t *Task) FailureReason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Begin waits for the task's execution slot and moves the task to working.
// Waiters are served one at a time; a waiter that gets the slot after the
// task went terminal fails with ErrInvalidTaskState.
func (t *Task) Begin(ctx context.Context) (Attempt, error) {
	select {
	case t.slot <- struct{}{}:
	case <-ctx.Done():
		return Attempt{}, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Terminal() {
		<-t.slot
		return Attempt{}, t.terminalErr()
	}
	t.attempt++
	t.held = t.attempt
	t.state = a2a.TaskStateWorking
	return Attempt{n: t.attempt}, nil
}

// AppendReply appends msg to the transcript and completes the task.
func (t *Task) AppendReply(a Attempt, msg a2a.Message) (a2a.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkAttempt(a); err != nil {
		return t.snapshotLocked(), err
	}
	t.messages = append(t.messages, cloneMessage(msg))
	t.state = a2a.TaskStateCompleted
	t.release()
	return t.snapshotLocked(), nil
}

// Fail marks the task failed. The transcript is left as it was.
func (t *Task) Fail(a Attempt, reason string) (a2a.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkAttempt(a); err != nil {
		return t.snapshotLocked(), err
	}
	t.state = a2a.TaskStateFailed
	t.reason = reason
	t.release()
	return t.snapshotLocked(), nil
}

// Abandon gives the attempt up without a result. The task returns to
// submitted so that a later send can run it again.
func (t *Task) Abandon(a Attempt) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkAttempt(a); err != nil {
		return err
	}
	t.state = a2a.TaskStateSubmitted
	t.release()
	return nil
}

// Snapshot returns a deep copy of the task in wire form.
func (t *Task) Snapshot() a2a.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Task) checkAttempt(a Attempt) error {
	if t.state.Terminal() {
		return t.terminalErr()
	}
	if a.n == 0 || a.n != t.held {
		return fmt.Errorf("%w: task %q", ErrStaleAttempt, t.id)
	}
	return nil
}

func (t *Task) terminalErr() error {
	return fmt.Errorf("%w: task %q is already %s", ErrInvalidTaskState, t.id, t.state)
}

func (t *Task) release() {
	t.held = 0
	<-t.slot
}

func (t *Task) snapshotLocked() a2a.Task {
	msgs := make([]a2a.Message, len(t.messages))
	for i, m := range t.messages {
		msgs[i] = cloneMessage(m)
	}
	return a2a.Task{
		ID:        t.id,
		SessionID: t.sessionID,
		Status:    a2a.TaskStatus{State: t.state},
		Messages:  msgs,
	}
}

func cloneMessage(m a2a.Message) a2a.Message {
	parts := make([]a2a.Part, len(m.Parts))
	copy(parts, m.Parts)
	c := a2a.Message{Role: m.Role, Parts: parts}
	if len(m.Metadata) > 0 {
		c.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}
