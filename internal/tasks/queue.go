// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Queue errors.
var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrQueueClosed = errors.New("task queue is closed")
)

// =============================================================================
// TASK QUEUE
// =============================================================================

// Queue holds tasks in submission order with thread-safe operations.
// The runner takes tasks from the front one at a time.
type Queue struct {
	// tasks is the list of all tasks (queued, running and finished)
	tasks []*Task

	// maxHistory is the maximum number of finished tasks to keep
	maxHistory int

	// maxQueueSize is the maximum number of queued tasks allowed (0 = unlimited)
	maxQueueSize int

	// closed rejects new tasks; the runner exits once the queue drains
	closed bool

	// ready is signaled whenever a task is added or the queue is closed
	ready chan struct{}

	mu sync.RWMutex
}

// =============================================================================
// QUEUE CREATION
// =============================================================================

// NewQueue creates a new task queue.
// maxHistory sets the maximum number of finished tasks to keep (0 = unlimited).
func NewQueue(maxHistory int) *Queue {
	return NewQueueWithOptions(maxHistory, 0)
}

// NewQueueWithOptions creates a new task queue with custom settings.
// maxHistory: maximum number of finished tasks to keep (0 = unlimited)
// maxQueueSize: maximum number of queued tasks allowed (0 = unlimited)
func NewQueueWithOptions(maxHistory, maxQueueSize int) *Queue {
	return &Queue{
		tasks:        make([]*Task, 0),
		maxHistory:   maxHistory,
		maxQueueSize: maxQueueSize,
		ready:        make(chan struct{}, 1),
	}
}

// =============================================================================
// TASK MANAGEMENT
// =============================================================================

// Add appends a task to the back of the queue.
func (q *Queue) Add(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	if q.maxQueueSize > 0 {
		if queued := q.queuedCountLocked(); queued >= q.maxQueueSize {
			return fmt.Errorf("%w: %d queued tasks (max: %d)", ErrQueueFull, queued, q.maxQueueSize)
		}
	}

	if err := task.SetStatus(TaskStatusQueued); err != nil {
		return fmt.Errorf("add task %s: %w", task.ID, err)
	}
	q.tasks = append(q.tasks, task)
	q.signal()
	return nil
}

// Close stops the queue from accepting tasks. Already queued tasks still run.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.signal()
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Ready is signaled after Add and Close.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// signal wakes the runner without blocking (must be called with lock held).
func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Next marks the oldest queued task as running and returns it.
// Returns nil when nothing is queued.
func (q *Queue) Next() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, task := range q.tasks {
		if task.GetStatus() == TaskStatusQueued {
			task.MarkStarted()
			return task
		}
	}
	return nil
}

// CancelQueued cancels every task that has not started and returns how many.
func (q *Queue) CancelQueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	canceled := 0
	for _, task := range q.tasks {
		if task.GetStatus() == TaskStatusQueued {
			task.MarkCanceled()
			canceled++
		}
	}
	q.cleanupLocked()
	return canceled
}

// MarkComplete marks a task as complete.
func (q *Queue) MarkComplete(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.MarkComplete()
	q.cleanupLocked()
}

// MarkFailed marks a task as failed.
func (q *Queue) MarkFailed(task *Task, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.SetError(err)
	q.cleanupLocked()
}

// MarkCanceled marks a task as canceled.
func (q *Queue) MarkCanceled(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.MarkCanceled()
	q.cleanupLocked()
}

// =============================================================================
// QUEUE QUERIES
// =============================================================================

// Completed returns copies of finished tasks (success, failure, or canceled).
func (q *Queue) Completed() []*Task {
	return q.filter((*Task).IsComplete)
}

func (q *Queue) filter(keep func(*Task) bool) []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, 0)
	for _, task := range q.tasks {
		if keep(task) {
			result = append(result, task.Clone())
		}
	}
	return result
}

// Count returns the total number of tasks.
func (q *Queue) Count() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

func (q *Queue) queuedCountLocked() int {
	n := 0
	for _, t := range q.tasks {
		if t.GetStatus() == TaskStatusQueued {
			n++
		}
	}
	return n
}

// =============================================================================
// CLEANUP
// =============================================================================

// cleanupLocked drops the oldest finished tasks beyond maxHistory.
// Must be called with lock held.
func (q *Queue) cleanupLocked() {
	if q.maxHistory <= 0 {
		return
	}

	completedCount := 0
	for _, task := range q.tasks {
		if task.IsComplete() {
			completedCount++
		}
	}

	if completedCount > q.maxHistory {
		toRemove := completedCount - q.maxHistory
		newTasks := make([]*Task, 0, len(q.tasks)-toRemove)

		for _, task := range q.tasks {
			if task.IsComplete() && toRemove > 0 {
				toRemove--
				continue
			}
			newTasks = append(newTasks, task)
		}

		q.tasks = newTasks
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summary returns a formatted summary of the queue.
func (q *Queue) Summary() string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var running, queued, completed, failed, canceled int
	for _, task := range q.tasks {
		switch task.GetStatus() {
		case TaskStatusRunning:
			running++
		case TaskStatusQueued:
			queued++
		case TaskStatusComplete:
			completed++
		case TaskStatusFailed:
			failed++
		case TaskStatusCanceled:
			canceled++
		}
	}

	return fmt.Sprintf("Running: %d | Queued: %d | Completed: %d | Failed: %d | Canceled: %d",
		running, queued, completed, failed, canceled)
}

// LogReport writes one line per finished task, then the queue summary.
// Failed tasks are logged at warn level with their error and exit code.
func (q *Queue) LogReport(log *logrus.Entry) {
	for _, task := range q.Completed() {
		entry := log.WithField("task", task.ID)
		if task.GetStatus() == TaskStatusFailed {
			entry.WithFields(logrus.Fields{
				"error":     task.GetError(),
				"exit_code": task.GetExitCode(),
			}).Warn(task.Summary())
			continue
		}
		entry.Info(task.Summary())
	}
	log.WithField("tasks", q.Count()).Info(q.Summary())
}
