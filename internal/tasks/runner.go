// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/streampane/internal/config"
	"github.com/jeranaias/streampane/internal/logging"
	"github.com/jeranaias/streampane/internal/util"
)

// =============================================================================
// RUNNER OPTIONS
// =============================================================================

// Options tunes how the runner executes and streams tasks.
type Options struct {
	// Shell overrides shell detection for command tasks
	Shell string
	// TaskTimeout bounds each task (0 = no timeout)
	TaskTimeout time.Duration
	// MaxFPS caps output deliveries per second (0 = deliver every read)
	MaxFPS int
	// ChunkSize is the read buffer size
	ChunkSize int
}

// OptionsFromConfig builds Options from the [stream] config section.
func OptionsFromConfig(cfg config.StreamConfig) Options {
	return Options{
		Shell:       cfg.Shell,
		TaskTimeout: cfg.TaskTimeout(),
		MaxFPS:      cfg.MaxFPS,
		ChunkSize:   cfg.ChunkSize,
	}
}

// =============================================================================
// TASK RUNNER
// =============================================================================

// Runner executes queued tasks one at a time on a single goroutine, so the
// output of one task is complete before the next task's section starts.
type Runner struct {
	queue *Queue
	sink  Sink
	opts  Options
	log   *logrus.Entry

	mu      sync.Mutex
	current *Task
	stop    context.CancelFunc

	started atomic.Bool
	done    chan struct{}
}

// NewRunner creates a runner that takes tasks from queue and reports to sink.
func NewRunner(queue *Queue, sink Sink, opts Options) *Runner {
	return &Runner{
		queue: queue,
		sink:  sink,
		opts:  opts,
		log:   logging.Named("tasks"),
		done:  make(chan struct{}),
	}
}

// Submit queues a task.
func (r *Runner) Submit(task *Task) error {
	return r.queue.Add(task)
}

// =============================================================================
// RUNNER LIFECYCLE
// =============================================================================

// Start begins processing tasks. Calling Start more than once has no effect.
// Canceling ctx stops the runner like Stop.
func (r *Runner) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.stop = cancel
	r.mu.Unlock()

	go r.processLoop(ctx)
}

// Cancel cancels the task currently running. Returns false when idle.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	task := r.current
	r.mu.Unlock()

	if task == nil {
		return false
	}
	return task.Cancel()
}

// Stop cancels the running task and every queued task, then waits for the
// runner to exit.
func (r *Runner) Stop() {
	r.queue.Close()

	r.mu.Lock()
	stop := r.stop
	r.mu.Unlock()
	if stop != nil {
		stop()
	}

	r.Wait()
}

// Wait blocks until the runner exits: after Stop, or once the queue is
// closed and drained. It returns immediately if the runner never started.
func (r *Runner) Wait() {
	if !r.started.Load() {
		return
	}
	<-r.done
}

// =============================================================================
// TASK PROCESSING
// =============================================================================

func (r *Runner) processLoop(ctx context.Context) {
	defer close(r.done)
	defer func() {
		r.mu.Lock()
		r.stop()
		r.mu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			if n := r.queue.CancelQueued(); n > 0 {
				r.log.WithField("count", n).Debug("canceled queued tasks")
			}
			return
		}

		// Read closed before taking a task: once closed, no task can be added
		// after an empty Next.
		closed := r.queue.Closed()
		task := r.queue.Next()
		if task == nil {
			if closed {
				return
			}
			select {
			case <-ctx.Done():
			case <-r.queue.Ready():
			}
			continue
		}

		r.executeTask(ctx, task)
	}
}

// executeTask runs one task and reports it to the sink.
func (r *Runner) executeTask(ctx context.Context, task *Task) {
	var taskCtx context.Context
	var cancel context.CancelFunc
	if r.opts.TaskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, r.opts.TaskTimeout)
	} else {
		taskCtx, cancel = context.WithCancel(ctx)
	}
	task.SetCancelFunc(cancel)
	defer cancel()

	r.setCurrent(task)
	defer r.setCurrent(nil)

	log := r.log.WithFields(logrus.Fields{"task": task.ID, "kind": task.Kind})
	log.WithField("title", task.Title).Info("task started")
	r.sink.TaskStarted(task.ID, task.Title, task.Kind)

	err := r.dispatch(taskCtx, task)

	switch {
	case task.GetStatus() == TaskStatusCanceled,
		err != nil && ctx.Err() != nil:
		err = nil
		r.queue.MarkCanceled(task)
	case err != nil && errors.Is(taskCtx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("timed out after %s", r.opts.TaskTimeout)
		r.queue.MarkFailed(task, err)
	case err != nil:
		r.queue.MarkFailed(task, err)
	default:
		r.queue.MarkComplete(task)
	}

	result := resultOf(task, err)
	entry := log.WithFields(logrus.Fields{"status": result.Status, "duration": result.Duration.Round(time.Millisecond)})
	if err != nil {
		entry.WithError(err).Warn("task finished")
	} else {
		entry.Info("task finished")
	}
	r.sink.TaskFinished(result)
}

func (r *Runner) setCurrent(task *Task) {
	r.mu.Lock()
	r.current = task
	r.mu.Unlock()
}

func (r *Runner) dispatch(ctx context.Context, task *Task) error {
	switch task.Kind {
	case KindCommand:
		return r.runCommand(ctx, task)
	case KindFollow:
		return r.runFollow(ctx, task)
	case KindStdin:
		return r.runStdin(ctx, task)
	case KindMarkdown:
		return r.runMarkdown(task)
	default:
		return fmt.Errorf("unknown task kind: %q", task.Kind)
	}
}

func (r *Runner) emitter(task *Task) func(string) {
	return func(text string) {
		r.sink.TaskOutput(task.ID, text)
	}
}

func (r *Runner) newPump() *pump {
	return newPump(r.opts.MaxFPS, r.opts.ChunkSize)
}

// =============================================================================
// TASK EXECUTORS
// =============================================================================

// runCommand runs the task's command line through a shell. Stdout and stderr
// share one pipe so their relative order is kept.
func (r *Runner) runCommand(ctx context.Context, task *Task) error {
	if strings.TrimSpace(task.Command) == "" {
		return errors.New("empty command")
	}

	shell, flag := shellCommand(r.opts.Shell)
	cmd := exec.CommandContext(ctx, shell, flag, task.Command)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create output pipe: %w", err)
	}
	defer pr.Close()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return fmt.Errorf("start %s: %w", shell, err)
	}
	// The child holds its own copy of the write end
	pw.Close()

	// Unblock the pump if a background child keeps the pipe open
	stopClose := context.AfterFunc(ctx, func() { pr.Close() })
	defer stopClose()

	streamErr := r.newPump().run(ctx, pr, r.emitter(task))
	waitErr := cmd.Wait()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			task.SetExitCode(exitErr.ExitCode())
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if exitErr != nil {
			return fmt.Errorf("exit status %d", exitErr.ExitCode())
		}
		return fmt.Errorf("command failed: %w", waitErr)
	}

	task.SetExitCode(0)
	return streamErr
}

// runFollow streams a file and everything appended to it until the task is
// canceled or the file is removed.
func (r *Runner) runFollow(ctx context.Context, task *Task) error {
	fr, err := openFollow(ctx, util.ExpandHome(task.Path), r.log.WithField("task", task.ID))
	if err != nil {
		return err
	}
	defer fr.Close()

	return r.newPump().run(ctx, fr, r.emitter(task))
}

// runStdin streams the task's reader until EOF.
func (r *Runner) runStdin(ctx context.Context, task *Task) error {
	if task.Input == nil {
		return errors.New("no input reader")
	}
	return r.newPump().run(ctx, task.Input, r.emitter(task))
}

// runMarkdown emits a whole file as one markdown document.
func (r *Runner) runMarkdown(task *Task) error {
	data, err := os.ReadFile(util.ExpandHome(task.Path))
	if err != nil {
		return fmt.Errorf("read %s: %w", task.Path, err)
	}
	r.sink.TaskMarkdown(task.ID, string(data))
	return nil
}

// =============================================================================
// SHELL DETECTION
// =============================================================================

// shellCommand picks the shell and its command flag. A configured shell wins;
// otherwise bash, then /bin/sh, or powershell/cmd on Windows.
func shellCommand(configured string) (shell, flag string) {
	if configured != "" {
		return configured, shellFlag(configured)
	}

	if runtime.GOOS == "windows" {
		if _, err := exec.LookPath("powershell"); err == nil {
			return "powershell", "-Command"
		}
		return "cmd", "/c"
	}

	if path, err := exec.LookPath("bash"); err == nil {
		return path, "-c"
	}
	return "/bin/sh", "-c"
}

func shellFlag(shell string) string {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(shell), ".exe"))
	switch name {
	case "cmd":
		return "/c"
	case "powershell", "pwsh":
		return "-Command"
	default:
		return "-c"
	}
}
