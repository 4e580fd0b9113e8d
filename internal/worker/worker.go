// Package worker implements the generic cancellable Worker and the
// Background-Service composition framework (spec §4.7).
//
// Grounded on the teacher's internal/scheduler/scheduler.go re-entrancy
// guard (a mutex-protected registry with running/lastRun bookkeeping) and
// internal/downloader/service.go's lifecycle/status field shape, combined
// here into a generic worker that logs to an internal/logger.RingBuffer.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinephage/cinephage/internal/logger"
)

// Status is a Worker's lifecycle state (spec §4.7).
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// LogEntry is one line in a worker's bounded log buffer.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
}

// Func is the body a Worker runs. It must observe ctx cancellation
// cooperatively (spec §5).
type Func func(ctx context.Context, w *Worker) error

// Worker is one cancellable unit of background work with bounded logs and
// progress reporting (spec §4.7).
type Worker struct {
	ID       string
	Type     string
	Metadata map[string]string

	mu        sync.RWMutex
	status    Status
	progress  float64
	startedAt *time.Time
	endedAt   *time.Time
	err       error

	logs   *logger.RingBuffer[LogEntry]
	cancel context.CancelFunc
}

// newWorker creates a worker in the pending state.
func newWorker(workerType string, metadata map[string]string, logBufferSize int) *Worker {
	if logBufferSize <= 0 {
		logBufferSize = 200
	}
	return &Worker{
		ID:       uuid.NewString(),
		Type:     workerType,
		Metadata: metadata,
		status:   StatusPending,
		logs:     logger.NewRingBuffer[LogEntry](logBufferSize),
	}
}

// SetProgress updates the worker's fractional progress (0..1), clamped.
func (w *Worker) SetProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	w.mu.Lock()
	w.progress = p
	w.mu.Unlock()
}

// Log appends a line to the worker's bounded log buffer.
func (w *Worker) Log(level, message string) {
	w.logs.Push(LogEntry{Time: time.Now(), Level: level, Message: message})
}

// Logs returns every buffered log line, oldest first.
func (w *Worker) Logs() []LogEntry { return w.logs.GetAll() }

// Snapshot returns the worker's current lifecycle state, progress, and error
// (if any).
func (w *Worker) Snapshot() (Status, float64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status, w.progress, w.err
}

func (w *Worker) setStatus(s Status) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

func (w *Worker) setErr(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}

// run executes fn under cancellation, updating lifecycle fields.
func (w *Worker) run(ctx context.Context, fn Func, log zerolog.Logger) {
	now := time.Now()
	w.mu.Lock()
	w.status = StatusRunning
	w.startedAt = &now
	w.mu.Unlock()

	err := fn(ctx, w)

	end := time.Now()
	w.mu.Lock()
	w.endedAt = &end
	w.err = err
	switch {
	case err == context.Canceled:
		w.status = StatusCancelled
	case err != nil:
		w.status = StatusFailed
	default:
		w.status = StatusCompleted
		w.progress = 1
	}
	w.mu.Unlock()

	if err != nil && err != context.Canceled {
		log.Error().Err(err).Str("worker", w.ID).Str("type", w.Type).Msg("worker failed")
	}
}

// Cancel requests cooperative cancellation of the worker's context.
func (w *Worker) Cancel() {
	if w.cancel != nil {
		w.cancel()
	}
}
