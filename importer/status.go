package importer

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when a run is requested while another one
// is in progress, or when clearing the status of an active run.
var ErrAlreadyRunning = errors.New("import already running")

const defaultMaxDetails = 1000

// Status is a point-in-time view of the current or last run.
type Status struct {
	RunID      string     `json:"run_id,omitempty"`
	Mode       Mode       `json:"mode,omitempty"`
	IsRunning  bool       `json:"is_running"`
	Progress   string     `json:"progress"`
	Stats      *Report    `json:"stats"`
	Details    []string   `json:"details"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Tracker holds the pollable status of import runs and guards them so
// that only one runs at a time. It implements Progress.
type Tracker struct {
	mu         sync.Mutex
	status     Status
	maxDetails int
}

func NewTracker() *Tracker {
	return &Tracker{
		status:     Status{Details: []string{}},
		maxDetails: defaultMaxDetails,
	}
}

// Begin marks a run as started and returns its id. It fails with
// ErrAlreadyRunning when a run is active.
func (t *Tracker) Begin(mode Mode) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsRunning {
		return "", ErrAlreadyRunning
	}
	now := time.Now()
	t.status = Status{
		RunID:     uuid.NewString(),
		Mode:      mode,
		IsRunning: true,
		Progress:  "Запуск",
		Details:   []string{},
		StartedAt: &now,
	}
	return t.status.RunID, nil
}

func (t *Tracker) Step(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Progress = msg
}

// Detail appends a line, dropping the oldest ones beyond the limit.
func (t *Tracker) Detail(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Details = append(t.status.Details, line)
	if over := len(t.status.Details) - t.maxDetails; t.maxDetails > 0 && over > 0 {
		t.status.Details = append([]string(nil), t.status.Details[over:]...)
	}
}

// Finish ends the active run with its report and error.
func (t *Tracker) Finish(report *Report, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.status.IsRunning = false
	t.status.FinishedAt = &now
	t.status.Stats = report.Clone()
	if err != nil {
		t.status.Error = err.Error()
		t.status.Progress = "Помилка"
		return
	}
	t.status.Progress = "Готово"
}

// Snapshot returns a copy that later updates do not touch.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.status
	s.Details = append([]string{}, t.status.Details...)
	s.Stats = t.status.Stats.Clone()
	if t.status.StartedAt != nil {
		started := *t.status.StartedAt
		s.StartedAt = &started
	}
	if t.status.FinishedAt != nil {
		finished := *t.status.FinishedAt
		s.FinishedAt = &finished
	}
	return s
}

// Clear forgets the last run. It is refused while a run is active.
func (t *Tracker) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsRunning {
		return ErrAlreadyRunning
	}
	t.status = Status{Details: []string{}}
	return nil
}

// LogProgress writes progress to a logger, for runs without a Tracker.
func LogProgress(logger *zap.Logger) Progress {
	return logProgress{logger: logger}
}

type logProgress struct {
	logger *zap.Logger
}

func (p logProgress) Step(msg string) {
	p.logger.Info(msg)
}

func (p logProgress) Detail(line string) {
	p.logger.Debug(line)
}

var errPanic = errors.New("import aborted unexpectedly")
