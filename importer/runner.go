package importer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AfterRun is called once a background run has finished. report is nil
// when a reset was rolled back.
type AfterRun func(ctx context.Context, mode Mode, report *Report, err error)

// Runner starts imports in the background and exposes their status.
type Runner struct {
	base    context.Context
	sync    *Synchronizer
	tracker *Tracker
	plans   []CategoryPlan
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []AfterRun
	wg    sync.WaitGroup
}

// NewRunner ties background runs to base: cancelling it stops them between
// directories.
func NewRunner(base context.Context, s *Synchronizer, tracker *Tracker, plans []CategoryPlan, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Runner{
		base:    base,
		sync:    s,
		tracker: tracker,
		plans:   plans,
		logger:  logger,
	}
}

// OnFinish registers a hook run after every background run.
func (r *Runner) OnFinish(hook AfterRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// StartSync launches an upsert run and returns its id.
func (r *Runner) StartSync() (string, error) {
	return r.start(ModeUpsert)
}

// StartReset launches a full reset run and returns its id.
func (r *Runner) StartReset() (string, error) {
	return r.start(ModeReset)
}

func (r *Runner) start(mode Mode) (string, error) {
	runID, err := r.tracker.Begin(mode)
	if err != nil {
		return "", err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(runID, mode)
	}()
	return runID, nil
}

func (r *Runner) run(runID string, mode Mode) {
	logger := r.logger.With(zap.String("run_id", runID), zap.String("mode", string(mode)))
	logger.Info("catalog import started")

	var (
		report *Report
		err    error
	)
	defer func() {
		if p := recover(); p != nil {
			logger.Error("catalog import panicked", zap.Any("panic", p))
			r.tracker.Finish(report, errPanic)
		}
	}()

	progress := Tee(r.tracker, LogProgress(logger))
	switch mode {
	case ModeReset:
		report, err = r.sync.Reset(r.base, r.plans, progress)
	default:
		report, err = r.sync.Sync(r.base, r.plans, progress)
	}

	if report != nil {
		for _, line := range report.Summary() {
			r.tracker.Detail(line)
		}
	}
	r.tracker.Finish(report, err)

	if err != nil {
		logger.Error("catalog import failed", zap.Error(err))
	} else {
		t := report.Totals()
		logger.Info("catalog import finished",
			zap.Int("added", t.Added),
			zap.Int("updated", t.Updated),
			zap.Int("skipped", t.Skipped),
			zap.Int("failed", t.Failed),
			zap.Int("photos_added", t.PhotosAdded),
			zap.Duration("took", report.Duration()))
	}

	r.mu.Lock()
	hooks := append([]AfterRun(nil), r.hooks...)
	r.mu.Unlock()
	for _, hook := range hooks {
		hook(r.base, mode, report, err)
	}
}

// Wait blocks until every started run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) Status() Status {
	return r.tracker.Snapshot()
}

func (r *Runner) Clear() error {
	return r.tracker.Clear()
}
