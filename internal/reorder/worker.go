package reorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jkimathi/sokoflow-backend/pkg/logger"
	"github.com/jkimathi/sokoflow-backend/pkg/metrics"
)

const defaultScanInterval = 15 * time.Minute

// WorkerParams configure the periodic scan loop.
type WorkerParams struct {
	Logger   *logger.Logger
	Scanner  *Scanner
	Metrics  *metrics.JobMetrics
	Interval time.Duration
}

// Worker runs the scanner on a fixed cadence until its context is canceled.
type Worker struct {
	logg     *logger.Logger
	scanner  *Scanner
	metrics  *metrics.JobMetrics
	interval time.Duration
}

func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Scanner == nil {
		return nil, fmt.Errorf("scanner required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultScanInterval
	}
	return &Worker{
		logg:     params.Logger,
		scanner:  params.Scanner,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes one scan immediately, then ticks until cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "reorder worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	job := w.scanner.Name()
	jobCtx := w.logg.WithField(ctx, "job", job)
	w.logg.Info(jobCtx, "job start")

	start := time.Now()
	created, err := w.scanner.Run(jobCtx)
	duration := time.Since(start)

	w.metrics.ObserveDuration(job, duration)
	jobCtx = w.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		w.metrics.IncFailure(job)
		w.logg.Error(jobCtx, "job failed", err)
		return
	}
	w.metrics.IncSuccess(job)
	w.metrics.AddAlertsCreated(job, created)
	w.logg.Info(jobCtx, "job completed")
}
