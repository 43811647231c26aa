package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	return &Runner{ctx: ctx, log: logging.Named(log, "jobs")}
}

// Every runs fn on each tick until the runner's context is done. A panic in fn is
// recovered and reported; the loop keeps going.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic in job %s: %v", name, p)
			jobFailures.WithLabelValues(name, reasonPanic).Inc()
			r.log.Error("job panicked", zap.String("job", name), zap.Any("panic", p))
			observability.CaptureErr(err)
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	if err := fn(r.ctx); err != nil {
		jobFailures.WithLabelValues(name, reasonError).Inc()
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
		observability.CaptureErr(err)
		return
	}
	jobLastSuccess.WithLabelValues(name).SetToCurrentTime()
}

// Wait blocks until every loop has observed the context cancellation.
func (r *Runner) Wait() { r.wg.Wait() }
