package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner drives background jobs on standard five-field cron expressions. A
// job never overlaps itself: a tick that fires while the previous run is
// still going is skipped, not queued.
type Runner struct {
	cron *cron.Cron
	base context.Context
}

func NewRunner() *Runner {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Runner{
		cron: cron.New(cron.WithParser(parser)),
		base: context.Background(),
	}
}

func (r *Runner) Add(spec string, job Job) error {
	if _, err := r.cron.AddFunc(spec, r.wrap(job)); err != nil {
		return err
	}
	logutil.GetLogger(r.base).Info("job scheduled",
		zap.String("job", job.Name()),
		zap.String("cron", spec),
	)
	return nil
}

// Start begins firing jobs. ctx becomes the parent context for every run, so
// cancelling it interrupts in-flight jobs.
func (r *Runner) Start(ctx context.Context) {
	if ctx != nil {
		r.base = ctx
	}
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs to return.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Runner) wrap(job Job) func() {
	var mu sync.Mutex
	return func() {
		if !mu.TryLock() {
			logutil.GetLogger(r.base).Warn("job tick skipped, previous run still active",
				zap.String("job", job.Name()),
			)
			return
		}
		defer mu.Unlock()

		logger := logutil.GetLogger(r.base).With(zap.String("job", job.Name()))
		start := time.Now()
		if err := job.Run(r.base); err != nil {
			logger.Error("job run failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		logger.Info("job run done", zap.Duration("took", time.Since(start)))
	}
}
