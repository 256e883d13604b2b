package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconciler is implemented by the services that own repairable state.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
	Name() string
}

// Sweeper runs every Reconciler on a fixed interval.
type Sweeper struct {
	interval time.Duration
	jobs     []Reconciler
}

func NewSweeper(interval time.Duration, jobs ...Reconciler) *Sweeper {
	return &Sweeper{interval: interval, jobs: jobs}
}

// Run blocks until ctx is done. A zero interval disables the sweep.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		zap.L().Info("reconcile sweep disabled", zap.String("area", "reconcile"))
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs each job once; a failing job does not stop the others.
func (s *Sweeper) RunOnce(ctx context.Context) {
	log := zap.L().With(zap.String("area", "reconcile"))
	for _, job := range s.jobs {
		repaired, err := job.Reconcile(ctx)
		if err != nil {
			log.Error("reconcile failed", zap.String("job", job.Name()), zap.Error(err))
			continue
		}
		if repaired > 0 {
			log.Info("reconciled", zap.String("job", job.Name()), zap.Int("repaired", repaired))
		}
	}
}

// JobFunc adapts a plain function to Reconciler.
type JobFunc struct {
	Label string
	Fn    func(ctx context.Context) (int, error)
}

func (j JobFunc) Name() string { return j.Label }

func (j JobFunc) Reconcile(ctx context.Context) (int, error) { return j.Fn(ctx) }
