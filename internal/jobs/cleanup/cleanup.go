package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type GrantPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Config struct {
	Interval  time.Duration
	Retention time.Duration
}

// Job removes access grants whose expiry passed more than Retention
// ago. Expired grants stay queryable during the retention window so
// revocation audits can still see them.
type Job struct {
	grants GrantPurger
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewJob(grants GrantPurger, logger *zap.Logger, cfg Config) *Job {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retention < 0 {
		cfg.Retention = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		grants: grants,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (j *Job) RunOnce(ctx context.Context) error {
	cutoff := j.now().Add(-j.cfg.Retention)
	purged, err := j.grants.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("grant cleanup failed", zap.Error(err))
		return err
	}
	if purged > 0 {
		j.logger.Info("purged expired grants", zap.Int64("count", purged))
	}

	return nil
}

// Run blocks until ctx is cancelled, purging on every tick.
func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.RunOnce(ctx)
		}
	}
}
