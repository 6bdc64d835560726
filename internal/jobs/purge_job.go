package job

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/service"
)

const (
	IdempotencyPurgeSpec = "@hourly"
	TrashPurgeSpec       = "@daily"

	jobTimeout = 5 * time.Minute
)

var errSchedulerStopped = errors.New("scheduler is not running")

// PurgeJob removes expired idempotency keys and posts that stayed in the
// trash longer than the retention period.
type PurgeJob struct {
	log       *zap.Logger
	idem      service.IdempotencyService
	pr        repository.PostRepository
	retention time.Duration
	now       func() time.Time
}

func NewPurgeJob(log *zap.Logger, idem service.IdempotencyService, pr repository.PostRepository, retention time.Duration) *PurgeJob {
	return &PurgeJob{
		log:       log,
		idem:      idem,
		pr:        pr,
		retention: retention,
		now:       time.Now,
	}
}

func (j *PurgeJob) PurgeIdempotencyKeys() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.idem.Purge(ctx); err != nil {
		j.log.Info("purge idempotency keys", zap.Error(err))
	}
}

func (j *PurgeJob) PurgeTrashedPosts() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.pr.PurgeTrashed(ctx, j.now().Add(-j.retention))
	if err != nil {
		j.log.Info("purge trashed posts", zap.Error(err))
		return
	}
	if n > 0 {
		j.log.Info("purged trashed posts", zap.Int64("count", n))
	}
}

// Scheduler wraps the cron runner so its state can be reported.
type Scheduler struct {
	cron    *cron.Cron
	running atomic.Bool
}

func NewScheduler(j *PurgeJob) (*Scheduler, error) {
	c := cron.New()
	if err := c.AddFunc(IdempotencyPurgeSpec, j.PurgeIdempotencyKeys); err != nil {
		return nil, err
	}
	if err := c.AddFunc(TrashPurgeSpec, j.PurgeTrashedPosts); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.running.Store(true)
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.running.Store(false)
}

// Check reports the next planned run, for the system status page.
func (s *Scheduler) Check(context.Context) (string, error) {
	if !s.running.Load() {
		return "", errSchedulerStopped
	}
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return "Next run at " + next.UTC().Format(time.RFC3339), nil
}
