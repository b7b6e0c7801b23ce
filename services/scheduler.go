// services/scheduler.go
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpiryScheduler arms single-shot challenge timers. fire must be called from
// its own goroutine, never from inside Arm.
type ExpiryScheduler interface {
	Arm(matchID string, delay time.Duration, fire func()) (ExpiryTask, error)
}

// ExpiryTask is an armed timer. Cancel is idempotent and safe after the timer fired.
type ExpiryTask interface {
	Cancel()
}

// ChallengeExpiry runs challenge timers as gocron one-time jobs.
type ChallengeExpiry struct {
	sched  gocron.Scheduler
	logger *zap.Logger
}

func NewChallengeExpiry(logger *zap.Logger, opts ...gocron.SchedulerOption) (*ChallengeExpiry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	sched.Start()
	return &ChallengeExpiry{sched: sched, logger: logger}, nil
}

func (e *ChallengeExpiry) Arm(matchID string, delay time.Duration, fire func()) (ExpiryTask, error) {
	job, err := e.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(delay))),
		gocron.NewTask(func() {
			e.logger.Debug("⏰ [EXPIRY] timer fired", zap.String("match_id", matchID))
			fire()
		}),
		gocron.WithName("challenge-expiry"),
		gocron.WithTags(matchID),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule expiry for %s: %w", matchID, err)
	}
	return &expiryJob{sched: e.sched, id: job.ID(), matchID: matchID, logger: e.logger}, nil
}

func (e *ChallengeExpiry) Shutdown() error {
	return e.sched.Shutdown()
}

type expiryJob struct {
	once    sync.Once
	sched   gocron.Scheduler
	id      uuid.UUID
	matchID string
	logger  *zap.Logger
}

func (j *expiryJob) Cancel() {
	j.once.Do(func() {
		err := j.sched.RemoveJob(j.id)
		if err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			j.logger.Warn("⚠️ [EXPIRY] failed to remove timer",
				zap.String("match_id", j.matchID), zap.Error(err))
		}
	})
}
