// File: /jobs/scheduled_publish_job.go
package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Publisher publishes drafts whose scheduled time has passed.
type Publisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// ScheduledPublishJob periodically publishes scheduled drafts.
type ScheduledPublishJob struct {
	publisher Publisher
	interval  time.Duration
	log       *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduledPublishJob(publisher Publisher, interval time.Duration, log *zap.Logger) *ScheduledPublishJob {
	return &ScheduledPublishJob{
		publisher: publisher,
		interval:  interval,
		log:       log.Named("scheduled-publish"),
	}
}

// Start runs one pass immediately and then one per interval until Stop.
func (j *ScheduledPublishJob) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	j.log.Info("scheduled publish job started", zap.Duration("interval", j.interval))

	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.run(ctx)
		for {
			select {
			case <-ticker.C:
				j.run(ctx)
			case <-ctx.Done():
				j.log.Info("scheduled publish job stopped")
				return
			}
		}
	}()
}

// Stop cancels the job and waits for the current pass to finish.
func (j *ScheduledPublishJob) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	<-j.done
}

func (j *ScheduledPublishJob) run(ctx context.Context) {
	n, err := j.publisher.PublishDue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			j.log.Error("scheduled publish failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		j.log.Info("published scheduled posts", zap.Int("count", n))
	}
}
