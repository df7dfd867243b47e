package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingPublisher struct {
	calls atomic.Int32
	err   error
}

func (p *countingPublisher) PublishDue(ctx context.Context) (int, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestScheduledPublishJobRunsImmediatelyAndOnTick(t *testing.T) {
	pub := &countingPublisher{}
	job := NewScheduledPublishJob(pub, 10*time.Millisecond, zap.NewNop())

	job.Start(context.Background())
	require.Eventually(t, func() bool { return pub.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	job.Stop()

	calls := pub.calls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, calls, pub.calls.Load())
}

func TestScheduledPublishJobSurvivesErrors(t *testing.T) {
	pub := &countingPublisher{err: errors.New("database is locked")}
	job := NewScheduledPublishJob(pub, 10*time.Millisecond, zap.NewNop())

	job.Start(context.Background())
	require.Eventually(t, func() bool { return pub.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	job.Stop()
}

func TestScheduledPublishJobStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := NewScheduledPublishJob(&countingPublisher{}, time.Hour, zap.NewNop())

	job.Start(ctx)
	cancel()
	job.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	NewScheduledPublishJob(&countingPublisher{}, time.Minute, zap.NewNop()).Stop()
}
