// Package scheduler runs the campaign expiry sweeper.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danswara/promo-service/internal/metrics"
	"github.com/danswara/promo-service/internal/model"
)

// CampaignExpirer is the slice of campaign storage the sweeper needs.
type CampaignExpirer interface {
	ListLapsed(ctx context.Context, now time.Time) ([]model.Campaign, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

const sweepTimeout = 30 * time.Second

// Sweeper periodically transitions campaigns whose end date has elapsed to
// EXPIRED. It runs with a fixed delay: the timer is rearmed only after a run
// completes, so runs never overlap. Failures are logged and swallowed; a bad
// run must not stop future runs.
type Sweeper struct {
	campaigns CampaignExpirer
	interval  time.Duration
	clock     func() time.Time
	shutdown  chan struct{}
	stopped   chan struct{}
}

// NewSweeper creates a sweeper with the given run interval.
func NewSweeper(campaigns CampaignExpirer, interval time.Duration) *Sweeper {
	return &Sweeper{
		campaigns: campaigns,
		interval:  interval,
		clock:     time.Now,
		shutdown:  make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop signals the loop to exit and waits for it.
func (s *Sweeper) Stop() {
	close(s.shutdown)
	<-s.stopped
}

func (s *Sweeper) run() {
	defer close(s.stopped)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.Sweep()
			timer.Reset(s.interval)
		case <-s.shutdown:
			return
		}
	}
}

// Sweep performs one expiry pass and returns the number of campaigns it
// expired. All errors are logged and swallowed.
func (s *Sweeper) Sweep() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	now := s.clock()

	lapsed, err := s.campaigns.ListLapsed(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("sweeper failed to list lapsed campaigns")
		metrics.SweeperRuns.WithLabelValues("failed").Inc()
		return 0
	}
	if len(lapsed) == 0 {
		metrics.SweeperRuns.WithLabelValues("success").Inc()
		return 0
	}

	expired, err := s.campaigns.ExpireLapsed(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("sweeper failed to expire campaigns")
		metrics.SweeperRuns.WithLabelValues("failed").Inc()
		return 0
	}

	metrics.SweeperRuns.WithLabelValues("success").Inc()
	metrics.CampaignsExpired.Add(float64(expired))
	logrus.WithField("expired", expired).Info("campaigns expired by sweeper")

	return expired
}
