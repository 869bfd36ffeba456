package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-service/internal/domain"
	"auction-service/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ExpirySweeper closes Open auctions whose ends_at has passed. It is the
// scheduler collaborator sitting next to the lifecycle core: expiry goes
// through the normal Close path, so its guards and race semantics apply
// unchanged. Leader election keeps multiple instances from sweeping at once;
// even without it a lost sweep race is harmless, the loser just sees an
// invalid-transition result.
type ExpirySweeper struct {
	cron       *cron.Cron
	store      domain.AuctionStore
	lifecycle  *AuctionLifecycle
	leader     domain.LeaderElection
	instanceID string
	interval   time.Duration
	log        logger.Logger
}

func NewExpirySweeper(
	store domain.AuctionStore,
	lifecycle *AuctionLifecycle,
	leader domain.LeaderElection,
	instanceID string,
	interval time.Duration,
	log logger.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		cron:       cron.New(cron.WithSeconds()),
		store:      store,
		lifecycle:  lifecycle,
		leader:     leader,
		instanceID: instanceID,
		interval:   interval,
		log:        log,
	}
}

func (s *ExpirySweeper) Start(ctx context.Context) error {
	s.log.Info("Starting expiry sweeper", "interval", s.interval)

	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *ExpirySweeper) Stop() error {
	s.log.Info("Stopping expiry sweeper")
	s.cron.Stop()
	return nil
}

// Sweep runs one pass and returns the number of auctions it closed.
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Error("Failed to check leadership", "error", err)
		return 0
	}
	if !isLeader {
		return 0
	}

	expired, err := s.store.FindExpiredOpen(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("Failed to find expired auctions", "error", err)
		return 0
	}

	closed := 0
	for _, auction := range expired {
		if _, err := s.lifecycle.Close(ctx, auction.ID); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrAuctionNotFound) {
				// Someone else closed it between the find and our attempt.
				s.log.Debug("Expired auction already closed", "auction_id", auction.ID)
				continue
			}
			s.log.Error("Failed to close expired auction", "auction_id", auction.ID, "error", err)
			continue
		}
		closed++
	}

	if closed > 0 {
		s.log.Info("Closed expired auctions", "count", closed)
	}
	return closed
}
